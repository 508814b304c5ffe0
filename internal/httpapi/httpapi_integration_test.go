package httpapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/promptfile/promptfile/attachments"
	convinmem "github.com/promptfile/promptfile/convstore/inmem"
	"github.com/promptfile/promptfile/definition"
	"github.com/promptfile/promptfile/engine"
	filedisk "github.com/promptfile/promptfile/filestore/disk"
	"github.com/promptfile/promptfile/internal/httpapi"
	"github.com/promptfile/promptfile/providers/scripted"
	"github.com/promptfile/promptfile/tooling/registry"
)

func newTestServer(t *testing.T, provider *scripted.Provider) (*httptest.Server, *attachments.Tracker) {
	t.Helper()

	promptDir := t.TempDir()
	document := "@@ Instructions\nAnswer briefly.\n\n@@ Prompt\nQuestion: {{content}}\n"
	if err := os.WriteFile(filepath.Join(promptDir, "chat.md"), []byte(document), 0o644); err != nil {
		t.Fatalf("write prompt: %v", err)
	}
	loader, err := definition.NewLoader(promptDir)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	files, err := filedisk.New(t.TempDir())
	if err != nil {
		t.Fatalf("filestore: %v", err)
	}

	logger := slog.New(slog.DiscardHandler)
	tracker := attachments.NewTracker()
	eng, err := engine.New(engine.Params{
		Definitions:  loader,
		Tools:        registry.New(logger),
		Threads:      convinmem.New(),
		Attachments:  tracker,
		Provider:     provider,
		Files:        files,
		DefaultModel: "openai/gpt-4o-mini",
		Logger:       logger,
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Engine:      eng,
		Definitions: loader,
		Files:       files,
		Attachments: tracker,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, tracker
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	encoded, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	response, err := http.Post(url, "application/json", bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return response
}

func decodeBody(t *testing.T, response *http.Response, dst any) {
	t.Helper()
	defer response.Body.Close()
	if err := json.NewDecoder(response.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestRunPrompt_OK(t *testing.T) {
	t.Parallel()

	provider := scripted.New(scripted.Step{Response: engine.Response{ID: "resp-1", Text: "blue"}})
	server, _ := newTestServer(t, provider)

	response := postJSON(t, server.URL+"/v1/prompts/chat/run", map[string]any{"content": "favorite color?"})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", response.StatusCode)
	}

	var body struct {
		Text       string `json:"text"`
		ThreadID   string `json:"thread_id"`
		ResponseID string `json:"response_id"`
	}
	decodeBody(t, response, &body)
	if body.Text != "blue" || body.ResponseID != "resp-1" || body.ThreadID == "" {
		t.Fatalf("body = %+v", body)
	}

	if got := provider.Requests()[0].Input; got != "Question: favorite color?" {
		t.Fatalf("provider input = %q", got)
	}
}

func TestRunPrompt_UnknownPromptIs404(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, scripted.New())

	response := postJSON(t, server.URL+"/v1/prompts/missing/run", map[string]any{"content": "x"})
	if response.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", response.StatusCode)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, response, &body)
	if body.Error.Code != "not_found" {
		t.Fatalf("error code = %q", body.Error.Code)
	}
}

func TestRunPrompt_BadBodyIs400(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, scripted.New())

	cases := []struct {
		name string
		body string
	}{
		{name: "not json", body: "not json"},
		{name: "missing content", body: `{}`},
		{name: "unknown field", body: `{"content": "x", "bogus": true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			response, err := http.Post(server.URL+"/v1/prompts/chat/run", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			defer response.Body.Close()
			if response.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", response.StatusCode)
			}
		})
	}
}

func TestRunPrompt_ProviderFailureIs502(t *testing.T) {
	t.Parallel()

	provider := scripted.New(scripted.Step{
		Err: &engine.TransportError{Status: 500, Retryable: true, Message: "upstream down"},
	})
	server, _ := newTestServer(t, provider)

	response := postJSON(t, server.URL+"/v1/prompts/chat/run", map[string]any{"content": "x"})
	if response.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", response.StatusCode)
	}
}

func TestPromptList(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, scripted.New())

	response, err := http.Get(server.URL + "/v1/prompts")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", response.StatusCode)
	}
	var body struct {
		Prompts []string `json:"prompts"`
	}
	decodeBody(t, response, &body)
	if len(body.Prompts) != 1 || body.Prompts[0] != "chat" {
		t.Fatalf("prompts = %v", body.Prompts)
	}
}

func TestFileUploadAndDownload(t *testing.T) {
	t.Parallel()

	server, tracker := newTestServer(t, scripted.New())

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	part, err := writer.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("quarterly notes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	response, err := http.Post(server.URL+"/v1/files", writer.FormDataContentType(), &buffer)
	if err != nil {
		t.Fatalf("POST upload: %v", err)
	}
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d", response.StatusCode)
	}
	var uploaded struct {
		FileID   string `json:"file_id"`
		Filename string `json:"filename"`
	}
	decodeBody(t, response, &uploaded)
	if uploaded.FileID == "" || uploaded.Filename != "notes.txt" {
		t.Fatalf("upload body = %+v", uploaded)
	}

	download, err := http.Get(fmt.Sprintf("%s/v1/files/%s", server.URL, uploaded.FileID))
	if err != nil {
		t.Fatalf("GET file: %v", err)
	}
	defer download.Body.Close()
	if download.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d", download.StatusCode)
	}
	content, err := io.ReadAll(download.Body)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(content) != "quarterly notes" {
		t.Fatalf("downloaded content = %q", content)
	}

	attachment, err := tracker.Resolve(uploaded.FileID, "")
	if err != nil {
		t.Fatalf("upload not tracked: %v", err)
	}
	if attachment.Origin != attachments.OriginUserUploaded {
		t.Fatalf("attachment origin = %q", attachment.Origin)
	}

	meta, err := http.Get(fmt.Sprintf("%s/v1/attachments/%s", server.URL, uploaded.FileID))
	if err != nil {
		t.Fatalf("GET attachment: %v", err)
	}
	defer meta.Body.Close()
	if meta.StatusCode != http.StatusOK {
		t.Fatalf("attachment status = %d", meta.StatusCode)
	}
}

func TestFileGet_UnknownIs404(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, scripted.New())

	response, err := http.Get(server.URL + "/v1/files/unknown-id")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", response.StatusCode)
	}
}
