package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/promptfile/promptfile/engine"
)

func TestBuildRequest_OpeningRound(t *testing.T) {
	t.Parallel()

	payload, err := buildRequest(engine.Request{
		Instructions: "You summarize pages.",
		Model:        "openai/gpt-4o",
		Input:        "what is on example.com?",
		FileIDs:      []string{"file-1"},
		Tools: []engine.ToolSpec{
			{Type: "web_search_preview"},
			{Type: "function", Name: "webscrape", Description: "fetch a page", Parameters: map[string]any{"type": "object"}},
		},
		PreviousResponseID: "resp-prev",
	})
	if err != nil {
		t.Fatalf("buildRequest returned error: %v", err)
	}

	if payload.Model != "gpt-4o" {
		t.Fatalf("model = %q, want provider prefix stripped", payload.Model)
	}
	if payload.PreviousResponseID != "resp-prev" {
		t.Fatalf("previous_response_id = %q", payload.PreviousResponseID)
	}
	if len(payload.Input) != 1 || payload.Input[0].Role != "user" {
		t.Fatalf("input items = %+v", payload.Input)
	}
	content := payload.Input[0].Content
	if len(content) != 2 {
		t.Fatalf("content items = %+v", content)
	}
	if content[0].Type != "input_text" || content[0].Text != "what is on example.com?" {
		t.Fatalf("text content = %+v", content[0])
	}
	if content[1].Type != "input_file" || content[1].FileID != "file-1" {
		t.Fatalf("file content = %+v", content[1])
	}
	if len(payload.Tools) != 2 || payload.Tools[0].Type != "web_search_preview" || payload.Tools[1].Name != "webscrape" {
		t.Fatalf("tools = %+v", payload.Tools)
	}
}

func TestBuildRequest_ToolResultRound(t *testing.T) {
	t.Parallel()

	payload, err := buildRequest(engine.Request{
		Model:              "openai/gpt-4o",
		PreviousResponseID: "resp-tools",
		ToolResults: []engine.ToolResult{
			{CallID: "call-1", Name: "webscrape", Content: "Example Domain."},
			{CallID: "call-2", Name: "webscrape", Content: "bad url", IsError: true},
		},
	})
	if err != nil {
		t.Fatalf("buildRequest returned error: %v", err)
	}

	if len(payload.Input) != 2 {
		t.Fatalf("input items = %+v", payload.Input)
	}
	for i, item := range payload.Input {
		if item.Type != "function_call_output" {
			t.Fatalf("input %d type = %q", i, item.Type)
		}
	}
	if payload.Input[0].CallID != "call-1" || payload.Input[0].Output != "Example Domain." {
		t.Fatalf("first output = %+v", payload.Input[0])
	}
}

func TestBuildRequest_RejectsInputAndToolResultsTogether(t *testing.T) {
	t.Parallel()

	_, err := buildRequest(engine.Request{
		Model:       "openai/gpt-4o",
		Input:       "fresh",
		ToolResults: []engine.ToolResult{{CallID: "call-1"}},
	})
	if err == nil {
		t.Fatal("expected buildRequest to fail for mixed rounds")
	}
}

func TestSend_DecodesTextToolCallsAndCitations(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		var received apiRequest
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if received.Model != "gpt-4o" {
			t.Errorf("request model = %q", received.Model)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "resp-1",
			"output": []map[string]any{
				{
					"type":      "function_call",
					"call_id":   "call-1",
					"name":      "webscrape",
					"arguments": `{"url": "https://example.com"}`,
				},
				{
					"type": "message",
					"content": []map[string]any{
						{
							"type": "output_text",
							"text": "see attached chart",
							"annotations": []map[string]any{
								{
									"type":         "container_file_citation",
									"container_id": "cntr-1",
									"file_id":      "file-9",
									"filename":     "chart.png",
								},
							},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	adapter, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	response, err := adapter.Send(context.Background(), engine.Request{
		Model: "openai/gpt-4o",
		Input: "hello",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if response.ID != "resp-1" {
		t.Fatalf("response id = %q", response.ID)
	}
	if response.Text != "see attached chart" {
		t.Fatalf("response text = %q", response.Text)
	}
	if len(response.ToolCalls) != 1 || response.ToolCalls[0].CallID != "call-1" || response.ToolCalls[0].Name != "webscrape" {
		t.Fatalf("tool calls = %+v", response.ToolCalls)
	}
	if len(response.GeneratedFiles) != 1 {
		t.Fatalf("generated files = %+v", response.GeneratedFiles)
	}
	file := response.GeneratedFiles[0]
	if file.FileID != "file-9" || file.ContainerID != "cntr-1" || file.Filename != "chart.png" {
		t.Fatalf("generated file = %+v", file)
	}
}

func TestSend_StatusClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		status    int
		retryable bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, retryable: true},
		{name: "upstream fault", status: http.StatusBadGateway, retryable: true},
		{name: "request timeout", status: http.StatusRequestTimeout, retryable: true},
		{name: "auth rejected", status: http.StatusUnauthorized, retryable: false},
		{name: "bad request", status: http.StatusBadRequest, retryable: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error": {"message": "nope"}}`))
			}))
			defer server.Close()

			adapter, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			_, err = adapter.Send(context.Background(), engine.Request{Model: "openai/gpt-4o", Input: "x"})
			var transportErr *engine.TransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("expected transport error, got %v", err)
			}
			if transportErr.Status != tc.status {
				t.Fatalf("status = %d, want %d", transportErr.Status, tc.status)
			}
			if transportErr.Retryable != tc.retryable {
				t.Fatalf("retryable = %t, want %t", transportErr.Retryable, tc.retryable)
			}
			if transportErr.Message != "nope" {
				t.Fatalf("message = %q", transportErr.Message)
			}
		})
	}
}

func TestSend_MissingResponseID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"output": []}`))
	}))
	defer server.Close()

	adapter, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := adapter.Send(context.Background(), engine.Request{Model: "openai/gpt-4o", Input: "x"}); err == nil {
		t.Fatal("expected decode error for missing response id")
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
