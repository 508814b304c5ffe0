package httpapi

import (
	"net/http"
	"strings"

	"github.com/promptfile/promptfile/attachments"
	"github.com/promptfile/promptfile/engine"
)

type runRequest struct {
	Content  string   `json:"content"`
	ThreadID string   `json:"thread_id,omitempty"`
	FileIDs  []string `json:"file_ids,omitempty"`
}

type runResponse struct {
	Text        string                   `json:"text"`
	ThreadID    string                   `json:"thread_id"`
	ResponseID  string                   `json:"response_id"`
	ToolRounds  int                      `json:"tool_rounds"`
	Attachments []attachments.Attachment `json:"attachments,omitempty"`
}

func (h *handlers) handlePromptRun(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		writeInvalidRequest(w, "prompt name is required")
		return
	}

	var request runRequest
	if err := decodeJSONBody(r, &request); err != nil {
		writeMappedError(w, err)
		return
	}
	if strings.TrimSpace(request.Content) == "" {
		writeInvalidRequest(w, "content is required")
		return
	}

	result, err := h.deps.Engine.Run(r.Context(), engine.RunInput{
		PromptName: name,
		Content:    request.Content,
		ThreadID:   request.ThreadID,
		FileIDs:    request.FileIDs,
	})
	if err != nil {
		writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Text:        result.Text,
		ThreadID:    result.ThreadID,
		ResponseID:  result.ResponseID,
		ToolRounds:  result.ToolRounds,
		Attachments: result.Attachments,
	})
}

type promptListResponse struct {
	Prompts []string `json:"prompts"`
}

func (h *handlers) handlePromptList(w http.ResponseWriter, _ *http.Request) {
	names, err := h.deps.Definitions.Names()
	if err != nil {
		writeMappedError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, promptListResponse{Prompts: names})
}
