package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/promptfile/promptfile/attachments"
)

type fileUploadResponse struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type,omitempty"`
}

func (h *handlers) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeInvalidRequest(w, fmt.Sprintf("multipart field %q is required: %v", "file", err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeInvalidRequest(w, fmt.Sprintf("read upload: %v", err))
		return
	}

	stored, err := h.deps.Files.Put(r.Context(), header.Filename, header.Header.Get("Content-Type"), content)
	if err != nil {
		writeMappedError(w, err)
		return
	}

	if _, err := h.deps.Attachments.Record(attachments.Attachment{
		FileID:     stored.ID,
		Origin:     attachments.OriginUserUploaded,
		ContentRef: stored.ID,
		Filename:   stored.Filename,
		MimeType:   stored.MimeType,
	}); err != nil {
		writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, fileUploadResponse{
		FileID:   stored.ID,
		Filename: stored.Filename,
		MimeType: stored.MimeType,
	})
}

func (h *handlers) handleFileGet(w http.ResponseWriter, r *http.Request) {
	fileID := strings.TrimSpace(r.PathValue("file_id"))
	if fileID == "" {
		writeInvalidRequest(w, "file id is required")
		return
	}

	file, err := h.deps.Files.Get(r.Context(), fileID)
	if err != nil {
		writeMappedError(w, err)
		return
	}

	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	if file.Filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Content)
}

func (h *handlers) handleAttachmentGet(w http.ResponseWriter, r *http.Request) {
	fileID := strings.TrimSpace(r.PathValue("file_id"))
	if fileID == "" {
		writeInvalidRequest(w, "file id is required")
		return
	}
	containerID := r.URL.Query().Get("container_id")

	attachment, err := h.deps.Attachments.Resolve(fileID, containerID)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attachment)
}
