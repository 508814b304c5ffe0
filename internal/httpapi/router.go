// Package httpapi exposes the prompt service over HTTP: run a prompt, list
// definitions, upload files, and fetch recorded attachments.
package httpapi

import (
	"net/http"

	"github.com/promptfile/promptfile/attachments"
	"github.com/promptfile/promptfile/definition"
	"github.com/promptfile/promptfile/engine"
	"github.com/promptfile/promptfile/filestore"
)

const DefaultMaxRequestBodyBytes int64 = 1 << 20

// Deps carries the collaborators the handlers run against.
type Deps struct {
	Engine      *engine.Engine
	Definitions *definition.Loader
	Files       filestore.Store
	Attachments *attachments.Tracker

	// MaxRequestBodyBytes caps run and upload bodies; <= 0 uses the default.
	MaxRequestBodyBytes int64
}

type handlers struct {
	deps Deps
}

func NewRouter(deps Deps) http.Handler {
	if deps.MaxRequestBodyBytes <= 0 {
		deps.MaxRequestBodyBytes = DefaultMaxRequestBodyBytes
	}
	h := &handlers{deps: deps}

	limitBody := bodyLimitMiddleware(deps.MaxRequestBodyBytes)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/prompts", h.handlePromptList)
	mux.Handle("POST /v1/prompts/{name}/run", limitBody(http.HandlerFunc(h.handlePromptRun)))
	mux.Handle("POST /v1/files", limitBody(http.HandlerFunc(h.handleFileUpload)))
	mux.HandleFunc("GET /v1/files/{file_id}", h.handleFileGet)
	mux.HandleFunc("GET /v1/attachments/{file_id}", h.handleAttachmentGet)
	return mux
}

func bodyLimitMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
