package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/promptfile/promptfile/attachments"
	"github.com/promptfile/promptfile/engine"
	"github.com/promptfile/promptfile/filestore"
)

const (
	errorCodeInvalidRequest    = "invalid_request"
	errorCodeNotFound          = "not_found"
	errorCodeRequestTooLarge   = "request_too_large"
	errorCodeInvalidDefinition = "invalid_definition"
	errorCodeProviderError     = "provider_error"
	errorCodeToolError         = "tool_error"
	errorCodeToolLoopExceeded  = "tool_loop_exceeded"
	errorCodeRuntime           = "runtime_error"
)

var errInvalidRequest = errors.New("invalid request")

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

func writeMappedError(w http.ResponseWriter, err error) {
	status, code := mapError(err)
	writeError(w, status, code, err.Error())
}

func writeInvalidRequest(w http.ResponseWriter, message string) {
	writeMappedError(w, invalidRequestError(message))
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiErrorResponse{
		Error: apiError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSONBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return invalidRequestError("request body is required")
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("%w: request body exceeds %d bytes", errRequestTooLarge, maxBytesErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return invalidRequestError("request body is required")
		}
		return invalidRequestError(fmt.Sprintf("invalid JSON body: %v", err))
	}

	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return invalidRequestError("request body must contain exactly one JSON object")
	}

	return nil
}

var errRequestTooLarge = errors.New("request too large")

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, errRequestTooLarge):
		return http.StatusRequestEntityTooLarge, errorCodeRequestTooLarge
	case errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest, errorCodeInvalidRequest
	case errors.Is(err, filestore.ErrFileNotFound), errors.Is(err, attachments.ErrNotFound):
		return http.StatusNotFound, errorCodeNotFound
	}

	switch engine.KindOf(err) {
	case engine.KindUnknownPrompt:
		return http.StatusNotFound, errorCodeNotFound
	case engine.KindInvalidInput:
		return http.StatusBadRequest, errorCodeInvalidRequest
	case engine.KindDefinitionParse, engine.KindUnknownTool:
		return http.StatusUnprocessableEntity, errorCodeInvalidDefinition
	case engine.KindProviderFailure:
		return http.StatusBadGateway, errorCodeProviderError
	case engine.KindToolExecution:
		return http.StatusInternalServerError, errorCodeToolError
	case engine.KindToolLoopExceeded:
		return http.StatusInternalServerError, errorCodeToolLoopExceeded
	default:
		return http.StatusInternalServerError, errorCodeRuntime
	}
}

func invalidRequestError(message string) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, message)
}
