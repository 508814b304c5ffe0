// Package mock provides a deterministic provider for running the service
// without credentials. Responses derive only from the request, so repeated
// runs with the same input produce the same conversation shape.
package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/promptfile/promptfile/engine"
)

// Provider answers with a canned echo of the input. An input containing a
// "[tool:<name>]" directive requests that tool once; the follow-up round
// summarizes the returned results.
type Provider struct{}

var _ engine.Provider = (*Provider)(nil)

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Send(ctx context.Context, request engine.Request) (engine.Response, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return engine.Response{}, ctxErr
	}

	response := engine.Response{ID: "mock-" + uuid.NewString()}

	if len(request.ToolResults) > 0 {
		parts := make([]string, 0, len(request.ToolResults))
		for _, result := range request.ToolResults {
			status := "ok"
			if result.IsError {
				status = "error"
			}
			parts = append(parts, fmt.Sprintf("%s (%s): %s", result.Name, status, truncate(result.Content, 200)))
		}
		response.Text = "tool results:\n" + strings.Join(parts, "\n")
		return response, nil
	}

	if name, ok := toolDirective(request.Input); ok {
		response.ToolCalls = []engine.ToolCall{{
			CallID:       "mock-call-1",
			Name:         name,
			RawArguments: "{}",
		}}
		return response, nil
	}

	response.Text = "mock response to: " + request.Input
	return response, nil
}

func toolDirective(input string) (string, bool) {
	const marker = "[tool:"
	start := strings.Index(input, marker)
	if start < 0 {
		return "", false
	}
	rest := input[start+len(marker):]
	end := strings.Index(rest, "]")
	if end <= 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
