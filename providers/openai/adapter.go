// Package openai adapts the engine's provider boundary to the OpenAI
// Responses API. Conversation continuity rides on previous_response_id, so
// the adapter never replays transcripts; each round sends only the new input
// or the latest batch of tool outputs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/promptfile/promptfile/engine"
)

const (
	defaultBaseURL  = "https://api.openai.com/v1"
	defaultEndpoint = "/responses"
	defaultTimeout  = 120 * time.Second

	maxResponseBody = 8 << 20
)

type Config struct {
	APIKey  string
	BaseURL string
	// RequestsPerSecond throttles outbound calls; <= 0 disables throttling.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

type Adapter struct {
	apiKey      string
	endpointURL string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

var _ engine.Provider = (*Adapter)(nil)

func New(cfg Config) (*Adapter, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("new provider adapter: api key is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	endpointURL := strings.TrimRight(baseURL, "/") + defaultEndpoint

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Adapter{
		apiKey:      apiKey,
		endpointURL: endpointURL,
		httpClient:  httpClient,
		limiter:     limiter,
	}, nil
}

func (a *Adapter) Send(ctx context.Context, request engine.Request) (engine.Response, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return engine.Response{}, err
		}
	}

	payload, err := buildRequest(request)
	if err != nil {
		return engine.Response{}, fmt.Errorf("provider request: %w", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return engine.Response{}, fmt.Errorf("provider request encode: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpointURL, bytes.NewReader(encoded))
	if err != nil {
		return engine.Response{}, fmt.Errorf("provider request build: %w", err)
	}
	httpRequest.Header.Set("Authorization", "Bearer "+a.apiKey)
	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, err := a.httpClient.Do(httpRequest)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return engine.Response{}, ctxErr
		}
		return engine.Response{}, &engine.TransportError{Retryable: true, Message: err.Error()}
	}
	defer httpResponse.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(httpResponse.Body, maxResponseBody))
	if err != nil {
		return engine.Response{}, &engine.TransportError{Retryable: true, Message: "response read: " + err.Error()}
	}

	if httpResponse.StatusCode < http.StatusOK || httpResponse.StatusCode >= http.StatusMultipleChoices {
		return engine.Response{}, &engine.TransportError{
			Status:    httpResponse.StatusCode,
			Retryable: retryableStatus(httpResponse.StatusCode),
			Message:   errorMessage(bodyBytes),
		}
	}

	var parsed apiResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return engine.Response{}, fmt.Errorf("provider response decode: %w", err)
	}
	return toEngineResponse(parsed)
}

// retryableStatus classifies HTTP statuses: request timeouts, rate limits,
// and upstream faults are transient; everything else is a caller problem.
func retryableStatus(status int) bool {
	switch {
	case status == http.StatusRequestTimeout:
		return true
	case status == http.StatusTooManyRequests:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}

type apiRequest struct {
	Model              string     `json:"model"`
	Instructions       string     `json:"instructions,omitempty"`
	Input              []apiInput `json:"input"`
	Tools              []apiTool  `json:"tools,omitempty"`
	PreviousResponseID string     `json:"previous_response_id,omitempty"`
}

type apiTool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// apiInput is one input item: a user message on the opening round, or a
// function_call_output on a tool-result round.
type apiInput struct {
	Type    string       `json:"type,omitempty"`
	Role    string       `json:"role,omitempty"`
	Content []apiContent `json:"content,omitempty"`
	CallID  string       `json:"call_id,omitempty"`
	Output  string       `json:"output,omitempty"`
}

type apiContent struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	FileID string `json:"file_id,omitempty"`
}

type apiResponse struct {
	ID     string          `json:"id"`
	Output []apiOutputItem `json:"output"`
	Error  *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

type apiOutputItem struct {
	Type      string             `json:"type"`
	CallID    string             `json:"call_id,omitempty"`
	Name      string             `json:"name,omitempty"`
	Arguments string             `json:"arguments,omitempty"`
	Content   []apiOutputContent `json:"content,omitempty"`
}

type apiOutputContent struct {
	Type        string          `json:"type"`
	Text        string          `json:"text,omitempty"`
	Annotations []apiAnnotation `json:"annotations,omitempty"`
}

type apiAnnotation struct {
	Type        string `json:"type"`
	ContainerID string `json:"container_id,omitempty"`
	FileID      string `json:"file_id,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

func buildRequest(request engine.Request) (apiRequest, error) {
	if request.Input != "" && len(request.ToolResults) > 0 {
		return apiRequest{}, fmt.Errorf("request carries both fresh input and tool results")
	}

	tools := make([]apiTool, len(request.Tools))
	for i, spec := range request.Tools {
		tools[i] = apiTool{
			Type:        spec.Type,
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.Parameters,
		}
	}

	var input []apiInput
	switch {
	case len(request.ToolResults) > 0:
		input = make([]apiInput, len(request.ToolResults))
		for i, result := range request.ToolResults {
			input[i] = apiInput{
				Type:   "function_call_output",
				CallID: result.CallID,
				Output: result.Content,
			}
		}
	default:
		content := []apiContent{{Type: "input_text", Text: request.Input}}
		for _, fileID := range request.FileIDs {
			content = append(content, apiContent{Type: "input_file", FileID: fileID})
		}
		input = []apiInput{{Role: "user", Content: content}}
	}

	return apiRequest{
		Model:              wireModel(request.Model),
		Instructions:       request.Instructions,
		Input:              input,
		Tools:              tools,
		PreviousResponseID: request.PreviousResponseID,
	}, nil
}

// wireModel strips the provider prefix from a provider/model identifier.
func wireModel(model string) string {
	if _, name, found := strings.Cut(model, "/"); found {
		return name
	}
	return model
}

func toEngineResponse(parsed apiResponse) (engine.Response, error) {
	if parsed.Error != nil {
		return engine.Response{}, fmt.Errorf("provider reported error: %s", parsed.Error.Message)
	}
	if parsed.ID == "" {
		return engine.Response{}, fmt.Errorf("provider response decode: missing response id")
	}

	response := engine.Response{ID: parsed.ID}
	var textParts []string
	for _, item := range parsed.Output {
		switch item.Type {
		case "function_call":
			response.ToolCalls = append(response.ToolCalls, engine.ToolCall{
				CallID:       item.CallID,
				Name:         item.Name,
				RawArguments: item.Arguments,
			})
		case "message":
			for _, content := range item.Content {
				if content.Type == "output_text" && content.Text != "" {
					textParts = append(textParts, content.Text)
				}
				for _, annotation := range content.Annotations {
					if annotation.Type != "container_file_citation" {
						continue
					}
					response.GeneratedFiles = append(response.GeneratedFiles, engine.GeneratedFile{
						FileID:      annotation.FileID,
						ContainerID: annotation.ContainerID,
						Filename:    annotation.Filename,
					})
				}
			}
		}
	}
	response.Text = strings.Join(textParts, "\n")
	return response, nil
}

func errorMessage(body []byte) string {
	var envelope struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	message := strings.TrimSpace(string(body))
	if len(message) > 512 {
		message = message[:512]
	}
	return message
}
