package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/promptfile/promptfile/attachments"
	"github.com/promptfile/promptfile/convstore"
	"github.com/promptfile/promptfile/definition"
	"github.com/promptfile/promptfile/tooling/registry"
)

// RunInput selects a prompt and supplies caller content for one interaction.
type RunInput struct {
	PromptName string
	Content    string
	// ThreadID continues a prior exchange when known to the state store;
	// empty means a fresh thread with a generated identifier.
	ThreadID string
	// FileIDs reference previously uploaded files.
	FileIDs []string
}

// RunResult is the outcome of a completed run.
type RunResult struct {
	Text        string
	ThreadID    string
	ResponseID  string
	Attachments []attachments.Attachment
	// ToolRounds counts how many tool-invocation rounds the run performed.
	ToolRounds int
}

// Run executes one full interaction. On success it commits the thread's
// continuity state; on any fatal condition it returns a structured *Error
// and commits nothing.
func (e *Engine) Run(ctx context.Context, input RunInput) (RunResult, error) {
	state := &runState{}
	if err := state.transition(StatusBuilding); err != nil {
		return RunResult{}, newError(KindInvalidInput, err, "start run")
	}

	if strings.TrimSpace(input.PromptName) == "" {
		return e.fail(ctx, state, newError(KindInvalidInput, nil, "prompt name is empty"))
	}

	def, err := e.definitions.Load(input.PromptName)
	if err != nil {
		var parseErr *definition.ParseError
		switch {
		case errors.Is(err, definition.ErrNotFound):
			return e.fail(ctx, state, newError(KindUnknownPrompt, err, "prompt %q", input.PromptName))
		case errors.As(err, &parseErr):
			return e.fail(ctx, state, newError(KindDefinitionParse, err, "prompt %q", input.PromptName))
		default:
			return e.fail(ctx, state, newError(KindUnknownPrompt, err, "load prompt %q", input.PromptName))
		}
	}

	descriptors, err := e.tools.Resolve(def.Tools)
	if err != nil {
		return e.fail(ctx, state, newError(KindUnknownTool, err, "prompt %q declares unregistered tools", input.PromptName))
	}
	descriptorsByName := make(map[string]registry.Descriptor, len(descriptors))
	for _, descriptor := range descriptors {
		descriptorsByName[descriptor.Name] = descriptor
	}

	threadID := input.ThreadID
	previousResponseID := ""
	if threadID == "" {
		threadID = uuid.NewString()
	} else {
		stored, err := e.threads.Get(ctx, threadID)
		switch {
		case err == nil:
			previousResponseID = stored.LastResponseID
		case errors.Is(err, convstore.ErrThreadNotFound):
			// Caller-generated thread id, first run: proceed without a
			// continuation reference.
		default:
			return e.fail(ctx, state, newError(KindStateCommit, err, "read thread %q", threadID))
		}
	}
	state.threadID = threadID
	state.promptName = def.Name

	vars := map[string]string{"content": input.Content}
	if fileContents := e.collectFileContents(ctx, input.FileIDs); fileContents != "" {
		vars["file_contents"] = fileContents
	}
	prompt := def.Template.Render(vars)

	instructions := def.Instructions
	if def.Response != "" {
		instructions += "\n\n" + def.Response
	}
	model := def.Model
	if model == "" {
		model = e.defaultModel
	}

	wireTools := toolSpecs(descriptors)
	e.publish(ctx, Event{ThreadID: threadID, PromptName: def.Name, Type: EventRunStarted})

	request := Request{
		Instructions:       instructions,
		Model:              model,
		Tools:              wireTools,
		Input:              prompt,
		PreviousResponseID: previousResponseID,
		FileIDs:            input.FileIDs,
	}

	toolRounds := 0
	for {
		if err := state.transition(StatusAwaitingProvider); err != nil {
			return e.fail(ctx, state, newError(KindProviderFailure, err, "enter provider round"))
		}

		response, err := e.provider.Send(ctx, request)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return e.fail(ctx, state, newError(KindCancelled, err, "run abandoned"))
			}
			return e.fail(ctx, state, newError(KindProviderFailure, err, "provider round %d", toolRounds))
		}

		if len(response.ToolCalls) == 0 {
			return e.complete(ctx, state, def, response, toolRounds)
		}

		toolRounds++
		state.round = toolRounds
		if toolRounds > e.maxToolRounds {
			return e.fail(ctx, state, newError(
				KindToolLoopExceeded, nil,
				"provider requested tools beyond the %d round cap", e.maxToolRounds,
			))
		}

		if err := state.transition(StatusExecutingTools); err != nil {
			return e.fail(ctx, state, newError(KindToolExecution, err, "enter tool round %d", toolRounds))
		}

		results, err := e.executeBatch(ctx, state, response.ToolCalls, descriptorsByName)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return e.fail(ctx, state, newError(KindCancelled, err, "run abandoned"))
			}
			return e.fail(ctx, state, err)
		}

		request = Request{
			Instructions:       instructions,
			Model:              model,
			Tools:              wireTools,
			ToolResults:        results,
			PreviousResponseID: response.ID,
		}
	}
}

func (e *Engine) complete(
	ctx context.Context,
	state *runState,
	def *definition.PromptDefinition,
	response Response,
	toolRounds int,
) (RunResult, error) {
	// An abandoned run must not commit partial state even when the provider
	// reply raced the cancellation.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return e.fail(ctx, state, newError(KindCancelled, ctxErr, "run abandoned"))
	}

	if err := state.transition(StatusCompleted); err != nil {
		return e.fail(ctx, state, newError(KindProviderFailure, err, "complete run"))
	}
	state.responseID = response.ID

	if err := e.threads.Put(ctx, convstore.State{
		ThreadID:       state.threadID,
		LastResponseID: response.ID,
		PromptName:     def.Name,
		UpdatedAt:      time.Now().UTC(),
	}); err != nil {
		return RunResult{}, newError(KindStateCommit, err, "commit thread %q", state.threadID)
	}

	generated := e.recordGeneratedFiles(response.GeneratedFiles)
	e.publish(ctx, Event{
		ThreadID:   state.threadID,
		PromptName: def.Name,
		Round:      toolRounds,
		Type:       EventRunCompleted,
	})
	e.logger.Debug("run completed",
		"prompt", def.Name,
		"thread", state.threadID,
		"response", response.ID,
		"tool_rounds", toolRounds,
	)

	return RunResult{
		Text:        response.Text,
		ThreadID:    state.threadID,
		ResponseID:  response.ID,
		Attachments: generated,
		ToolRounds:  toolRounds,
	}, nil
}

func (e *Engine) fail(ctx context.Context, state *runState, runErr error) (RunResult, error) {
	_ = state.transition(StatusFailed)
	if state.threadID != "" {
		e.publish(ctx, Event{
			ThreadID:    state.threadID,
			PromptName:  state.promptName,
			Round:       state.round,
			Type:        EventRunFailed,
			Description: runErr.Error(),
		})
	}
	e.logger.Warn("run failed",
		"prompt", state.promptName,
		"thread", state.threadID,
		"round", state.round,
		"error", runErr,
	)
	return RunResult{}, runErr
}

// executeBatch dispatches every call of one provider round without
// sequential blocking and resumes only once each has produced a result or
// error. Result order matches request order even though completion order
// may differ.
func (e *Engine) executeBatch(
	ctx context.Context,
	state *runState,
	calls []ToolCall,
	descriptors map[string]registry.Descriptor,
) ([]ToolResult, error) {
	results := make([]ToolResult, len(calls))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, call := range calls {
		group.Go(func() error {
			result, err := e.executeCall(groupCtx, call, descriptors)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	for i := range results {
		e.publish(ctx, Event{
			ThreadID:   state.threadID,
			PromptName: state.promptName,
			Round:      state.round,
			Type:       EventToolResult,
			ToolResult: &results[i],
		})
	}
	return results, nil
}

// executeCall validates and invokes one tool call. Argument problems become
// the call's error result so the model can adapt; an invoker fault is fatal
// for the run.
func (e *Engine) executeCall(
	ctx context.Context,
	call ToolCall,
	descriptors map[string]registry.Descriptor,
) (result ToolResult, err error) {
	descriptor, declared := descriptors[call.Name]
	if !declared {
		return callErrorResult(call, fmt.Sprintf("tool %q is not declared by this prompt", call.Name)), nil
	}
	if descriptor.Kind == registry.KindBuiltin {
		return callErrorResult(call, fmt.Sprintf("tool %q executes on the provider, not locally", call.Name)), nil
	}

	arguments := map[string]any{}
	if strings.TrimSpace(call.RawArguments) != "" {
		if err := json.Unmarshal([]byte(call.RawArguments), &arguments); err != nil {
			return callErrorResult(call, fmt.Sprintf("invalid arguments for %q: %v", call.Name, err)), nil
		}
	}
	if err := descriptor.Schema.Validate(arguments); err != nil {
		return callErrorResult(call, fmt.Sprintf("invalid arguments for %q: %v", call.Name, err)), nil
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			err = newError(KindToolExecution, fmt.Errorf("panic: %v", recovered), "tool %q", call.Name)
		}
	}()

	content, invokeErr := descriptor.Invoke(ctx, arguments)
	if invokeErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ToolResult{}, ctxErr
		}
		return ToolResult{}, newError(KindToolExecution, invokeErr, "tool %q", call.Name)
	}

	return ToolResult{CallID: call.CallID, Name: call.Name, Content: content}, nil
}

func callErrorResult(call ToolCall, message string) ToolResult {
	return ToolResult{CallID: call.CallID, Name: call.Name, Content: message, IsError: true}
}

func toolSpecs(descriptors []registry.Descriptor) []ToolSpec {
	specs := make([]ToolSpec, 0, len(descriptors))
	for _, descriptor := range descriptors {
		if descriptor.Kind == registry.KindBuiltin {
			specs = append(specs, ToolSpec{Type: descriptor.WireType})
			continue
		}
		specs = append(specs, ToolSpec{
			Type:        "function",
			Name:        descriptor.Name,
			Description: descriptor.Description,
			Parameters:  descriptor.Schema.WireSchema(),
		})
	}
	return specs
}

// collectFileContents extracts readable text from the caller's uploads to
// feed the file_contents template variable.
func (e *Engine) collectFileContents(ctx context.Context, fileIDs []string) string {
	if e.files == nil || len(fileIDs) == 0 {
		return ""
	}
	var parts []string
	for _, id := range fileIDs {
		file, err := e.files.Get(ctx, id)
		if err != nil {
			e.logger.Warn("skipping unreadable upload", "file_id", id, "error", err)
			continue
		}
		if !isTextMime(file.MimeType) {
			continue
		}
		parts = append(parts, fmt.Sprintf("File: %s\n%s", file.Filename, file.Content))
	}
	return strings.Join(parts, "\n\n")
}

func isTextMime(mimeType string) bool {
	if mimeType == "" {
		return true
	}
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/javascript", "application/x-yaml":
		return true
	default:
		return false
	}
}

func (e *Engine) recordGeneratedFiles(files []GeneratedFile) []attachments.Attachment {
	if len(files) == 0 {
		return nil
	}
	recorded := make([]attachments.Attachment, 0, len(files))
	for _, file := range files {
		attachment, err := e.tracker.Record(attachments.Attachment{
			FileID:      file.FileID,
			ContainerID: file.ContainerID,
			Origin:      attachments.OriginProviderGenerated,
			ContentRef:  file.FileID,
			Filename:    file.Filename,
			MimeType:    file.MimeType,
		})
		if err != nil {
			e.logger.Warn("skipping malformed generated file reference", "error", err)
			continue
		}
		recorded = append(recorded, attachment)
	}
	return recorded
}

func (e *Engine) publish(ctx context.Context, event Event) {
	if err := e.events.Publish(ctx, event); err != nil {
		e.logger.Debug("event publish failed", "type", event.Type, "error", err)
	}
}
