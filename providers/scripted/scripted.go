// Package scripted provides a deterministic provider for tests and for
// running the service without credentials (mock mode).
package scripted

import (
	"context"
	"fmt"
	"sync"

	"github.com/promptfile/promptfile/engine"
)

// Step configures one provider turn in a scripted sequence.
type Step struct {
	Response engine.Response
	Err      error
}

// Provider replays a fixed sequence of steps and records every request it
// receives, in order.
type Provider struct {
	mu       sync.Mutex
	index    int
	steps    []Step
	requests []engine.Request
}

var _ engine.Provider = (*Provider)(nil)

func New(steps ...Step) *Provider {
	cloned := make([]Step, len(steps))
	copy(cloned, steps)
	return &Provider{steps: cloned}
}

func (p *Provider) Send(ctx context.Context, request engine.Request) (engine.Response, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return engine.Response{}, ctxErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, request)
	if p.index >= len(p.steps) {
		return engine.Response{}, fmt.Errorf("script exhausted at round %d", p.index+1)
	}
	current := p.steps[p.index]
	p.index++
	if current.Err != nil {
		return engine.Response{}, current.Err
	}
	response := current.Response
	if response.ID == "" {
		response.ID = fmt.Sprintf("resp-%d", p.index)
	}
	return response, nil
}

// Requests returns a snapshot of every request received so far.
func (p *Provider) Requests() []engine.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]engine.Request, len(p.requests))
	copy(out, p.requests)
	return out
}

// Calls reports how many times Send was invoked.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}
