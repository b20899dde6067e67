package command

import (
	"context"
	"encoding/json"
	"sync"
)

// Command types understood by the agent.
const (
	TypeDeleteAlert = "DELETE_ALERT"
	TypeCustom      = "CUSTOM"
)

// Result statuses reported back to the backend.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type Handler interface {
	// Handle executes the command and returns a short message for the result
	// report. A non-nil error marks the command failed.
	Handle(ctx context.Context, payload json.RawMessage) (string, error)
}

type HandlerFunc func(ctx context.Context, payload json.RawMessage) (string, error)

func (f HandlerFunc) Handle(ctx context.Context, payload json.RawMessage) (string, error) {
	return f(ctx, payload)
}

// Registry maps command type to handler
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry { return &Registry{handlers: map[string]Handler{}} }

func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}
