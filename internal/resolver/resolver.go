// Package resolver turns input references into loaded document models. It
// routes by view type through a handler registry and by URI scheme through a
// source registry, and watches open local documents for changes.
package resolver

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dicklesworthstone/nbview/internal/document"
)

// Request carries everything a handler needs: the input, the raw bytes, and
// the identity of the widget the result is destined for, so type-specific
// handling can route per widget.
type Request struct {
	Input    document.InputRef
	WidgetID string
	Data     []byte
}

// HandlerFunc builds a document model for one view type.
type HandlerFunc func(ctx context.Context, req Request) (*document.Model, error)

// Source fetches raw document bytes for one URI scheme.
type Source interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Resolver is the document resolution pipeline.
type Resolver struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	sources  map[string]Source
}

// New creates a resolver with the built-in notebook and plain text handlers
// and a local file source. Callers add remote sources and custom view types
// on top.
func New() *Resolver {
	r := &Resolver{
		handlers: make(map[string]HandlerFunc),
		sources:  make(map[string]Source),
	}

	r.RegisterSource("file", FileSource{})
	r.Register(document.ViewTypeNotebook, func(_ context.Context, req Request) (*document.Model, error) {
		return document.Parse(req.Input.URI, req.Data)
	})
	r.Register(document.ViewTypePlainText, func(_ context.Context, req Request) (*document.Model, error) {
		return document.PlainText(req.Input.URI, req.Data), nil
	})

	return r
}

// Register installs or replaces the handler for a view type.
func (r *Resolver) Register(viewType string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[viewType] = fn
}

// Unregister removes the handler for a view type.
func (r *Resolver) Unregister(viewType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, viewType)
}

// RegisterSource installs or replaces the source for a URI scheme.
func (r *Resolver) RegisterSource(scheme string, src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[scheme] = src
}

// Resolve loads the document for an input. A nil model with nil error means
// no handler is registered for the input's view type; callers treat that as
// a user-recoverable condition. Cancellation surfaces as the context error.
func (r *Resolver) Resolve(ctx context.Context, input document.InputRef, widgetID string) (*document.Model, error) {
	r.mu.RLock()
	handler, hasHandler := r.handlers[input.ViewType]
	source, hasSource := r.sources[document.Scheme(input.URI)]
	r.mu.RUnlock()

	if !hasHandler {
		return nil, nil
	}
	if !hasSource {
		return nil, fmt.Errorf("no source for scheme %q", document.Scheme(input.URI))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := source.Fetch(ctx, input.URI)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", input.URI, err)
	}
	if err := ctx.Err(); err != nil {
		// Cancelled during fetch; the caller abandons silently.
		return nil, err
	}

	model, err := handler(ctx, Request{Input: input, WidgetID: widgetID, Data: data})
	if err != nil {
		return nil, err
	}
	return model, nil
}

// HasHandler reports whether a view type is registered.
func (r *Resolver) HasHandler(viewType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[viewType]
	return ok
}
