package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/nbview/internal/document"
)

const minimalNotebook = `{
  "nbformat": 4,
  "nbformat_minor": 5,
  "metadata": {"language_info": {"name": "python"}},
  "cells": [
    {"cell_type": "code", "source": ["print(1)\n"], "execution_count": 1, "outputs": []},
    {"cell_type": "markdown", "source": "# Title"}
  ]
}`

func writeNotebook(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(minimalNotebook), 0o644); err != nil {
		t.Fatalf("write notebook: %v", err)
	}
	return path
}

func TestResolve_NotebookFromFile(t *testing.T) {
	path := writeNotebook(t, "demo.ipynb")
	r := New()

	input := document.NewInputRef("file://"+path, "")
	model, err := r.Resolve(context.Background(), input, "widget-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if model == nil {
		t.Fatal("Resolve() returned nil model")
	}
	if model.ViewType != document.ViewTypeNotebook {
		t.Fatalf("ViewType = %q", model.ViewType)
	}
	if len(model.Cells) != 2 {
		t.Fatalf("cells = %d, want 2", len(model.Cells))
	}
	if model.Language != "python" {
		t.Fatalf("Language = %q", model.Language)
	}
}

func TestResolve_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello\nworld\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	r := New()
	input := document.InputRef{URI: "file://" + path, ViewType: document.ViewTypePlainText}
	model, err := r.Resolve(context.Background(), input, "widget-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if model == nil || model.ViewType != document.ViewTypePlainText {
		t.Fatalf("model = %+v", model)
	}
}

func TestResolve_NoHandlerReturnsNilNil(t *testing.T) {
	path := writeNotebook(t, "demo.ipynb")
	r := New()

	input := document.InputRef{URI: "file://" + path, ViewType: "hexdump"}
	model, err := r.Resolve(context.Background(), input, "widget-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil for missing handler", err)
	}
	if model != nil {
		t.Fatalf("model = %+v, want nil", model)
	}
}

func TestResolve_NoSourceForScheme(t *testing.T) {
	r := New()
	input := document.InputRef{URI: "gopher://host/doc.ipynb", ViewType: document.ViewTypeNotebook}

	_, err := r.Resolve(context.Background(), input, "widget-1")
	if err == nil {
		t.Fatal("Resolve() should fail for unknown scheme")
	}
	if !strings.Contains(err.Error(), `no source for scheme "gopher"`) {
		t.Fatalf("error = %v", err)
	}
}

func TestResolve_CancelledContext(t *testing.T) {
	path := writeNotebook(t, "demo.ipynb")
	r := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := document.NewInputRef("file://"+path, "")
	_, err := r.Resolve(ctx, input, "widget-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve() error = %v, want context.Canceled", err)
	}
}

func TestResolve_CancellationDuringFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	r := New()
	r.RegisterSource("slow", sourceFunc(func(ctx context.Context, uri string) ([]byte, error) {
		cancel()
		return []byte(minimalNotebook), nil
	}))

	input := document.InputRef{URI: "slow://host/doc.ipynb", ViewType: document.ViewTypeNotebook}
	_, err := r.Resolve(ctx, input, "widget-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve() error = %v, want context.Canceled", err)
	}
}

func TestResolve_FetchErrorWrapped(t *testing.T) {
	fetchErr := errors.New("connection reset")
	r := New()
	r.RegisterSource("flaky", sourceFunc(func(context.Context, string) ([]byte, error) {
		return nil, fetchErr
	}))

	input := document.InputRef{URI: "flaky://host/doc.ipynb", ViewType: document.ViewTypeNotebook}
	_, err := r.Resolve(context.Background(), input, "widget-1")
	if !errors.Is(err, fetchErr) {
		t.Fatalf("Resolve() error = %v, want wrapped fetch error", err)
	}
}

func TestResolve_HandlerReceivesWidgetID(t *testing.T) {
	path := writeNotebook(t, "demo.ipynb")

	var gotWidget string
	r := New()
	r.Register("probe", func(_ context.Context, req Request) (*document.Model, error) {
		gotWidget = req.WidgetID
		return document.PlainText(req.Input.URI, req.Data), nil
	})

	input := document.InputRef{URI: "file://" + path, ViewType: "probe"}
	if _, err := r.Resolve(context.Background(), input, "widget-42"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if gotWidget != "widget-42" {
		t.Fatalf("WidgetID = %q, want widget-42", gotWidget)
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	r := New()

	if !r.HasHandler(document.ViewTypeNotebook) {
		t.Fatal("notebook handler should be built in")
	}
	if !r.HasHandler(document.ViewTypePlainText) {
		t.Fatal("plain text handler should be built in")
	}
	if r.HasHandler("hexdump") {
		t.Fatal("unknown view type should have no handler")
	}

	r.Register("hexdump", func(_ context.Context, req Request) (*document.Model, error) {
		return document.PlainText(req.Input.URI, req.Data), nil
	})
	if !r.HasHandler("hexdump") {
		t.Fatal("registered handler should be visible")
	}

	r.Unregister("hexdump")
	if r.HasHandler("hexdump") {
		t.Fatal("unregistered handler should be gone")
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	r := New()
	input := document.NewInputRef("file:///does/not/exist.ipynb", "")

	_, err := r.Resolve(context.Background(), input, "widget-1")
	if err == nil {
		t.Fatal("Resolve() should fail for a missing file")
	}
}

func TestFileSource_RejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	r := New()

	input := document.InputRef{URI: "file://" + dir, ViewType: document.ViewTypeNotebook}
	_, err := r.Resolve(context.Background(), input, "widget-1")
	if err == nil {
		t.Fatal("Resolve() should refuse a directory")
	}
}

// sourceFunc adapts a function to the Source interface for tests.
type sourceFunc func(ctx context.Context, uri string) ([]byte, error)

func (f sourceFunc) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return f(ctx, uri)
}
