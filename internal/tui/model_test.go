package tui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/nbview/internal/document"
	"github.com/Dicklesworthstone/nbview/internal/pane"
	"github.com/Dicklesworthstone/nbview/internal/resolver"
	"github.com/Dicklesworthstone/nbview/internal/viewstate"
	"github.com/Dicklesworthstone/nbview/internal/widget"
	"github.com/Dicklesworthstone/nbview/internal/widgetpool"
)

const testNotebook = `{
  "nbformat": 4,
  "nbformat_minor": 5,
  "metadata": {"language_info": {"name": "python"}},
  "cells": [
    {"cell_type": "code", "source": "x = 1\n", "execution_count": 1, "outputs": []}
  ]
}`

func writeTestNotebook(t *testing.T, dir, name string) document.InputRef {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(testNotebook), 0o644); err != nil {
		t.Fatalf("write notebook: %v", err)
	}
	return document.NewInputRef("file://"+path, "")
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	pool := widgetpool.New(func(viewType string) (pane.Widget, error) {
		return widget.NewNotebook(viewType), nil
	})
	t.Cleanup(pool.Close)
	return Deps{
		Pool:     pool,
		Resolver: resolver.New(),
		Store:    viewstate.NewStore(),
	}
}

// runCmd executes a command synchronously and feeds its message back.
func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	model, _ := m.Update(msg)
	return model.(Model)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	a := writeTestNotebook(t, dir, "a.ipynb")
	b := writeTestNotebook(t, dir, "b.ipynb")

	m := New(testDeps(t), []document.InputRef{a, b})

	if len(m.groups) != 2 {
		t.Errorf("expected 2 groups, got %d", len(m.groups))
	}
	if len(m.groups[0].tabs) != 2 {
		t.Errorf("expected 2 tabs in first group, got %d", len(m.groups[0].tabs))
	}
	if len(m.groups[1].tabs) != 0 {
		t.Errorf("expected empty second group, got %d tabs", len(m.groups[1].tabs))
	}
	if m.groups[0].active != 0 {
		t.Errorf("expected first tab active, got %d", m.groups[0].active)
	}
	if m.state != stateDocs {
		t.Errorf("expected docs state, got %d", m.state)
	}
}

func TestNewWithoutInputs(t *testing.T) {
	m := New(testDeps(t), nil)
	if m.groups[0].active != -1 {
		t.Errorf("expected no active tab, got %d", m.groups[0].active)
	}
	if _, ok := m.groups[0].activeInput(); ok {
		t.Error("expected no active input")
	}
}

func TestModelUpdateWindowSize(t *testing.T) {
	m := New(testDeps(t), nil)

	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
	updated := model.(Model)
	if updated.width != 100 || updated.height != 50 {
		t.Errorf("expected dimensions 100x50, got %dx%d", updated.width, updated.height)
	}
}

func TestOpenDocument(t *testing.T) {
	dir := t.TempDir()
	input := writeTestNotebook(t, dir, "a.ipynb")

	m := New(testDeps(t), []document.InputRef{input})
	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = model.(Model)

	m = runCmd(t, m, m.assignCmd(m.groups[0], input))

	ctrl := m.groups[0].controller
	if ctrl.State() != pane.StateAttached {
		t.Fatalf("controller state = %v, want attached", ctrl.State())
	}
	current, ok := ctrl.CurrentInput()
	if !ok || !current.Matches(input) {
		t.Fatalf("CurrentInput() = %v, %v", current, ok)
	}
	if m.statusMsg == "" || m.statusIsErr {
		t.Fatalf("status = %q (err=%v)", m.statusMsg, m.statusIsErr)
	}
}

func TestAssignDoneError(t *testing.T) {
	m := New(testDeps(t), nil)

	model, _ := m.Update(assignDoneMsg{
		groupID: 0,
		input:   document.InputRef{URI: "file:///x.ipynb", ViewType: "notebook"},
		err:     errors.New("boom"),
	})
	updated := model.(Model)
	if !updated.statusIsErr || updated.statusMsg == "" {
		t.Errorf("expected error status, got %q (err=%v)", updated.statusMsg, updated.statusIsErr)
	}
}

func TestTabSwitchHidesThenAssigns(t *testing.T) {
	dir := t.TempDir()
	a := writeTestNotebook(t, dir, "a.ipynb")
	b := writeTestNotebook(t, dir, "b.ipynb")

	m := New(testDeps(t), []document.InputRef{a, b})
	m = runCmd(t, m, m.assignCmd(m.groups[0], a))

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = model.(Model)
	if m.groups[0].active != 1 {
		t.Fatalf("active tab = %d, want 1", m.groups[0].active)
	}
	m = runCmd(t, m, cmd)

	current, ok := m.groups[0].controller.CurrentInput()
	if !ok || !current.Matches(b) {
		t.Fatalf("CurrentInput() = %v, want b", current)
	}
}

func TestTabSwitchSavesViewState(t *testing.T) {
	dir := t.TempDir()
	a := writeTestNotebook(t, dir, "a.ipynb")
	b := writeTestNotebook(t, dir, "b.ipynb")

	deps := testDeps(t)
	m := New(deps, []document.InputRef{a, b})
	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 8})
	m = model.(Model)
	m = runCmd(t, m, m.assignCmd(m.groups[0], a))

	if w := m.groups[0].controller.Widget(); w != nil {
		if n, ok := w.(NotebookControls); ok {
			n.ScrollBy(1)
		}
	}

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = runCmd(t, model.(Model), cmd)

	st, ok := deps.Store.Load(0, a.URI)
	if !ok {
		t.Fatal("a's view state should be saved on switch")
	}
	if st.ScrollOffset == 0 {
		t.Fatalf("saved state = %+v, want scrolled", st)
	}
}

func TestCloseLastTabClearsPane(t *testing.T) {
	dir := t.TempDir()
	a := writeTestNotebook(t, dir, "a.ipynb")

	m := New(testDeps(t), []document.InputRef{a})
	m = runCmd(t, m, m.assignCmd(m.groups[0], a))

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}})
	m = model.(Model)
	if cmd != nil {
		t.Fatal("closing the last tab should not start another assign")
	}
	if len(m.groups[0].tabs) != 0 {
		t.Fatalf("tabs = %d, want 0", len(m.groups[0].tabs))
	}
	if m.groups[0].controller.State() != pane.StateEmpty {
		t.Fatalf("controller state = %v, want empty", m.groups[0].controller.State())
	}
}

func TestMoveTabToOtherGroup(t *testing.T) {
	dir := t.TempDir()
	a := writeTestNotebook(t, dir, "a.ipynb")
	b := writeTestNotebook(t, dir, "b.ipynb")

	m := New(testDeps(t), []document.InputRef{a, b})
	m = runCmd(t, m, m.assignCmd(m.groups[0], a))

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	m = model.(Model)
	if len(m.groups[1].tabs) != 1 || !m.groups[1].tabs[0].Matches(a) {
		t.Fatalf("group 1 tabs = %v, want [a]", m.groups[1].tabs)
	}
	if len(m.groups[0].tabs) != 1 || !m.groups[0].tabs[0].Matches(b) {
		t.Fatalf("group 0 tabs = %v, want [b]", m.groups[0].tabs)
	}
	if m.activeGroup != 1 {
		t.Fatalf("activeGroup = %d, want 1", m.activeGroup)
	}
	if cmd == nil {
		t.Fatal("move should start assigns for both groups")
	}
}

func TestHelpToggle(t *testing.T) {
	m := New(testDeps(t), nil)

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = model.(Model)
	if m.state != stateHelp {
		t.Fatalf("state = %d, want help", m.state)
	}

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = model.(Model)
	if m.state != stateDocs {
		t.Fatalf("state = %d, want docs", m.state)
	}
}

func TestPromptFlowOpenAsText(t *testing.T) {
	dir := t.TempDir()
	input := writeTestNotebook(t, dir, "a.ipynb")
	odd := document.InputRef{URI: input.URI, ViewType: "hexdump"}

	m := New(testDeps(t), []document.InputRef{odd})
	m = runCmd(t, m, m.assignCmd(m.groups[0], odd))

	if m.state != statePrompt {
		t.Fatalf("state = %d, want prompt after unhandled type", m.state)
	}
	if !m.promptInput.Matches(odd) {
		t.Fatalf("promptInput = %v", m.promptInput)
	}

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	m = model.(Model)
	if m.state != stateDocs {
		t.Fatalf("state = %d, want docs", m.state)
	}
	if got := m.groups[0].tabs[0].ViewType; got != document.ViewTypePlainText {
		t.Fatalf("tab view type = %q, want plaintext", got)
	}

	m = runCmd(t, m, cmd)
	if m.groups[0].controller.State() != pane.StateAttached {
		t.Fatalf("controller state = %v, want attached as plain text", m.groups[0].controller.State())
	}
}

func TestPromptFlowDecline(t *testing.T) {
	dir := t.TempDir()
	input := writeTestNotebook(t, dir, "a.ipynb")
	odd := document.InputRef{URI: input.URI, ViewType: "hexdump"}

	m := New(testDeps(t), []document.InputRef{odd})
	m = runCmd(t, m, m.assignCmd(m.groups[0], odd))

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m = model.(Model)
	if m.state != stateDocs {
		t.Fatalf("state = %d, want docs", m.state)
	}
	if len(m.groups[0].tabs) != 0 {
		t.Fatalf("tabs = %v, want declined tab removed", m.groups[0].tabs)
	}
}

func TestDocumentDeletedForgetsState(t *testing.T) {
	deps := testDeps(t)
	deps.Store.Save(0, "file:///gone.ipynb", viewstate.State{ScrollOffset: 5})

	m := New(deps, nil)
	m.handleDocumentChange(resolver.Change{Type: resolver.DocumentDeleted, URI: "file:///gone.ipynb"})

	if _, ok := deps.Store.Load(0, "file:///gone.ipynb"); ok {
		t.Fatal("deleted document's state should be forgotten")
	}
}

func TestDocumentModifiedReloadsActiveTab(t *testing.T) {
	dir := t.TempDir()
	a := writeTestNotebook(t, dir, "a.ipynb")

	m := New(testDeps(t), []document.InputRef{a})
	m = runCmd(t, m, m.assignCmd(m.groups[0], a))

	cmd := m.handleDocumentChange(resolver.Change{Type: resolver.DocumentModified, URI: a.URI})
	if cmd == nil {
		t.Fatal("change to the active tab should trigger a reload")
	}

	m = runCmd(t, m, cmd)
	if m.groups[0].controller.State() != pane.StateAttached {
		t.Fatalf("controller state = %v after reload", m.groups[0].controller.State())
	}
}

func TestDocumentModifiedIgnoresBackgroundTab(t *testing.T) {
	dir := t.TempDir()
	a := writeTestNotebook(t, dir, "a.ipynb")
	b := writeTestNotebook(t, dir, "b.ipynb")

	m := New(testDeps(t), []document.InputRef{a, b})
	m = runCmd(t, m, m.assignCmd(m.groups[0], a))

	if cmd := m.handleDocumentChange(resolver.Change{Type: resolver.DocumentModified, URI: b.URI}); cmd != nil {
		t.Fatal("background tab change should not trigger a reload")
	}
}

func TestViewBeforeFirstResize(t *testing.T) {
	m := New(testDeps(t), nil)
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View() = %q", got)
	}
}

func TestFallbackPrompterTake(t *testing.T) {
	p := &fallbackPrompter{}
	if _, ok := p.take(); ok {
		t.Fatal("empty prompter should have nothing to take")
	}

	a := document.InputRef{URI: "file:///a.ipynb", ViewType: "hexdump"}
	b := document.InputRef{URI: "file:///b.ipynb", ViewType: "hexdump"}
	p.OfferOpenAsText(a)
	p.OfferOpenAsText(b)

	got, ok := p.take()
	if !ok || !got.Matches(a) {
		t.Fatalf("take() = %v, %v, want a", got, ok)
	}
	got, ok = p.take()
	if !ok || !got.Matches(b) {
		t.Fatalf("take() = %v, %v, want b", got, ok)
	}
	if _, ok := p.take(); ok {
		t.Fatal("drained prompter should be empty")
	}
}

func TestEditorGroupTabs(t *testing.T) {
	g := &editorGroup{id: 0, active: -1}
	a := document.InputRef{URI: "file:///a.ipynb", ViewType: "notebook"}
	b := document.InputRef{URI: "file:///b.ipynb", ViewType: "notebook"}

	if idx := g.addTab(a); idx != 0 {
		t.Fatalf("addTab(a) = %d, want 0", idx)
	}
	if idx := g.addTab(b); idx != 1 {
		t.Fatalf("addTab(b) = %d, want 1", idx)
	}
	// Re-adding dedupes.
	if idx := g.addTab(a); idx != 0 {
		t.Fatalf("addTab(a) again = %d, want 0", idx)
	}

	if idx := g.indexOf(b); idx != 1 {
		t.Fatalf("indexOf(b) = %d", idx)
	}
	if idx := g.indexOfURI("file:///a.ipynb"); idx != 0 {
		t.Fatalf("indexOfURI(a) = %d", idx)
	}
	if idx := g.indexOfURI("file:///nope.ipynb"); idx != -1 {
		t.Fatalf("indexOfURI(missing) = %d", idx)
	}

	g.active = 1
	removed, ok := g.removeTab(1)
	if !ok || !removed.Matches(b) {
		t.Fatalf("removeTab(1) = %v, %v", removed, ok)
	}
	if g.active != 0 {
		t.Fatalf("active = %d, want clamp to 0", g.active)
	}
	if _, ok := g.removeTab(5); ok {
		t.Fatal("out-of-range remove should fail")
	}
}

func TestTabTitle(t *testing.T) {
	cases := map[string]string{
		"file:///home/user/demo.ipynb": "demo.ipynb",
		"plain":                        "plain",
	}
	for uri, want := range cases {
		if got := tabTitle(document.InputRef{URI: uri}); got != want {
			t.Errorf("tabTitle(%q) = %q, want %q", uri, got, want)
		}
	}
}

func TestChangeVerb(t *testing.T) {
	if got := changeVerb(resolver.DocumentDeleted); got != "deleted" {
		t.Errorf("changeVerb(deleted) = %q", got)
	}
	if got := changeVerb(resolver.DocumentModified); got != "changed" {
		t.Errorf("changeVerb(modified) = %q", got)
	}
}
