package tui

import (
	"github.com/Dicklesworthstone/nbview/internal/document"
	"github.com/Dicklesworthstone/nbview/internal/pane"
)

// editorGroup is one host container: a tab strip of inputs and the pane
// controller that shows the active one. It implements pane.Host and opts in
// to drop-target registration.
type editorGroup struct {
	id         int
	tabs       []document.InputRef
	active     int
	controller *pane.Controller
}

var (
	_ pane.Host           = (*editorGroup)(nil)
	_ pane.DropTargetHost = (*editorGroup)(nil)
)

func (g *editorGroup) GroupID() int { return g.id }

func (g *editorGroup) WantsDropTargets() bool { return true }

// activeInput returns the input behind the active tab.
func (g *editorGroup) activeInput() (document.InputRef, bool) {
	if g.active < 0 || g.active >= len(g.tabs) {
		return document.InputRef{}, false
	}
	return g.tabs[g.active], true
}

// addTab appends an input and returns its index. Re-adding an open input
// just returns the existing tab.
func (g *editorGroup) addTab(input document.InputRef) int {
	for i, tab := range g.tabs {
		if tab.Matches(input) {
			return i
		}
	}
	g.tabs = append(g.tabs, input)
	return len(g.tabs) - 1
}

// removeTab drops the tab at index and keeps the active index valid.
// Returns the removed input.
func (g *editorGroup) removeTab(idx int) (document.InputRef, bool) {
	if idx < 0 || idx >= len(g.tabs) {
		return document.InputRef{}, false
	}
	removed := g.tabs[idx]
	g.tabs = append(g.tabs[:idx], g.tabs[idx+1:]...)
	if g.active >= len(g.tabs) {
		g.active = len(g.tabs) - 1
	}
	return removed, true
}

// indexOf returns the tab index of an input, or -1.
func (g *editorGroup) indexOf(input document.InputRef) int {
	for i, tab := range g.tabs {
		if tab.Matches(input) {
			return i
		}
	}
	return -1
}

// indexOfURI returns the first tab index with the given URI, or -1.
func (g *editorGroup) indexOfURI(uri string) int {
	for i, tab := range g.tabs {
		if tab.URI == uri {
			return i
		}
	}
	return -1
}
