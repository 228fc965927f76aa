// Package widget implements the pooled notebook render widget. Widgets are
// stateful and expensive; the pool in internal/widgetpool owns their
// lifetime and panes borrow them through leases.
package widget

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	"github.com/Dicklesworthstone/nbview/internal/document"
	"github.com/Dicklesworthstone/nbview/internal/pane"
	"github.com/Dicklesworthstone/nbview/internal/viewstate"
)

// Notebook renders a notebook document as styled terminal lines with cell
// selection, scrolling, and collapsible cells.
type Notebook struct {
	mu sync.Mutex

	id       string
	viewKind string
	styles   Styles

	doc       *document.Model
	size      pane.Size
	scroll    int
	selected  int
	collapsed map[int]bool
	focused   bool

	// rendered is the cached line buffer; dropped on hide, rebuilt lazily.
	rendered []string

	nextListener   int
	focusListeners map[int]func()
	dropGroups     map[int]bool
}

var (
	_ pane.Widget     = (*Notebook)(nil)
	_ pane.DropTarget = (*Notebook)(nil)
)

// NewNotebook creates an empty widget for one view type.
func NewNotebook(viewKind string) *Notebook {
	return &Notebook{
		id:             uuid.NewString(),
		viewKind:       viewKind,
		styles:         DefaultStyles(),
		collapsed:      make(map[int]bool),
		focusListeners: make(map[int]func()),
		dropGroups:     make(map[int]bool),
	}
}

// ID identifies the widget instance.
func (n *Notebook) ID() string { return n.id }

// ViewKind reports which view type this widget renders.
func (n *Notebook) ViewKind() string { return n.viewKind }

// Layout applies pane geometry and clamps scroll to the new window.
func (n *Notebook) Layout(size pane.Size) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if size == n.size {
		return
	}
	n.size = size
	n.rendered = nil
	n.clampScrollLocked()
}

// SetModel installs a document and restores prior view state.
func (n *Notebook) SetModel(doc *document.Model, st viewstate.State, opts pane.Options) error {
	if doc == nil {
		return fmt.Errorf("nil document model")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.doc = doc
	n.rendered = nil
	n.scroll = st.ScrollOffset
	n.selected = st.SelectedCell
	n.focused = st.FocusEditor
	n.collapsed = make(map[int]bool, len(st.Collapsed))
	for _, idx := range st.Collapsed {
		if idx >= 0 && idx < len(doc.Cells) {
			n.collapsed[idx] = true
		}
	}
	if n.selected < 0 || n.selected >= len(doc.Cells) {
		n.selected = 0
	}

	if opts.RevealCell >= 0 && opts.RevealCell < len(doc.Cells) {
		n.selected = opts.RevealCell
		n.scrollToSelectedLocked()
	}
	n.clampScrollLocked()
	return nil
}

// ViewState reports the current visual state.
func (n *Notebook) ViewState() viewstate.State {
	n.mu.Lock()
	defer n.mu.Unlock()

	st := viewstate.State{
		ScrollOffset: n.scroll,
		SelectedCell: n.selected,
		FocusEditor:  n.focused,
	}
	for idx := range n.collapsed {
		st.Collapsed = append(st.Collapsed, idx)
	}
	sort.Ints(st.Collapsed)
	return st
}

// DocumentURI reports the URI of the installed document, or "".
func (n *Notebook) DocumentURI() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.doc == nil {
		return ""
	}
	return n.doc.URI
}

// OnWillHide drops the cached render. Scroll and selection survive; only
// transient buffers go.
func (n *Notebook) OnWillHide() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rendered = nil
	n.focused = false
}

// OnDidFocus registers a focus listener and returns its remover.
func (n *Notebook) OnDidFocus(fn func()) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextListener
	n.nextListener++
	n.focusListeners[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.focusListeners, id)
	}
}

// Focus marks the widget focused and notifies listeners.
func (n *Notebook) Focus() {
	n.mu.Lock()
	already := n.focused
	n.focused = true
	listeners := make([]func(), 0, len(n.focusListeners))
	for _, fn := range n.focusListeners {
		listeners = append(listeners, fn)
	}
	n.mu.Unlock()

	if already {
		return
	}
	for _, fn := range listeners {
		fn()
	}
}

// Blur clears focus.
func (n *Notebook) Blur() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.focused = false
}

// RegisterDropTarget enables drop handling scoped to one editor group.
func (n *Notebook) RegisterDropTarget(group int) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dropGroups[group] = true
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.dropGroups, group)
	}
}

// AcceptsDropFrom reports whether a drop from the given group is accepted.
func (n *Notebook) AcceptsDropFrom(group int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dropGroups[group]
}

// Reset clears all document and view state so a recycled widget never leaks
// the previous pane's content.
func (n *Notebook) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.doc = nil
	n.rendered = nil
	n.scroll = 0
	n.selected = 0
	n.focused = false
	n.collapsed = make(map[int]bool)
	n.dropGroups = make(map[int]bool)
	n.focusListeners = make(map[int]func())
}

// Dispose releases everything. Called by the pool on eviction.
func (n *Notebook) Dispose() {
	n.Reset()
}

// ScrollBy moves the viewport by delta lines.
func (n *Notebook) ScrollBy(delta int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scroll += delta
	n.clampScrollLocked()
}

// SelectDelta moves the cell selection and scrolls it into view.
func (n *Notebook) SelectDelta(delta int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.doc == nil || len(n.doc.Cells) == 0 {
		return
	}
	n.selected += delta
	if n.selected < 0 {
		n.selected = 0
	}
	if n.selected >= len(n.doc.Cells) {
		n.selected = len(n.doc.Cells) - 1
	}
	n.scrollToSelectedLocked()
}

// ToggleCollapse collapses or expands the selected cell.
func (n *Notebook) ToggleCollapse() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.doc == nil {
		return
	}
	if n.collapsed[n.selected] {
		delete(n.collapsed, n.selected)
	} else {
		n.collapsed[n.selected] = true
	}
	n.rendered = nil
	n.clampScrollLocked()
}

// View renders the visible window of the document.
func (n *Notebook) View() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.size.Width <= 0 || n.size.Height <= 0 {
		return ""
	}
	if n.doc == nil {
		return n.styles.Empty.Render("no document")
	}

	lines := n.renderLocked()
	top := n.scroll
	if top > len(lines) {
		top = len(lines)
	}
	bottom := top + n.size.Height
	if bottom > len(lines) {
		bottom = len(lines)
	}
	window := lines[top:bottom]

	// Pad short documents so the pane surface has stable height.
	out := make([]string, n.size.Height)
	copy(out, window)
	return strings.Join(out, "\n")
}

// renderLocked rebuilds the cached line buffer when needed.
func (n *Notebook) renderLocked() []string {
	if n.rendered != nil {
		return n.rendered
	}

	width := n.size.Width
	var lines []string
	for i, cell := range n.doc.Cells {
		lines = append(lines, n.cellHeaderLocked(i, cell, width))
		if n.collapsed[i] {
			lines = append(lines, fit(n.styles.Collapsed, "  …", width))
			continue
		}
		lines = append(lines, n.cellBodyLocked(cell, width)...)
	}
	n.rendered = lines
	return lines
}

func (n *Notebook) cellHeaderLocked(idx int, cell document.Cell, width int) string {
	style := n.styles.CellHeader
	if idx == n.selected {
		style = n.styles.SelectedHeader
	}

	var label string
	switch cell.Type {
	case document.CellCode:
		if cell.ExecutionCount > 0 {
			label = fmt.Sprintf("[%d] %s", cell.ExecutionCount, cell.Type)
		} else {
			label = fmt.Sprintf("[ ] %s", cell.Type)
		}
	default:
		label = string(cell.Type)
	}
	return fit(style, fmt.Sprintf("── %s ──", label), width)
}

func (n *Notebook) cellBodyLocked(cell document.Cell, width int) []string {
	var style lipglossStyle
	switch cell.Type {
	case document.CellCode:
		style = n.styles.CodeLine
	case document.CellMarkdown:
		style = n.styles.MarkdownLine
	default:
		style = n.styles.RawLine
	}

	var out []string
	for _, line := range splitLines(cell.Source) {
		out = append(out, fit(style, "  "+line, width))
	}
	for _, output := range cell.Outputs {
		for _, line := range splitLines(output) {
			out = append(out, fit(n.styles.OutputLine, "  │ "+line, width))
		}
	}
	return out
}

// scrollToSelectedLocked brings the selected cell's header into the window.
func (n *Notebook) scrollToSelectedLocked() {
	if n.doc == nil {
		return
	}

	line := 0
	for i := range n.doc.Cells {
		if i == n.selected {
			break
		}
		line++ // header
		if n.collapsed[i] {
			line++
			continue
		}
		line += bodyLineCount(n.doc.Cells[i])
	}

	if line < n.scroll {
		n.scroll = line
	} else if n.size.Height > 0 && line >= n.scroll+n.size.Height {
		n.scroll = line - n.size.Height + 1
	}
	n.clampScrollLocked()
}

func (n *Notebook) clampScrollLocked() {
	if n.scroll < 0 {
		n.scroll = 0
	}
	if n.doc == nil {
		return
	}

	total := 0
	for i, cell := range n.doc.Cells {
		total++
		if n.collapsed[i] {
			total++
			continue
		}
		total += bodyLineCount(cell)
	}
	max := total - n.size.Height
	if max < 0 {
		max = 0
	}
	if n.scroll > max {
		n.scroll = max
	}
}

func bodyLineCount(cell document.Cell) int {
	count := len(splitLines(cell.Source))
	for _, output := range cell.Outputs {
		count += len(splitLines(output))
	}
	return count
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

type lipglossStyle interface {
	Render(...string) string
}

// fit styles a line and truncates it to the pane width, escape-aware.
func fit(style lipglossStyle, s string, width int) string {
	rendered := style.Render(s)
	if width <= 0 {
		return rendered
	}
	return ansi.Truncate(rendered, width, "…")
}
