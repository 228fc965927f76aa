// Package tui provides the terminal user interface for nbview: editor groups
// with tabbed documents, each pane backed by a pooled render widget through a
// pane controller.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/nbview/internal/db"
	"github.com/Dicklesworthstone/nbview/internal/document"
	"github.com/Dicklesworthstone/nbview/internal/pane"
	"github.com/Dicklesworthstone/nbview/internal/resolver"
	"github.com/Dicklesworthstone/nbview/internal/viewstate"
)

// viewState represents the current view/mode of the TUI.
type viewState int

const (
	stateDocs viewState = iota
	stateHelp
	statePrompt
)

// Deps are the collaborators the TUI routes between. DB and Watcher are
// optional; without them view state lives only in memory and documents are
// not reloaded on change.
type Deps struct {
	Pool     pane.WidgetPool
	Resolver pane.DocumentResolver
	Store    *viewstate.Store
	DB       *db.DB
	Watcher  *resolver.Watcher
}

// Model is the main Bubble Tea model for the nbview TUI.
type Model struct {
	deps     Deps
	prompter *fallbackPrompter

	groups      []*editorGroup
	activeGroup int

	// View state
	width       int
	height      int
	state       viewState
	promptInput document.InputRef

	// In-flight input switches, cancel per group so a newer switch
	// supersedes a pending one.
	cancels map[int]context.CancelFunc

	// UI components
	keys   keyMap
	styles Styles

	// Status message
	statusMsg   string
	statusIsErr bool
}

// New creates the TUI model with two editor groups; the documents open as
// tabs in the first.
func New(deps Deps, inputs []document.InputRef) Model {
	prompter := &fallbackPrompter{}

	m := Model{
		deps:     deps,
		prompter: prompter,
		cancels:  make(map[int]context.CancelFunc),
		state:    stateDocs,
		keys:     defaultKeyMap(),
		styles:   DefaultStyles(),
	}

	for id := 0; id < 2; id++ {
		g := &editorGroup{id: id, active: -1}
		g.controller = pane.NewController(g, deps.Pool, deps.Resolver, deps.Store, prompter)
		m.groups = append(m.groups, g)
	}

	first := m.groups[0]
	for _, input := range inputs {
		first.addTab(input)
	}
	if len(first.tabs) > 0 {
		first.active = 0
	}

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnterAltScreen}
	if input, ok := m.groups[0].activeInput(); ok {
		cmds = append(cmds, m.assignCmd(m.groups[0], input))
	}
	if m.deps.Watcher != nil {
		cmds = append(cmds, watchChanges(m.deps.Watcher))
	}
	return tea.Batch(cmds...)
}

// assignCmd starts an input switch on a group, cancelling any switch still
// in flight for it.
func (m Model) assignCmd(g *editorGroup, input document.InputRef) tea.Cmd {
	if cancel := m.cancels[g.id]; cancel != nil {
		cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancels[g.id] = cancel

	ctrl := g.controller
	groupID := g.id
	return func() tea.Msg {
		err := ctrl.AssignInput(ctx, input, pane.Options{RevealCell: -1})
		return assignDoneMsg{groupID: groupID, input: input, err: err}
	}
}

// watchChanges waits for the next document change.
func watchChanges(w *resolver.Watcher) tea.Cmd {
	return func() tea.Msg {
		change, ok := <-w.Changes()
		if !ok {
			return watcherClosedMsg{}
		}
		return documentChangedMsg{change: change}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutGroups()
		return m, nil

	case assignDoneMsg:
		return m.handleAssignDone(msg)

	case documentChangedMsg:
		next := m
		cmds := []tea.Cmd{watchChanges(m.deps.Watcher)}
		if cmd := next.handleDocumentChange(msg.change); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return next, tea.Batch(cmds...)

	case watcherClosedMsg:
		return m, nil

	case errMsg:
		m.setStatus(msg.err.Error(), true)
		return m, nil
	}

	return m, nil
}

func (m Model) handleAssignDone(msg assignDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setStatus(fmt.Sprintf("open %s: %v", msg.input.URI, msg.err), true)
		return m, nil
	}

	// A nil error with a pending offer means no viewer handled the type.
	if offered, ok := m.prompter.take(); ok {
		m.promptInput = offered
		m.state = statePrompt
		return m, nil
	}

	g := m.group(msg.groupID)
	if current, ok := g.controller.CurrentInput(); !ok || !current.Matches(msg.input) {
		// Superseded or cleared while resolving; nothing to announce.
		return m, nil
	}

	m.setStatus(fmt.Sprintf("opened %s", msg.input.URI), false)
	m.logSession("opened", msg.input)
	if m.deps.Watcher != nil {
		if err := m.deps.Watcher.Add(msg.input.URI); err != nil {
			m.setStatus(fmt.Sprintf("watch %s: %v", msg.input.URI, err), true)
		}
	}
	m.layoutGroups()
	return m, nil
}

func (m *Model) handleDocumentChange(change resolver.Change) tea.Cmd {
	switch change.Type {
	case resolver.DocumentDeleted:
		m.deps.Store.Forget(change.URI)
		m.setStatus(fmt.Sprintf("%s was deleted", change.URI), true)
		return nil
	default:
		for _, g := range m.groups {
			idx := g.indexOfURI(change.URI)
			if idx < 0 {
				continue
			}
			if idx == g.active {
				m.setStatus(fmt.Sprintf("%s %s, reloading", change.URI, changeVerb(change.Type)), false)
				return m.assignCmd(g, g.tabs[idx])
			}
		}
		return nil
	}
}

// handleKeyPress processes keyboard input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == statePrompt {
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.state == stateHelp {
			m.state = stateDocs
		} else {
			m.state = stateHelp
		}
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.activeNotebook(func(n NotebookControls) { n.ScrollBy(-1) })
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.activeNotebook(func(n NotebookControls) { n.ScrollBy(1) })
		return m, nil

	case key.Matches(msg, m.keys.PrevCell):
		m.activeNotebook(func(n NotebookControls) { n.SelectDelta(-1) })
		return m, nil

	case key.Matches(msg, m.keys.NextCell):
		m.activeNotebook(func(n NotebookControls) { n.SelectDelta(1) })
		return m, nil

	case key.Matches(msg, m.keys.Collapse):
		m.activeNotebook(func(n NotebookControls) { n.ToggleCollapse() })
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		return m, m.switchTab(1)

	case key.Matches(msg, m.keys.PrevTab):
		return m, m.switchTab(-1)

	case key.Matches(msg, m.keys.NextGroup):
		other := m.group(1 - m.activeGroup)
		if len(other.tabs) > 0 {
			m.activeGroup = other.id
			other.controller.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.CloseTab):
		return m.closeActiveTab()

	case key.Matches(msg, m.keys.MoveTab):
		return m.moveActiveTab()

	case key.Matches(msg, m.keys.Reload):
		g := m.group(m.activeGroup)
		if input, ok := g.activeInput(); ok {
			return m, m.assignCmd(g, input)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.state = stateDocs
		input := m.promptInput
		m.promptInput = document.InputRef{}

		g := m.group(m.activeGroup)
		fallback := input.AsPlainText()
		if idx := g.indexOf(input); idx >= 0 {
			g.tabs[idx] = fallback
		} else {
			g.active = g.addTab(fallback)
		}
		return m, m.assignCmd(g, fallback)

	case "n", "N", "esc", "q":
		m.state = stateDocs
		input := m.promptInput
		m.promptInput = document.InputRef{}

		g := m.group(m.activeGroup)
		if idx := g.indexOf(input); idx >= 0 {
			g.removeTab(idx)
		}
		if next, ok := g.activeInput(); ok {
			return m, m.assignCmd(g, next)
		}
		return m, nil
	}
	return m, nil
}

// switchTab hides the current document and assigns the neighbouring tab.
func (m Model) switchTab(delta int) tea.Cmd {
	g := m.group(m.activeGroup)
	if len(g.tabs) < 2 {
		return nil
	}

	g.controller.NotifyHiding()
	g.active = (g.active + delta + len(g.tabs)) % len(g.tabs)
	input, _ := g.activeInput()
	return m.assignCmd(g, input)
}

func (m Model) closeActiveTab() (tea.Model, tea.Cmd) {
	g := m.group(m.activeGroup)
	input, ok := g.activeInput()
	if !ok {
		return m, nil
	}

	// The close path saves view state before the widget detaches.
	g.controller.NotifyClosing(input)
	g.removeTab(g.active)
	m.logSession("closed", input)
	if m.deps.Watcher != nil {
		m.deps.Watcher.Remove(input.URI)
	}

	if next, ok := g.activeInput(); ok {
		return m, m.assignCmd(g, next)
	}
	g.controller.ClearInput()
	m.setStatus(fmt.Sprintf("closed %s", input.URI), false)
	return m, nil
}

func (m Model) moveActiveTab() (tea.Model, tea.Cmd) {
	src := m.group(m.activeGroup)
	input, ok := src.activeInput()
	if !ok {
		return m, nil
	}

	src.controller.NotifyClosing(input)
	src.removeTab(src.active)

	dst := m.group(1 - m.activeGroup)
	dst.active = dst.addTab(input)
	m.activeGroup = dst.id

	cmds := []tea.Cmd{m.assignCmd(dst, input)}
	if next, ok := src.activeInput(); ok {
		cmds = append(cmds, m.assignCmd(src, next))
	} else {
		src.controller.ClearInput()
	}
	m.layoutGroups()
	return m, tea.Batch(cmds...)
}

// shutdown persists all pane state and releases widgets before quit.
func (m Model) shutdown() {
	for _, g := range m.groups {
		g.controller.PersistState()
		g.controller.ClearInput()
		g.controller.Dispose()
	}
	for _, cancel := range m.cancels {
		if cancel != nil {
			cancel()
		}
	}
	if m.deps.DB != nil {
		if err := m.deps.Store.Flush(m.deps.DB); err != nil {
			// The UI is going away; nothing useful left to show.
			_ = err
		}
	}
	if m.deps.Watcher != nil {
		_ = m.deps.Watcher.Close()
	}
}

// NotebookControls is the input surface the host routes to the active
// widget. The concrete notebook widget implements it.
type NotebookControls interface {
	ScrollBy(delta int)
	SelectDelta(delta int)
	ToggleCollapse()
}

// activeNotebook runs fn on the active group's widget when it supports
// notebook controls.
func (m Model) activeNotebook(fn func(NotebookControls)) {
	g := m.group(m.activeGroup)
	if w := g.controller.Widget(); w != nil {
		if n, ok := w.(NotebookControls); ok {
			fn(n)
		}
	}
}

func (m Model) group(id int) *editorGroup {
	return m.groups[id]
}

// visibleGroups returns the groups that currently hold tabs; group 0 shows
// even when empty so the blank app has a surface.
func (m Model) visibleGroups() []*editorGroup {
	var out []*editorGroup
	for _, g := range m.groups {
		if g.id == 0 || len(g.tabs) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// layoutGroups pushes current pane geometry into every controller. The
// controllers cache it, so widgets attached later still get sized.
func (m *Model) layoutGroups() {
	if m.width == 0 || m.height == 0 {
		return
	}

	visible := m.visibleGroups()
	// Chrome: header, tab strip, status bar, and the pane border.
	paneHeight := m.height - 3 - 2
	if paneHeight < 1 {
		paneHeight = 1
	}
	paneWidth := m.width/len(visible) - 2
	if paneWidth < 1 {
		paneWidth = 1
	}

	for _, g := range visible {
		g.controller.Layout(pane.Size{Width: paneWidth, Height: paneHeight})
	}
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusIsErr = isErr
}

func (m *Model) logSession(event string, input document.InputRef) {
	if m.deps.DB == nil {
		return
	}
	if err := m.deps.DB.LogSessionEvent(event, input.URI, input.ViewType, ""); err != nil {
		m.setStatus(fmt.Sprintf("session log: %v", err), true)
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case stateHelp:
		return m.helpView()
	case statePrompt:
		return m.promptView()
	default:
		return m.mainView()
	}
}

// mainView renders the editor groups with their tab strips and widgets.
func (m Model) mainView() string {
	header := m.styles.Header.Render("nbview")

	visible := m.visibleGroups()
	var columns []string
	for _, g := range visible {
		columns = append(columns, m.renderGroup(g, len(visible)))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	content := lipgloss.JoinVertical(lipgloss.Left, header, body)

	status := m.renderStatusBar()
	availableHeight := m.height - lipgloss.Height(content) - 1
	if availableHeight > 0 {
		content = lipgloss.JoinVertical(
			lipgloss.Left,
			content,
			lipgloss.NewStyle().Height(availableHeight).Render(""),
			status,
		)
	} else {
		content = lipgloss.JoinVertical(lipgloss.Left, content, status)
	}

	return content
}

func (m Model) renderGroup(g *editorGroup, visibleCount int) string {
	width := m.width/visibleCount - 2
	if width < 1 {
		width = 1
	}

	tabs := m.renderTabs(g)

	surface := g.controller.WidgetView()
	if surface == "" {
		surface = m.styles.Empty.Render("no document open")
	}

	border := m.styles.PaneBorder
	if g.id == m.activeGroup {
		border = m.styles.FocusedPaneBorder
	}
	paneBox := border.Width(width).Render(surface)

	return lipgloss.JoinVertical(lipgloss.Left, tabs, paneBox)
}

// renderTabs renders a group's tab strip.
func (m Model) renderTabs(g *editorGroup) string {
	if len(g.tabs) == 0 {
		return m.styles.Empty.Render(" (empty group) ")
	}

	var tabs []string
	tabs = append(tabs, m.styles.GroupLabel.Render(fmt.Sprintf("[%d]", g.id+1)))
	for i, input := range g.tabs {
		style := m.styles.Tab
		if i == g.active {
			style = m.styles.ActiveTab
		}
		tabs = append(tabs, style.Render(tabTitle(input)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderStatusBar renders the bottom status bar.
func (m Model) renderStatusBar() string {
	left := m.styles.StatusKey.Render("q") + m.styles.StatusText.Render(" quit  ")
	left += m.styles.StatusKey.Render("?") + m.styles.StatusText.Render(" help  ")
	left += m.styles.StatusKey.Render("tab") + m.styles.StatusText.Render(" switch doc  ")
	left += m.styles.StatusKey.Render("w") + m.styles.StatusText.Render(" close")

	if m.statusMsg != "" {
		style := m.styles.StatusText
		if m.statusIsErr {
			style = m.styles.StatusErr
		}
		left = style.Render(m.statusMsg)
	}

	return m.styles.StatusBar.Width(m.width).Render(left)
}

// promptView renders the open-as-text recovery dialog.
func (m Model) promptView() string {
	title := m.styles.DialogTitle.Render("No viewer registered")
	body := fmt.Sprintf("No viewer handles %q for\n%s", m.promptInput.ViewType, m.promptInput.URI)
	buttons := m.styles.DialogButton.Render("[y] open as plain text") + "   " +
		m.styles.StatusText.Render("[n] close")

	dialog := m.styles.Dialog.Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", buttons),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}

// helpView renders the help screen.
func (m Model) helpView() string {
	help := `
Keyboard Shortcuts
==================

Navigation
  ↑/k        Scroll up
  ↓/j        Scroll down
  J / K      Next / previous cell
  tab        Next document
  shift+tab  Previous document
  g          Switch editor group

Actions
  space      Collapse/expand cell
  w          Close document
  m          Move document to other group
  r          Reload document

General
  ?          Toggle help
  q          Quit
`
	return m.styles.Help.Render(help)
}

func tabTitle(input document.InputRef) string {
	uri := input.URI
	for i := len(uri) - 1; i >= 0; i-- {
		if uri[i] == '/' {
			return uri[i+1:]
		}
	}
	return uri
}
