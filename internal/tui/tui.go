// Package tui provides the terminal user interface for editing the todo
// list. All mutation happens inside Update, which bubbletea runs on a
// single goroutine; background signals (file watch, autosave) arrive as
// messages and are drained between key events.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"todotui/internal/colorscheme"
	"todotui/internal/session"
	"todotui/internal/task"
	"todotui/internal/tasklist"
	"todotui/internal/view"
)

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeEdit
	ModeSearch
	ModePriority
	ModeHelp
	ModeConfirmDelete
)

// signalMsg wakes Update when the coordinator has pending work.
type signalMsg struct{}

// Model represents the TUI state
type Model struct {
	sess *session.Session

	// selection is a task identity, never a row: rows reshuffle under
	// sorting and reload, identities do not.
	selection string
	offset    int // first visible row

	mode      Mode
	textInput textinput.Model
	statusMsg string

	// filterTag is the +project or @context the view is narrowed to,
	// "" when no filter is active.
	filterTag string

	caseSensitiveSearch bool

	width  int
	height int

	headerStyle    lipgloss.Style
	selectedStyle  lipgloss.Style
	completedStyle lipgloss.Style
	projectStyle   lipgloss.Style
	contextStyle   lipgloss.Style
	metadataStyle  lipgloss.Style
	priorityStyles map[byte]lipgloss.Style
	statusBarStyle lipgloss.Style
	dialogStyle    lipgloss.Style
	helpStyle      lipgloss.Style
}

// New creates a TUI model over the session.
func New(s *session.Session, scheme colorscheme.Scheme) *Model {
	ti := textinput.New()
	ti.CharLimit = 512

	m := &Model{
		sess:      s,
		textInput: ti,
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(scheme.Header)),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(scheme.Selected)),
		completedStyle: lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(lipgloss.Color(scheme.Completed)),
		projectStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(scheme.Project)),
		contextStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(scheme.Context)),
		metadataStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(scheme.Metadata)),
		priorityStyles: map[byte]lipgloss.Style{
			'A': lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(scheme.PriorityA)),
			'B': lipgloss.NewStyle().Foreground(lipgloss.Color(scheme.PriorityB)),
			'C': lipgloss.NewStyle().Foreground(lipgloss.Color(scheme.PriorityC)),
		},
		statusBarStyle: lipgloss.NewStyle().
			Background(lipgloss.Color(scheme.StatusBg)).
			Foreground(lipgloss.Color(scheme.Status)).
			Padding(0, 1),
		dialogStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(scheme.Header)).
			Padding(1, 2),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(scheme.Completed)),
	}
	if id, ok := s.View.IdentityAt(0); ok {
		m.selection = id
	}
	return m
}

// SetCaseSensitiveSearch makes "/" searches case-sensitive.
func (m *Model) SetCaseSensitiveSearch(on bool) {
	m.caseSensitiveSearch = on
}

// Selection returns the selected task identity, "" when the view is empty.
func (m *Model) Selection() string {
	return m.selection
}

// Init starts listening for coordinator signals.
func (m *Model) Init() tea.Cmd {
	return m.waitForSignal()
}

func (m *Model) waitForSignal() tea.Cmd {
	wake := m.sess.Coord.Wake()
	return func() tea.Msg {
		<-wake
		return signalMsg{}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case signalMsg:
		m.drain()
		return m, m.waitForSignal()

	case tea.KeyMsg:
		switch m.mode {
		case ModeAdd, ModeEdit:
			return m.handleInputMode(msg)
		case ModeSearch:
			return m.handleSearchMode(msg)
		case ModePriority:
			return m.handlePriorityMode(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		case ModeConfirmDelete:
			return m.handleConfirmDeleteMode(msg)
		}
		return m.handleNormalMode(msg)
	}

	return m, nil
}

// drain runs pending reload/save work at a safe point between commands.
func (m *Model) drain() {
	prevRow := m.selectedRow()
	res := m.sess.Drain()
	switch {
	case res.ReloadErr != nil:
		m.statusMsg = fmt.Sprintf("reload failed: %v", res.ReloadErr)
	case res.SaveErr != nil:
		m.statusMsg = fmt.Sprintf("save failed: %v", res.SaveErr)
	case res.Reloaded:
		m.statusMsg = "reloaded from disk (unsaved edits discarded)"
	case res.Saved:
		m.statusMsg = "saved"
	}
	if res.Reloaded {
		m.repairSelection(prevRow)
	}
}

func (m *Model) selectedRow() int {
	if row, ok := m.sess.View.RowOf(m.selection); ok {
		return row
	}
	return 0
}

// repairSelection re-anchors the selection after the selected task
// vanished from the view (delete, reload, filter change).
func (m *Model) repairSelection(prevRow int) {
	if _, ok := m.sess.View.RowOf(m.selection); ok {
		return
	}
	m.selection = m.sess.View.RepairSelection(prevRow)
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.sess.View
	row := m.selectedRow()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		if id, ok := p.IdentityAt(row + 1); ok {
			m.selection = id
		}
	case "k", "up":
		if id, ok := p.IdentityAt(row - 1); ok {
			m.selection = id
		}
	case "g", "home":
		if id, ok := p.IdentityAt(0); ok {
			m.selection = id
		}
	case "G", "end":
		if id, ok := p.IdentityAt(p.Len() - 1); ok {
			m.selection = id
		}

	case "J":
		m.moveSelected(+1)
	case "K":
		m.moveSelected(-1)

	case "a", "n":
		m.mode = ModeAdd
		m.textInput.Reset()
		m.textInput.Placeholder = "New task..."
		m.textInput.Focus()
		return m, textinput.Blink

	case "e":
		if t := m.selectedTask(); t != nil {
			m.mode = ModeEdit
			m.textInput.Reset()
			m.textInput.SetValue(t.String())
			m.textInput.CursorEnd()
			m.textInput.Focus()
			return m, textinput.Blink
		}

	case "x":
		if m.selection != "" {
			if err := m.sess.ToggleComplete(m.selection); err != nil {
				m.statusMsg = statusFor(err)
			}
			m.repairSelection(row)
		}

	case "d":
		if m.selection != "" {
			m.mode = ModeConfirmDelete
		}

	case "p":
		if m.selection != "" {
			m.mode = ModePriority
		}

	case "A":
		count, err := m.sess.Archive()
		if err != nil {
			m.statusMsg = statusFor(err)
		} else {
			m.statusMsg = fmt.Sprintf("archived %d task(s)", count)
		}
		m.repairSelection(row)

	case "u":
		if m.sess.Undo() {
			m.statusMsg = "undo"
		} else {
			m.statusMsg = "nothing to undo"
		}
		m.repairSelection(row)

	case "ctrl+r":
		if m.sess.Redo() {
			m.statusMsg = "redo"
		} else {
			m.statusMsg = "nothing to redo"
		}
		m.repairSelection(row)

	case "/":
		m.mode = ModeSearch
		m.textInput.Reset()
		m.textInput.SetValue(p.Search())
		m.textInput.Placeholder = "Search..."
		m.textInput.Focus()
		return m, textinput.Blink

	case "s":
		m.cycleSort()

	case "f":
		m.cycleFilter()

	case "w":
		m.sess.Coord.RequestSave()
		m.drain()

	case "?":
		m.mode = ModeHelp
	}

	return m, nil
}

func (m *Model) selectedTask() *task.Task {
	if m.selection == "" {
		return nil
	}
	t, ok := m.sess.List().Get(m.selection)
	if !ok {
		return nil
	}
	return t
}

func (m *Model) moveSelected(delta int) {
	if m.selection == "" {
		return
	}
	// Moving is a file-order operation; translate through the list
	// position, not the view row.
	pos := m.sess.List().IndexOf(m.selection)
	if pos < 0 {
		return
	}
	newPos := pos + delta
	if newPos < 0 || newPos >= m.sess.List().Len() {
		return
	}
	if err := m.sess.Move(m.selection, newPos); err != nil {
		m.statusMsg = statusFor(err)
	}
}

func (m *Model) cycleSort() {
	next := map[view.SortKey]view.SortKey{
		view.SortFileOrder:    view.SortPriority,
		view.SortPriority:     view.SortCompletion,
		view.SortCompletion:   view.SortCreationDate,
		view.SortCreationDate: view.SortFileOrder,
	}
	m.sess.View.SetSort(next[m.sess.View.Sort()])
	m.statusMsg = "sort: " + sortName(m.sess.View.Sort())
}

// cycleFilter advances the active filter through every +project, then
// every @context, then back to no filter.
func (m *Model) cycleFilter() {
	tags := append(m.sess.List().Projects(), m.sess.List().Contexts()...)
	if len(tags) == 0 {
		if m.filterTag != "" {
			m.filterTag = ""
			m.sess.View.SetFilter(nil)
			m.statusMsg = "filter cleared"
			return
		}
		m.statusMsg = "no projects or contexts to filter on"
		return
	}

	next := 0
	if m.filterTag != "" {
		for i, tag := range tags {
			if tag == m.filterTag {
				next = i + 1
				break
			}
		}
	}

	prevRow := m.selectedRow()
	if next >= len(tags) {
		m.filterTag = ""
		m.sess.View.SetFilter(nil)
		m.statusMsg = "filter cleared"
	} else {
		m.filterTag = tags[next]
		m.sess.View.SetFilter(filterByTag(m.filterTag))
		m.statusMsg = "filter: " + m.filterTag
	}
	m.repairSelection(prevRow)
}

// filterByTag matches tasks carrying the given +project or @context tag.
func filterByTag(tag string) view.Predicate {
	byContext := strings.HasPrefix(tag, "@")
	return func(t *task.Task) bool {
		have := t.Projects
		if byContext {
			have = t.Contexts
		}
		for _, got := range have {
			if got == tag {
				return true
			}
		}
		return false
	}
}

func sortName(k view.SortKey) string {
	switch k {
	case view.SortPriority:
		return "priority"
	case view.SortCompletion:
		return "completion"
	case view.SortCreationDate:
		return "created"
	default:
		return "file order"
	}
}

func (m *Model) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		value := m.textInput.Value()
		mode := m.mode
		m.mode = ModeNormal
		if value == "" {
			return m, nil
		}
		if mode == ModeAdd {
			id, err := m.sess.Add(value, -1)
			if err != nil {
				m.statusMsg = statusFor(err)
			} else {
				m.selection = id
			}
		} else if m.selection != "" {
			if err := m.sess.Edit(m.selection, value); err != nil {
				m.statusMsg = statusFor(err)
			}
		}
		return m, nil

	case tea.KeyEsc:
		m.mode = ModeNormal
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		prevRow := m.selectedRow()
		m.sess.View.SetSearch(m.textInput.Value(), !m.caseSensitiveSearch)
		m.mode = ModeNormal
		m.repairSelection(prevRow)
		return m, nil

	case tea.KeyEsc:
		prevRow := m.selectedRow()
		m.sess.View.SetSearch("", !m.caseSensitiveSearch)
		m.mode = ModeNormal
		m.repairSelection(prevRow)
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handlePriorityMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	if m.selection == "" {
		return m, nil
	}

	key := msg.String()
	var pri byte
	switch {
	case len(key) == 1 && key[0] >= 'a' && key[0] <= 'z':
		pri = key[0] - 'a' + 'A'
	case len(key) == 1 && key[0] >= 'A' && key[0] <= 'Z':
		pri = key[0]
	case key == " ", key == "0", key == "delete", key == "backspace":
		pri = 0
	case key == "esc":
		return m, nil
	default:
		return m, nil
	}

	if err := m.sess.SetPriority(m.selection, pri); err != nil {
		m.statusMsg = statusFor(err)
	}
	return m, nil
}

func (m *Model) handleConfirmDeleteMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeNormal
		prevRow := m.selectedRow()
		if err := m.sess.Delete(m.selection); err != nil {
			m.statusMsg = statusFor(err)
		}
		m.repairSelection(prevRow)
	case "n", "N", "esc":
		m.mode = ModeNormal
	}
	return m, nil
}

// statusFor maps engine/list errors to status-bar text; nothing here is
// fatal to the session.
func statusFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, tasklist.ErrNoArchive):
		return "no archive file configured"
	case errors.Is(err, tasklist.ErrNotFound):
		return "task no longer exists"
	default:
		return err.Error()
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	switch m.mode {
	case ModeAdd:
		return m.renderDialog("Add Task")
	case ModeEdit:
		return m.renderDialog("Edit Task")
	case ModeSearch:
		return m.renderDialog("Search")
	case ModeHelp:
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTasks())
	b.WriteString(m.renderStatusBar())

	if m.mode == ModeConfirmDelete {
		return m.overlay("Delete selected task?")
	}
	return b.String()
}

func (m *Model) renderHeader() string {
	title := m.sess.Path
	p := m.sess.View
	counts := fmt.Sprintf("%d/%d", p.Len(), m.sess.List().Len())
	pad := m.width - lipgloss.Width(title) - len(counts) - 1
	if pad < 1 {
		pad = 1
	}
	return m.headerStyle.Render(title) + strings.Repeat(" ", pad) + counts
}

func (m *Model) visibleRows() int {
	rows := m.height - 2 // header + status bar
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *Model) renderTasks() string {
	p := m.sess.View
	if p.Len() == 0 {
		return "  no tasks\n"
	}

	// Keep the selection on screen.
	selRow := m.selectedRow()
	visible := m.visibleRows()
	if selRow < m.offset {
		m.offset = selRow
	}
	if selRow >= m.offset+visible {
		m.offset = selRow - visible + 1
	}

	var b strings.Builder
	end := m.offset + visible
	if end > p.Len() {
		end = p.Len()
	}
	for row := m.offset; row < end; row++ {
		id, _ := p.IdentityAt(row)
		t, ok := m.sess.List().Get(id)
		if !ok {
			continue
		}
		b.WriteString(m.renderTaskLine(t, id == m.selection))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderTaskLine(t *task.Task, selected bool) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}

	line := t.String()
	switch {
	case t.Completed:
		line = m.completedStyle.Render(line)
	case selected:
		line = m.selectedStyle.Render(line)
	default:
		line = m.colorizeTokens(t)
	}
	return cursor + line
}

// colorizeTokens renders an unselected, incomplete task with per-token
// colors for priority, projects, contexts, and metadata.
func (m *Model) colorizeTokens(t *task.Task) string {
	words := strings.Split(t.String(), " ")
	for i, w := range words {
		switch {
		case len(w) == 3 && w[0] == '(' && w[2] == ')' && w[1] >= 'A' && w[1] <= 'Z':
			style, ok := m.priorityStyles[w[1]]
			if !ok {
				style = m.priorityStyles['C']
			}
			words[i] = style.Render(w)
		case len(w) > 1 && strings.HasPrefix(w, "+"):
			words[i] = m.projectStyle.Render(w)
		case len(w) > 1 && strings.HasPrefix(w, "@"):
			words[i] = m.contextStyle.Render(w)
		case strings.Count(w, ":") == 1 && !strings.HasPrefix(w, ":") && !strings.HasSuffix(w, ":"):
			words[i] = m.metadataStyle.Render(w)
		}
	}
	return strings.Join(words, " ")
}

func (m *Model) renderStatusBar() string {
	p := m.sess.View
	left := m.statusMsg
	var parts []string
	if m.filterTag != "" {
		parts = append(parts, "filter:"+m.filterTag)
	}
	if p.Search() != "" {
		parts = append(parts, "search:"+p.Search())
	}
	if p.Sort() != view.SortFileOrder {
		parts = append(parts, "sort:"+sortName(p.Sort()))
	}
	parts = append(parts, "?:help")
	right := strings.Join(parts, "  ")

	pad := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if pad < 1 {
		pad = 1
	}
	return m.statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", pad) + right)
}

func (m *Model) renderDialog(title string) string {
	dialog := m.dialogStyle.Render(
		title + "\n\n" +
			m.textInput.View() + "\n\n" +
			m.helpStyle.Render("Enter: confirm  Esc: cancel"),
	)
	return m.center(dialog)
}

func (m *Model) renderHelp() string {
	help := `Key Bindings

Navigation:
  j/k or arrows  Move selection
  g/G            First/last task
  J/K            Move task down/up in the file

Editing:
  a or n   Add task
  e        Edit task
  x        Toggle complete
  d        Delete (with confirm)
  p        Set priority (then A-Z, space clears)
  A        Archive completed tasks
  u        Undo
  ctrl+r   Redo

View:
  /        Search
  f        Cycle project/context filter
  s        Cycle sort (file/priority/completion/created)

Session:
  w        Save now
  q        Save and quit

Press any key to close`

	return m.center(m.dialogStyle.Render(help))
}

func (m *Model) overlay(text string) string {
	return m.center(m.dialogStyle.Render(text + "\n\n" + m.helpStyle.Render("y: yes  n: no")))
}

func (m *Model) center(dialog string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}
