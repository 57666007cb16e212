package fileselect

import (
	"fmt"
	"log"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// maxViewHeight is the number of entries visible through the
	// viewport when the terminal size is unknown.
	maxViewHeight = 15

	// viewChrome is the number of terminal lines taken by
	// everything but the listing: border, nav bar, help and the
	// jump list.
	viewChrome = 8 + maxJumps
)

func defaultKeyMap() keyMap {
	return keyMap{
		up:           key.NewBinding(key.WithKeys("k", "up", "ctrl+p"), key.WithHelp("k/↑", "previous line")),
		down:         key.NewBinding(key.WithKeys("j", "down", "ctrl+n"), key.WithHelp("j/↓", "next line")),
		beginning:    key.NewBinding(key.WithKeys("g", "alt+<"), key.WithHelp("g", "go to top of listing")),
		end:          key.NewBinding(key.WithKeys("G", "alt+>"), key.WithHelp("G", "go to bottom of listing")),
		home:         key.NewBinding(key.WithKeys("~"), key.WithHelp("~", "go to root")),
		back:         key.NewBinding(key.WithKeys("[", "alt+left"), key.WithHelp("[", "back")),
		forward:      key.NewBinding(key.WithKeys("]", "alt+right"), key.WithHelp("]", "forward")),
		parent:       key.NewBinding(key.WithKeys("h", "left", "backspace"), key.WithHelp("h/←", "parent directory")),
		explore:      key.NewBinding(key.WithKeys("l", "right", "enter"), key.WithHelp("l/→/enter", "explore")),
		edit:         key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "edit path")),
		toggleSelect: key.NewBinding(key.WithKeys(" "), key.WithHelp("spacebar", "toggle selection")),
		toggleHidden: key.NewBinding(key.WithKeys("."), key.WithHelp(".", "hide/show hidden entries")),
		jump:         key.NewBinding(key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("0-9", "jump to selection")),
		showHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more help")),
		quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// New returns a file selector browsing cfg.Root. See [NewNavigator]
// for the options.
func New(cfg Config, opts ...Option) (Model, error) {
	nav, err := NewNavigator(cfg, opts...)
	if err != nil {
		return Model{}, fmt.Errorf("cannot create fileselect widget: %w", err)
	}

	ti := textinput.New()
	ti.Prompt = ""

	m := Model{
		nav:        nav,
		id:         nextID(),
		pathInput:  ti,
		viewHeight: maxViewHeight,
		keyMap:     defaultKeyMap(),
		help:       help.New(),
	}
	m.relist("")

	return m, nil
}

// Value returns the selected paths.
func (m Model) Value() []string {
	return m.nav.Value()
}

// Cwd returns the directory being browsed.
func (m Model) Cwd() string {
	return m.nav.Cwd()
}

// ID returns the id carried by this model's [SelectionMsg] values.
func (m Model) ID() int {
	return m.id
}

// itemAtPoint returns the picker entry under the cursor.
func (m Model) itemAtPoint() (Item, bool) {
	items := m.nav.Picker().Items()
	if m.lineNumber < 0 || m.lineNumber >= len(items) {
		return Item{}, false
	}

	return items[m.lineNumber], true
}

// relist resets the viewport after the listing changed, placing the
// cursor on focus if it's still listed and on the first line
// otherwise. Going to the parent directory thus leaves the cursor on
// the directory we came from.
func (m *Model) relist(focus string) {
	items := m.nav.Picker().Items()

	m.viewMin = 0
	m.viewMax = min(m.viewHeight, len(items)) - 1
	m.lineNumber = 0

	if focus == "" {
		return
	}

	for i, it := range items {
		if it.Path == focus {
			m.scrollDown(i)
			return
		}
	}
}

func (m *Model) scrollDown(times int) {
	n := len(m.nav.Picker().Items())

	for range times {
		m.lineNumber++
		if m.lineNumber > n-1 {
			m.lineNumber = n - 1
		}

		if m.viewMax < n-1 && m.lineNumber > (m.viewMax+m.viewMin)/2 {
			m.viewMin++
			m.viewMax++
		}
	}
}

func (m *Model) scrollUp(times int) {
	for range times {
		m.lineNumber--
		if m.lineNumber < 0 {
			m.lineNumber = 0
		}

		if m.viewMin > 0 && m.lineNumber < (m.viewMax+m.viewMin)/2 {
			m.viewMin--
			m.viewMax--
		}
	}
}

// press clicks b and refreshes the viewport, keeping the cursor on
// the directory we left when it's part of the new listing.
func (m Model) press(b Button) (tea.Model, tea.Cmd) {
	from := m.nav.Cwd()
	b.Click()
	m.relist(from)

	return m, nil
}

// explore opens the entry under the cursor. Selecting a directory
// fills in the path box; the go button then does the rest.
func (m Model) explore() (tea.Model, tea.Cmd) {
	item, ok := m.itemAtPoint()
	if !ok || item.Path == "" {
		return m, nil
	}

	m.nav.Picker().Select([]string{item.Path})

	return m.follow(item.Path)
}

// follow presses go once the path text box has taken target. Files
// don't arm the go button, and a path outside the root is replaced
// by the root; in both cases we stay put.
func (m Model) follow(target string) (tea.Model, tea.Cmd) {
	goBtn := m.nav.Buttons().Go
	if goBtn.Disabled() || m.nav.PathInput().Value() != m.nav.normalize(target) {
		return m, nil
	}

	return m.press(goBtn)
}

func (m Model) toggleSelect() (tea.Model, tea.Cmd) {
	item, ok := m.itemAtPoint()

	// The parent entry and the error placeholder can't be selected.
	if !ok || item.Path == "" || item.Label == parentLabel {
		return m, nil
	}

	chosen := m.nav.Picker().Chosen()
	if pos := slices.Index(chosen, item.Path); pos != -1 {
		log.Printf("deselecting %s", item.Path)
		chosen = slices.Delete(chosen, pos, pos+1)
	} else {
		log.Printf("selecting %s", item.Path)
		chosen = append(chosen, item.Path)
	}

	m.nav.Picker().Commit(chosen)

	msg := SelectionMsg{ID: m.id, Paths: m.nav.Value()}
	return m, func() tea.Msg { return msg }
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.editing = false
		m.pathInput.Blur()

		target := m.pathInput.Value()
		m.nav.PathInput().SetValue(target)

		return m.follow(target)

	case tea.KeyEsc:
		m.editing = false
		m.pathInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)

	return m, cmd
}

func (m Model) Init() tea.Cmd {
	log.Printf("Starting in %s", m.nav.Cwd())
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewHeight = max(3, msg.Height-viewChrome)
		m.help.Width = msg.Width
		m.pathInput.Width = max(10, msg.Width-20)

		item, _ := m.itemAtPoint()
		m.relist(item.Path)

	case SelectionMsg:
		// Our own announcement; it's for whoever embeds us.

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}

		buttons := m.nav.Buttons()

		switch {
		case key.Matches(msg, m.keyMap.quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.down):
			m.scrollDown(1)

		case key.Matches(msg, m.keyMap.up):
			m.scrollUp(1)

		case key.Matches(msg, m.keyMap.beginning):
			m.scrollUp(len(m.nav.Picker().Items()) - 1)

		case key.Matches(msg, m.keyMap.end):
			m.scrollDown(len(m.nav.Picker().Items()) - 1)

		case key.Matches(msg, m.keyMap.home):
			return m.press(buttons.Home)

		case key.Matches(msg, m.keyMap.back):
			return m.press(buttons.Back)

		case key.Matches(msg, m.keyMap.forward):
			return m.press(buttons.Forward)

		case key.Matches(msg, m.keyMap.parent):
			return m.press(buttons.Up)

		case key.Matches(msg, m.keyMap.explore):
			return m.explore()

		case key.Matches(msg, m.keyMap.toggleSelect):
			return m.toggleSelect()

		case key.Matches(msg, m.keyMap.toggleHidden):
			item, _ := m.itemAtPoint()
			m.nav.SetShowHidden(!m.nav.Config().ShowHidden)
			m.relist(item.Path)

		case key.Matches(msg, m.keyMap.edit):
			m.editing = true
			m.pathInput.SetValue(m.nav.PathInput().Value())
			m.pathInput.CursorEnd()
			return m, m.pathInput.Focus()

		case key.Matches(msg, m.keyMap.jump):
			index, err := strconv.Atoi(msg.String())
			if err != nil {
				return m, nil
			}

			m.nav.Jump(index)
			m.relist("")

		case key.Matches(msg, m.keyMap.showHelp):
			m.help.ShowAll = !m.help.ShowAll
		}

	default:
		log.Printf("Uncaught message: %v", msg)
	}

	return m, nil
}

func (m Model) View() string {
	// Don't render anything in this case; see [Model.quitting].
	if m.quitting {
		return ""
	}

	var (
		view        strings.Builder
		borderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(0, 1)
		activeStyle   = lipgloss.NewStyle().Bold(true)
		inactiveStyle = lipgloss.NewStyle().Faint(true)
		errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
		entryStyle    = lipgloss.NewStyle().MarginLeft(2)
	)

	glyph := func(b Button, s string) string {
		if b.Disabled() {
			return inactiveStyle.Render(s)
		}

		return activeStyle.Render(s)
	}

	buttons := m.nav.Buttons()
	path := m.nav.PathInput().Value()
	if m.editing {
		path = m.pathInput.View()
	}

	fmt.Fprintf(&view, "%s %s %s %s  %s %s\n",
		glyph(buttons.Home, "⌂"),
		glyph(buttons.Back, "◀"),
		glyph(buttons.Forward, "▶"),
		glyph(buttons.Up, "▲"),
		path,
		glyph(buttons.Go, "↵"))

	picker := m.nav.Picker()
	items := picker.Items()
	chosen := picker.Chosen()

	// Display an "↑" to show there are entries hidden above the
	// visible region.
	if m.viewMin > 0 {
		view.WriteString(entryStyle.Render("   ↑") + "\n")
	}

	for i, it := range items {
		if i < m.viewMin || i > m.viewMax {
			continue
		}

		if picker.Disabled() {
			view.WriteString(entryStyle.Render(errorStyle.Render(it.Label)) + "\n")
			continue
		}

		mark := " "
		if slices.Contains(chosen, it.Path) {
			mark = "✓"
		}

		pointer := " "
		label := it.Label
		if i == m.lineNumber {
			pointer = "→"
			label = lipgloss.NewStyle().Underline(true).Render(label)
		}

		view.WriteString(entryStyle.Render(fmt.Sprintf("%s [%s] %s", pointer, mark, label)) + "\n")
	}

	if m.viewMax < len(items)-1 {
		view.WriteString(entryStyle.Render("   ↓") + "\n")
	}

	view.WriteString("\n" + m.help.View(m.keyMap))

	// Display the "jump list."
	if value := m.nav.Value(); len(value) > 0 {
		view.WriteString("\n\nJump list:")
		for i, s := range value[:min(len(value), maxJumps)] {
			fmt.Fprintf(&view, "\n%d: %s", i, filepath.Base(s))
		}
	}

	return borderStyle.Render(view.String())
}
