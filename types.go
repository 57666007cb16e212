package fileselect

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
)

// Model is a Bubble Tea front end for a [Navigator].
type Model struct {
	// The nav field is the navigator holding all browsing state.
	// Models are passed around by value, but they all share this
	// one pointer.
	nav *Navigator

	// The id field is the reference-count id of this model. It
	// tags the [SelectionMsg] values the model emits.
	id int

	// The pathInput field is the editable copy of the navigator's
	// path text box, live only while editing is set.
	pathInput textinput.Model
	editing   bool

	// The lineNumber field is the zero-indexed line number of the
	// entry under the cursor.
	lineNumber int

	// The viewMin and viewMax fields are the bounds of the
	// currently visible portion of the listing; viewHeight is how
	// many entries fit on screen.
	viewMin, viewMax, viewHeight int

	keyMap keyMap
	help   help.Model

	// The quitting flag makes [Model.View] render nothing, so that
	// no stale UI lingers after the program exits.
	quitting bool
}

// keyMap defines key bindings for each user action.
type keyMap struct {
	up           key.Binding
	down         key.Binding
	beginning    key.Binding
	end          key.Binding
	home         key.Binding
	back         key.Binding
	forward      key.Binding
	parent       key.Binding
	explore      key.Binding
	edit         key.Binding
	toggleSelect key.Binding
	toggleHidden key.Binding
	jump         key.Binding
	showHelp     key.Binding
	quit         key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.explore, k.parent, k.toggleSelect, k.edit, k.showHelp, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.beginning, k.end},
		{k.explore, k.parent, k.home, k.back, k.forward},
		{k.toggleSelect, k.toggleHidden, k.edit, k.jump, k.showHelp, k.quit},
	}
}

// SelectionMsg is sent whenever the user changes the selection.
type SelectionMsg struct {
	// ID identifies the [Model] the selection belongs to.
	ID    int
	Paths []string
}
