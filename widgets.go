package fileselect

import "slices"

// Item is one row of the entry picker: a short display label such
// as "./notes.txt" or "..", and the absolute path it stands for.
// Informational rows have an empty Path.
type Item struct {
	Label string
	Path  string
}

// PathInput is the text box holding the directory being browsed.
type PathInput interface {
	Value() string

	// SetValue replaces the text as if the user had typed it, and
	// so triggers validation.
	SetValue(text string)
}

// EntryPicker is the two-pane selector listing the entries of the
// current directory next to the chosen ones. It reports two kinds of
// events: a click on the available list, which is how the user moves
// around, and a change of the chosen list.
type EntryPicker interface {
	Items() []Item
	Disabled() bool
	Chosen() []string

	// Select reports a click on paths in the available list.
	Select(paths []string)

	// Commit replaces the chosen list.
	Commit(paths []string)
}

// Button is a clickable action. Clicking a disabled button does
// nothing.
type Button interface {
	Disabled() bool
	Click()
}

// NavButtons groups the five navigation actions.
type NavButtons struct {
	Home, Back, Forward, Up, Go Button
}

// textField backs [PathInput]. Writes made through setQuiet don't
// notify anybody; that's how the navigator corrects the text from
// inside its own change handler without recursing.
type textField struct {
	value    string
	handlers []func(string)
}

func (f *textField) Value() string { return f.value }

func (f *textField) SetValue(text string) {
	f.value = text
	for _, h := range f.handlers {
		h(text)
	}
}

func (f *textField) setQuiet(text string) { f.value = text }

func (f *textField) onChange(h func(string)) {
	f.handlers = append(f.handlers, h)
}

type picker struct {
	items    []Item
	disabled bool
	chosen   []string

	selectHandlers []func([]string)
	commitHandlers []func([]string)
}

func (p *picker) Items() []Item    { return slices.Clone(p.items) }
func (p *picker) Disabled() bool   { return p.disabled }
func (p *picker) Chosen() []string { return slices.Clone(p.chosen) }

func (p *picker) Select(paths []string) {
	if p.disabled {
		return
	}

	for _, h := range p.selectHandlers {
		h(slices.Clone(paths))
	}
}

func (p *picker) Commit(paths []string) {
	if p.disabled {
		return
	}

	p.chosen = slices.Clone(paths)
	for _, h := range p.commitHandlers {
		h(slices.Clone(paths))
	}
}

// setItems swaps the option list and re-enables the picker.
func (p *picker) setItems(items []Item) {
	p.items = items
	p.disabled = false
}

// setChosen writes the chosen list without firing commit handlers.
func (p *picker) setChosen(paths []string) { p.chosen = paths }

func (p *picker) onSelect(h func([]string)) {
	p.selectHandlers = append(p.selectHandlers, h)
}

func (p *picker) onCommit(h func([]string)) {
	p.commitHandlers = append(p.commitHandlers, h)
}

type button struct {
	disabled bool
	handlers []func()
}

func (b *button) Disabled() bool { return b.disabled }

func (b *button) Click() {
	if b.disabled {
		return
	}

	for _, h := range b.handlers {
		h()
	}
}

func (b *button) onClick(h func()) {
	b.handlers = append(b.handlers, h)
}
