package fileselect

import (
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/gobwas/glob"
	"github.com/jmgilman/go/errors"
)

const (
	// invalidPathMessage is the lone, disabled entry shown when the
	// requested directory can't be listed.
	invalidPathMessage = "Entered path is not valid"

	// parentLabel labels the entry leading to the parent directory.
	parentLabel = ".."

	// maxJumps is the number of selected entries reachable through
	// [Navigator.Jump], one per digit key.
	maxJumps = 10
)

// visit says how a listing came about, which decides what happens
// to the history.
type visit int

const (
	// visitNew is a fresh navigation, recorded in the history.
	visitNew visit = iota
	visitBack
	visitForward

	// visitReload re-lists a directory, e.g. after a filter changed.
	visitReload
)

// Navigator is the state machine behind the file selector. It owns a
// path text box, an entry picker and five navigation buttons, and
// keeps them consistent with each other and with the directory being
// browsed, which never leaves the configured root.
//
// A Navigator is meant to be driven from a single UI goroutine and is
// not safe for concurrent use.
type Navigator struct {
	fsys    billy.Filesystem
	homeDir string

	cfg     Config
	pattern glob.Glob

	// The cwd field is the directory currently listed. It's always
	// absolute, and at or below cfg.Root.
	cwd  string
	hist history

	value     []string
	observers []func([]string)
	lastErr   error

	path   *textField
	picker *picker

	home, back, forward, up, goBtn *button
}

// Option customizes a [Navigator].
type Option func(*Navigator)

// WithFilesystem makes the navigator browse fsys instead of the
// local disk. Paths on fsys are taken to be absolute.
func WithFilesystem(fsys billy.Filesystem) Option {
	return func(n *Navigator) {
		n.fsys = fsys
	}
}

// WithHomeDir sets the directory "~" expands to. By default it's
// [os.UserHomeDir].
func WithHomeDir(dir string) Option {
	return func(n *Navigator) {
		n.homeDir = dir
	}
}

// NewNavigator builds a navigator from cfg and lists its root. It
// fails only if cfg is invalid or its root isn't a directory.
func NewNavigator(cfg Config, opts ...Option) (*Navigator, error) {
	n := &Navigator{
		path:    &textField{},
		picker:  &picker{},
		home:    &button{},
		back:    &button{},
		forward: &button{},
		up:      &button{},
		goBtn:   &button{},
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.fsys == nil {
		n.fsys = osfs.New("/")
	}

	if n.homeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			n.homeDir = home
		}
	}

	// Wire the collaborators once; they only ever talk to us.
	n.path.onChange(n.setDirectoryText)
	n.picker.onSelect(n.selectEntries)
	n.picker.onCommit(n.commitSelection)
	n.goBtn.onClick(n.ActivateGo)
	n.home.onClick(n.GoHome)
	n.back.onClick(n.GoBack)
	n.forward.onClick(n.GoForward)
	n.up.onClick(n.GoUp)

	if err := n.Reconfigure(cfg); err != nil {
		return nil, err
	}

	return n, nil
}

// Reconfigure replaces the configuration, forgets the history and
// the selection, and lists the (possibly new) root. On error the
// navigator is left as it was.
func (n *Navigator) Reconfigure(cfg Config) error {
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	pattern, err := compilePattern(cfg.Pattern)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(n.expandHome(cfg.Root))
	if err != nil {
		return errors.Wrapf(err, errors.CodeInvalidConfig, "cannot resolve root %s", cfg.Root)
	}

	if _, err := scan(n.fsys, root, pattern); err != nil {
		return errors.Wrapf(err, errors.CodeInvalidConfig, "unusable root %s", root)
	}

	cfg.Root = root
	n.cfg = cfg
	n.pattern = pattern
	n.hist = newHistory()
	n.cwd = ""

	if len(n.value) > 0 {
		n.commitSelection(nil)
	}

	n.path.setQuiet(root)
	n.refresh(root, visitNew)

	return nil
}

// PathInput returns the path text box.
func (n *Navigator) PathInput() PathInput { return n.path }

// Picker returns the entry picker.
func (n *Navigator) Picker() EntryPicker { return n.picker }

// Buttons returns the navigation buttons.
func (n *Navigator) Buttons() NavButtons {
	return NavButtons{
		Home:    n.home,
		Back:    n.back,
		Forward: n.forward,
		Up:      n.up,
		Go:      n.goBtn,
	}
}

// Config returns the active configuration, with Root made absolute.
func (n *Navigator) Config() Config { return n.cfg }

func (n *Navigator) Root() string { return n.cfg.Root }

func (n *Navigator) Cwd() string { return n.cwd }

// History returns a copy of the visited directories and the index
// of the current one.
func (n *Navigator) History() ([]string, int) {
	return n.hist.entries(), n.hist.cursor
}

// Value returns the committed selection.
func (n *Navigator) Value() []string { return slices.Clone(n.value) }

// OnValueChange registers f to be called with every new selection.
func (n *Navigator) OnValueChange(f func([]string)) {
	n.observers = append(n.observers, f)
}

// LastError returns the error behind the most recent failed
// navigation, or nil if the last one succeeded. Such errors never
// escape otherwise; the widget just shows them.
func (n *Navigator) LastError() error { return n.lastErr }

// ActivateGo lists whatever directory the path text box holds.
func (n *Navigator) ActivateGo() {
	n.refresh(n.path.Value(), visitNew)
}

// GoHome returns to the root.
func (n *Navigator) GoHome() {
	n.path.SetValue(n.cfg.Root)
	n.refresh(n.cfg.Root, visitNew)
}

// GoBack revisits the previous history entry, if there is one.
func (n *Navigator) GoBack() {
	target, ok := n.hist.peek(-1)
	if !ok {
		return
	}

	n.path.SetValue(target)
	n.refresh(target, visitBack)
}

// GoForward undoes a [Navigator.GoBack].
func (n *Navigator) GoForward() {
	target, ok := n.hist.peek(1)
	if !ok {
		return
	}

	n.path.SetValue(target)
	n.refresh(target, visitForward)
}

// GoUp moves to the parent directory. It does nothing at the root.
// The parent is recorded as a fresh visit even when it's also
// reachable through GoBack.
func (n *Navigator) GoUp() {
	if n.cwd == n.cfg.Root {
		return
	}

	parent := filepath.Dir(n.cwd)
	n.path.SetValue(parent)
	n.refresh(parent, visitNew)
}

// Jump moves to the directory containing the index'th selected
// entry. Only the first ten entries can be jumped to.
func (n *Navigator) Jump(index int) {
	if index < 0 || index >= len(n.value) || index >= maxJumps {
		return
	}

	dir := filepath.Dir(n.value[index])
	n.path.SetValue(dir)
	n.refresh(dir, visitNew)
}

// SetShowHidden toggles the listing of dot-files and re-lists the
// current directory.
func (n *Navigator) SetShowHidden(show bool) {
	n.cfg.ShowHidden = show
	n.refresh(n.cwd, visitReload)
}

// SetPattern changes the file filter and re-lists the current
// directory.
func (n *Navigator) SetPattern(pattern string) error {
	if pattern == "" {
		pattern = DefaultPattern
	}

	g, err := compilePattern(pattern)
	if err != nil {
		return err
	}

	n.cfg.Pattern = pattern
	n.pattern = g
	n.refresh(n.cwd, visitReload)

	return nil
}

// setDirectoryText reacts to edits of the path text box. It snaps
// the text back to the root when it points outside of it, rewrites
// it in normalized form otherwise, and arms the go button unless the
// text names the directory already shown.
func (n *Navigator) setDirectoryText(text string) {
	path := n.normalize(text)

	if !n.withinRoot(path) {
		log.Printf("%s is outside of %s; resetting", path, n.cfg.Root)
		n.lastErr = errors.Newf(errors.CodeInvalidInput, "%s is outside of %s", path, n.cfg.Root)
		n.path.setQuiet(n.cfg.Root)
		n.goBtn.disabled = n.cfg.Root == n.cwd

		return
	}

	if path != text {
		n.path.setQuiet(path)
	}

	n.goBtn.disabled = path == n.cwd
}

// selectEntries handles clicks in the picker's available list. A
// click on a single directory puts it in the path text box; anything
// else puts the current directory back.
func (n *Navigator) selectEntries(paths []string) {
	if len(paths) != 1 {
		n.path.SetValue(n.cwd)
		return
	}

	sel := paths[0]
	if !filepath.IsAbs(sel) {
		sel = filepath.Join(n.cwd, sel)
	}

	if n.isDir(sel) {
		n.path.SetValue(sel)
	} else {
		n.path.SetValue(n.cwd)
	}
}

// commitSelection handles changes of the chosen list.
func (n *Navigator) commitSelection(paths []string) {
	value := make([]string, 0, len(paths))
	for _, p := range paths {
		if n.cfg.OnlyFiles && !n.isFile(p) {
			continue
		}

		if !slices.Contains(value, p) {
			value = append(value, p)
		}
	}

	n.picker.setChosen(slices.Clone(value))
	n.value = value

	log.Printf("selection is now %v", value)
	for _, f := range n.observers {
		f(slices.Clone(value))
	}
}

// refresh lists target and, if that works, makes it the current
// directory. A failure leaves cwd and the history alone and puts the
// picker into its error state. It reports whether target was listed.
func (n *Navigator) refresh(target string, how visit) bool {
	target = n.normalize(target)

	if !n.withinRoot(target) {
		n.setDirectoryText(target)
		return false
	}

	entries, err := scan(n.fsys, target, n.pattern)
	if err != nil {
		log.Printf("couldn't list %s: %v", target, err)
		n.lastErr = err
		n.picker.items = []Item{{Label: invalidPathMessage}}
		n.picker.disabled = true

		return false
	}

	switch how {
	case visitNew:
		n.hist.push(target)
	case visitBack:
		n.hist.move(-1)
	case visitForward:
		n.hist.move(1)
	}

	n.cwd = target
	n.lastErr = nil
	n.path.setQuiet(target)

	atRoot := target == n.cfg.Root
	n.goBtn.disabled = true
	n.home.disabled = atRoot
	n.up.disabled = atRoot
	n.forward.disabled = !n.hist.canForward()
	n.back.disabled = !n.hist.canBack()

	n.picker.setItems(n.items(entries))

	return true
}

// items builds the picker rows for the listing of cwd.
func (n *Navigator) items(entries []string) []Item {
	items := make([]Item, 0, len(entries)+1)
	if n.cwd != n.cfg.Root {
		items = append(items, Item{Label: parentLabel, Path: filepath.Dir(n.cwd)})
	}

	// Two entries can share a label when a link resolves to a
	// sibling; the later path wins but the row keeps its place.
	seen := make(map[string]int, len(entries))
	for _, p := range entries {
		name := filepath.Base(p)
		if !n.cfg.ShowHidden && strings.HasPrefix(name, ".") {
			continue
		}

		label := "./" + name
		if i, ok := seen[label]; ok {
			items[i].Path = p
			continue
		}

		seen[label] = len(items)
		items = append(items, Item{Label: label, Path: p})
	}

	return items
}

// normalize makes text an absolute, clean path. "~" stands for the
// home directory; other relative paths are taken from the current
// directory (or the root before anything has been listed).
func (n *Navigator) normalize(text string) string {
	path := n.expandHome(text)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	base := n.cwd
	if base == "" {
		base = n.cfg.Root
	}

	return filepath.Join(base, path)
}

func (n *Navigator) expandHome(path string) string {
	if n.homeDir == "" {
		return path
	}

	if path == "~" {
		return n.homeDir
	}

	if rest, ok := strings.CutPrefix(path, "~"+string(filepath.Separator)); ok {
		return filepath.Join(n.homeDir, rest)
	}

	return path
}

// withinRoot reports whether path is the root or lies below it.
func (n *Navigator) withinRoot(path string) bool {
	rel, err := filepath.Rel(n.cfg.Root, path)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (n *Navigator) isDir(path string) bool {
	fi, err := n.fsys.Stat(path)
	return err == nil && fi.IsDir()
}

func (n *Navigator) isFile(path string) bool {
	fi, err := n.fsys.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
