package fileselect

import (
	"io/fs"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataTree(t *testing.T) billy.Filesystem {
	t.Helper()

	return newTree(t,
		"/data/archive/", "/data/archive/old.csv", "/data/archive/2019/",
		"/data/a.csv", "/data/notes.txt",
		"/data/.hidden.csv", "/data/.cache/",
		"/database/", "/outside/x.csv",
	)
}

func newTestNavigator(t *testing.T, fsys billy.Filesystem, cfg Config) *Navigator {
	t.Helper()

	if cfg.Root == "" {
		cfg.Root = "/data"
	}

	n, err := NewNavigator(cfg, WithFilesystem(fsys), WithHomeDir("/data/archive"))
	require.NoError(t, err)

	return n
}

// deniedFS refuses to list one directory, the way an unreadable
// directory on disk would.
type deniedFS struct {
	billy.Filesystem
	denied string
}

func (d deniedFS) ReadDir(path string) ([]fs.FileInfo, error) {
	if path == d.denied {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
	}

	return d.Filesystem.ReadDir(path)
}

func labels(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}

	return out
}

// checkInvariants verifies what must hold after every operation: the
// cursor sits on cwd, and the buttons reflect where we are.
func checkInvariants(t *testing.T, n *Navigator) {
	t.Helper()

	stack, cursor := n.History()
	require.GreaterOrEqual(t, cursor, 0)
	require.Less(t, cursor, len(stack))
	assert.Equal(t, n.Cwd(), stack[cursor], "stack[cursor] is cwd")

	b := n.Buttons()
	assert.Equal(t, cursor <= 0, b.Back.Disabled(), "back")
	assert.Equal(t, cursor == len(stack)-1, b.Forward.Disabled(), "forward")
	assert.Equal(t, n.Cwd() == n.Root(), b.Home.Disabled(), "home")
	assert.Equal(t, n.Cwd() == n.Root(), b.Up.Disabled(), "up")
}

func TestNavigatorInitialState(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{Pattern: "*.csv"})

	assert.Equal(t, "/data", n.Cwd())
	assert.Equal(t, "/data", n.PathInput().Value())

	stack, cursor := n.History()
	assert.Equal(t, []string{"/data"}, stack)
	assert.Equal(t, 0, cursor)

	b := n.Buttons()
	for name, btn := range map[string]Button{
		"home": b.Home, "back": b.Back, "forward": b.Forward, "up": b.Up, "go": b.Go,
	} {
		assert.True(t, btn.Disabled(), name)
	}

	// notes.txt doesn't match, hidden entries are left out and
	// there's no ".." at the root.
	assert.Equal(t, []Item{
		{Label: "./archive", Path: "/data/archive"},
		{Label: "./a.csv", Path: "/data/a.csv"},
	}, n.Picker().Items())
	assert.False(t, n.Picker().Disabled())
}

func TestNavigatorNewErrors(t *testing.T) {
	fsys := dataTree(t)

	tests := map[string]Config{
		"missing root": {Root: "/nope"},
		"file as root": {Root: "/data/a.csv"},
		"empty root":   {Root: ""},
		"bad pattern":  {Root: "/data", Pattern: "[x"},
	}

	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewNavigator(cfg, WithFilesystem(fsys))
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
		})
	}
}

func TestNavigatorIntoDirectoryAndUp(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{Pattern: "*.csv"})

	// A click on a directory fills in the path; go does the rest.
	n.Picker().Select([]string{"/data/archive"})
	assert.Equal(t, "/data/archive", n.PathInput().Value())
	assert.Equal(t, "/data", n.Cwd())
	require.False(t, n.Buttons().Go.Disabled())

	n.Buttons().Go.Click()
	assert.Equal(t, "/data/archive", n.Cwd())
	checkInvariants(t, n)
	assert.True(t, n.Buttons().Go.Disabled())

	assert.Equal(t, []Item{
		{Label: "..", Path: "/data"},
		{Label: "./2019", Path: "/data/archive/2019"},
		{Label: "./old.csv", Path: "/data/archive/old.csv"},
	}, n.Picker().Items())

	n.Buttons().Up.Click()
	assert.Equal(t, "/data", n.Cwd())
	checkInvariants(t, n)

	stack, cursor := n.History()
	assert.Equal(t, []string{"/data", "/data/archive", "/data"}, stack)
	assert.Equal(t, 2, cursor)

	n.Buttons().Back.Click()
	assert.Equal(t, "/data/archive", n.Cwd())
	assert.Equal(t, "/data/archive", n.PathInput().Value())
	assert.False(t, n.Buttons().Forward.Disabled())
	checkInvariants(t, n)

	n.Buttons().Back.Click()
	assert.Equal(t, "/data", n.Cwd())
	assert.True(t, n.Buttons().Back.Disabled())
	checkInvariants(t, n)

	n.Buttons().Forward.Click()
	n.Buttons().Forward.Click()
	assert.Equal(t, "/data", n.Cwd())
	_, cursor = n.History()
	assert.Equal(t, 2, cursor)
	checkInvariants(t, n)
}

func TestNavigatorHistoryInvariantHolds(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{})

	visit := func(path string) {
		n.PathInput().SetValue(path)
		n.ActivateGo()
	}

	visit("/data/archive")
	visit("/data/archive/2019")
	visit("/data/.cache")

	steps := []func(){
		n.GoBack, n.GoBack, n.GoBack, n.GoBack,
		n.GoForward, n.GoBack, n.GoForward, n.GoForward, n.GoForward, n.GoForward,
		n.GoUp, n.GoBack, n.GoHome, n.GoBack, n.GoForward,
	}

	for _, step := range steps {
		step()
		checkInvariants(t, n)
	}
}

func TestNavigatorFreshVisitDropsForwardHistory(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{})

	n.PathInput().SetValue("/data/archive")
	n.ActivateGo()
	n.PathInput().SetValue("/data/archive/2019")
	n.ActivateGo()

	n.GoBack()
	n.GoBack()
	n.PathInput().SetValue("/data/.cache")
	n.ActivateGo()

	stack, cursor := n.History()
	assert.Equal(t, []string{"/data", "/data/.cache"}, stack)
	assert.Equal(t, 1, cursor)
	checkInvariants(t, n)
}

func TestNavigatorNoOps(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{})

	n.GoUp()
	n.GoBack()
	n.GoForward()
	n.Buttons().Up.Click()
	n.Buttons().Home.Click()

	stack, cursor := n.History()
	assert.Equal(t, []string{"/data"}, stack)
	assert.Equal(t, 0, cursor)
	assert.Equal(t, "/data", n.Cwd())

	// Going home from home isn't a new visit.
	n.GoHome()
	stack, _ = n.History()
	assert.Len(t, stack, 1)
}

func TestNavigatorRejectsPathsOutsideRoot(t *testing.T) {
	for _, text := range []string{"/outside", "/database", "/data/../outside", "/", "~/../../outside"} {
		t.Run(text, func(t *testing.T) {
			n := newTestNavigator(t, dataTree(t), Config{})

			n.PathInput().SetValue(text)
			assert.Equal(t, "/data", n.PathInput().Value())
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(n.LastError()))

			n.ActivateGo()
			assert.Equal(t, "/data", n.Cwd())

			stack, _ := n.History()
			assert.Equal(t, []string{"/data"}, stack)
		})
	}
}

func TestNavigatorNormalizesPathText(t *testing.T) {
	tests := map[string]string{
		"/data/archive/../archive/": "/data/archive",
		"/data//archive":            "/data/archive",
		"archive":                   "/data/archive",
		"./archive/2019/..":         "/data/archive",
		"~":                         "/data/archive",
		"~/2019":                    "/data/archive/2019",
		"/data/not/there":           "/data/not/there",
		"":                          "/data",
	}

	for text, want := range tests {
		t.Run(text, func(t *testing.T) {
			n := newTestNavigator(t, dataTree(t), Config{})

			n.PathInput().SetValue(text)
			assert.Equal(t, want, n.PathInput().Value())

			// Normalizing again changes nothing.
			n.PathInput().SetValue(n.PathInput().Value())
			assert.Equal(t, want, n.PathInput().Value())

			assert.Equal(t, want == "/data", n.Buttons().Go.Disabled())
		})
	}
}

func TestNavigatorRelativePathsFollowCwd(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{})
	n.PathInput().SetValue("archive")
	n.ActivateGo()

	n.PathInput().SetValue("2019")
	assert.Equal(t, "/data/archive/2019", n.PathInput().Value())

	n.PathInput().SetValue("..")
	assert.Equal(t, "/data", n.PathInput().Value())
}

func TestNavigatorInvalidTargetShowsErrorState(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{})

	for _, target := range []string{"/data/a.csv", "/data/missing"} {
		n.PathInput().SetValue(target)
		n.ActivateGo()

		assert.Equal(t, "/data", n.Cwd())
		assert.True(t, n.Picker().Disabled())
		assert.Equal(t, []Item{{Label: invalidPathMessage}}, n.Picker().Items())
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(n.LastError()))

		stack, cursor := n.History()
		assert.Equal(t, []string{"/data"}, stack)
		assert.Equal(t, 0, cursor)
	}

	// A disabled picker ignores clicks and commits.
	n.Picker().Commit([]string{"/data/a.csv"})
	assert.Empty(t, n.Value())

	// The next good listing brings the picker back.
	n.GoHome()
	assert.False(t, n.Picker().Disabled())
	assert.NoError(t, n.LastError())
	assert.Equal(t, []string{"./archive", "./a.csv", "./notes.txt"}, labels(n.Picker().Items()))
}

func TestNavigatorSelectingFilesDoesNotNavigate(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{})

	n.PathInput().SetValue("/data/archive")
	n.Picker().Select([]string{"/data/a.csv"})
	assert.Equal(t, "/data", n.PathInput().Value())
	assert.Equal(t, "/data", n.Cwd())
	assert.True(t, n.Buttons().Go.Disabled())

	n.PathInput().SetValue("/data/archive")
	n.Picker().Select([]string{"/data/archive", "/data/a.csv"})
	assert.Equal(t, "/data", n.PathInput().Value())

	n.PathInput().SetValue("/data/archive")
	n.Picker().Select(nil)
	assert.Equal(t, "/data", n.PathInput().Value())
	assert.Equal(t, "/data", n.Cwd())
}

func TestNavigatorHiddenEntries(t *testing.T) {
	fsys := dataTree(t)

	n := newTestNavigator(t, fsys, Config{ShowHidden: true})
	assert.Equal(t,
		[]string{"./.cache", "./archive", "./.hidden.csv", "./a.csv", "./notes.txt"},
		labels(n.Picker().Items()))

	n.SetShowHidden(false)
	assert.Equal(t, []string{"./archive", "./a.csv", "./notes.txt"}, labels(n.Picker().Items()))

	stack, _ := n.History()
	assert.Len(t, stack, 1, "re-listing isn't a visit")
}

func TestNavigatorSetPattern(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{Pattern: "*.csv"})

	require.NoError(t, n.SetPattern("*.txt"))
	assert.Equal(t, []string{"./archive", "./notes.txt"}, labels(n.Picker().Items()))
	assert.Equal(t, "*.txt", n.Config().Pattern)

	err := n.SetPattern("[oops")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Equal(t, "*.txt", n.Config().Pattern)
}

func TestNavigatorCommitOnlyFiles(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{OnlyFiles: true})

	var seen [][]string
	n.OnValueChange(func(v []string) { seen = append(seen, v) })

	n.Picker().Commit([]string{"/data/archive", "/data/a.csv"})

	assert.Equal(t, []string{"/data/a.csv"}, n.Value())
	assert.Equal(t, []string{"/data/a.csv"}, n.Picker().Chosen())
	assert.Equal(t, [][]string{{"/data/a.csv"}}, seen)
}

func TestNavigatorCommitKeepsDirectories(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{})

	n.Picker().Commit([]string{"/data/archive", "/data/a.csv", "/data/archive"})
	assert.Equal(t, []string{"/data/archive", "/data/a.csv"}, n.Value())

	n.Picker().Commit(nil)
	assert.Empty(t, n.Value())
}

func TestNavigatorJump(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{})
	n.Picker().Commit([]string{"/data/archive/old.csv", "/data/a.csv"})

	n.Jump(0)
	assert.Equal(t, "/data/archive", n.Cwd())
	checkInvariants(t, n)

	n.Jump(1)
	assert.Equal(t, "/data", n.Cwd())

	n.Jump(5)
	assert.Equal(t, "/data", n.Cwd())
}

func TestNavigatorReconfigure(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{})
	n.PathInput().SetValue("/data/archive")
	n.ActivateGo()

	require.NoError(t, n.Reconfigure(Config{Root: "/data/archive", Pattern: "*.csv"}))
	assert.Equal(t, "/data/archive", n.Root())
	assert.Equal(t, "/data/archive", n.Cwd())

	stack, cursor := n.History()
	assert.Equal(t, []string{"/data/archive"}, stack)
	assert.Equal(t, 0, cursor)
	checkInvariants(t, n)

	err := n.Reconfigure(Config{Root: "/nope"})
	require.Error(t, err)
	assert.Equal(t, "/data/archive", n.Root(), "failed reconfiguration changes nothing")
}

func TestNavigatorUnreadableDirectory(t *testing.T) {
	fsys := deniedFS{Filesystem: dataTree(t), denied: "/data/archive"}
	n := newTestNavigator(t, fsys, Config{Pattern: "*.csv"})

	n.PathInput().SetValue("/data/archive")
	n.ActivateGo()

	assert.True(t, n.Picker().Disabled())
	assert.Equal(t, []Item{{Label: invalidPathMessage}}, n.Picker().Items())
	assert.Equal(t, "/data", n.Cwd())

	stack, cursor := n.History()
	assert.Equal(t, []string{"/data"}, stack)
	assert.Equal(t, 0, cursor)

	err := n.LastError()
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.True(t, errors.Is(err, fs.ErrPermission))
}

func TestNavigatorReconfigureClearsSelection(t *testing.T) {
	n := newTestNavigator(t, dataTree(t), Config{})

	var seen [][]string
	n.OnValueChange(func(v []string) { seen = append(seen, v) })

	n.Picker().Commit([]string{"/data/a.csv"})
	require.Equal(t, []string{"/data/a.csv"}, n.Value())

	require.NoError(t, n.Reconfigure(Config{Root: "/data/archive"}))
	assert.Empty(t, n.Value())
	assert.Empty(t, n.Picker().Chosen())
	assert.Equal(t, [][]string{{"/data/a.csv"}, {}}, seen)

	// Nothing left to jump to.
	n.Jump(0)
	assert.Equal(t, "/data/archive", n.Cwd())
}

func TestNavigatorDuplicateLabels(t *testing.T) {
	fsys := newTree(t, "/data/archive/")
	require.NoError(t, fsys.Symlink("/data/archive", "/data/alias"))

	n := newTestNavigator(t, fsys, Config{})
	assert.Equal(t, []Item{
		{Label: "./alias", Path: "/data/alias"},
		{Label: "./archive", Path: "/data/archive"},
	}, n.Picker().Items())
}
