package fileselect

import (
	"io/fs"
	"log"
	"path/filepath"
	"slices"

	"github.com/go-git/go-billy/v5"
	"github.com/gobwas/glob"
	"github.com/jmgilman/go/errors"
)

// maxLinkHops bounds how many symbolic links [realPath] follows
// before giving up, so that link cycles fail instead of spinning.
const maxLinkHops = 40

// Scan lists the immediate children of dir on fsys and returns them
// as absolute paths: first the sorted directories, then the sorted
// files whose base name matches pattern. Patterns use shell glob
// syntax (*, ?, [...], {a,b}) and never filter directories.
//
// Symbolic links get special treatment. The link itself is sorted
// by what it points to, so a link to a directory lands among the
// directories. On top of that, the link's resolved path is always
// added to the directories group, even when it resolves to a regular
// file. The second part is surprising, but hosts that grew up with
// this widget depend on it.
//
// A missing, unreadable or non-directory dir yields an error carrying
// [errors.CodeNotFound].
func Scan(fsys billy.Filesystem, dir, pattern string) ([]string, error) {
	g, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}

	return scan(fsys, dir, g)
}

func compilePattern(pattern string) (glob.Glob, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidInput, "invalid file pattern %q", pattern)
	}

	return g, nil
}

func scan(fsys billy.Filesystem, dir string, pattern glob.Glob) ([]string, error) {
	info, err := fsys.Stat(dir)
	if err != nil {
		return nil, notFound(dir, err)
	}

	// Some billy implementations happily "list" a regular file as
	// an empty directory, so check up front.
	if !info.IsDir() {
		return nil, errors.Newf(errors.CodeNotFound, "%s is not a directory", dir)
	}

	infos, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, notFound(dir, err)
	}

	var dirs, files []string
	for _, fi := range infos {
		path := filepath.Join(dir, fi.Name())

		if fi.Mode()&fs.ModeSymlink == 0 {
			switch {
			case fi.IsDir():
				dirs = append(dirs, path)
			case fi.Mode().IsRegular() && pattern.Match(fi.Name()):
				files = append(files, path)
			}

			continue
		}

		target, err := fsys.Stat(path)
		if err != nil {
			log.Printf("skipping dangling link %s: %v", path, err)
			continue
		}

		switch {
		case target.IsDir():
			dirs = append(dirs, path)
		case target.Mode().IsRegular() && pattern.Match(fi.Name()):
			files = append(files, path)
		}

		resolved, err := realPath(fsys, path)
		if err != nil {
			log.Printf("couldn't resolve %s: %v", path, err)
			continue
		}

		dirs = append(dirs, resolved)
	}

	slices.Sort(dirs)
	slices.Sort(files)

	return append(dirs, files...), nil
}

// realPath follows path through any chain of symbolic links and
// returns the final, cleaned target.
func realPath(fsys billy.Filesystem, path string) (string, error) {
	for range maxLinkHops {
		fi, err := fsys.Lstat(path)
		if err != nil {
			return "", err
		}

		if fi.Mode()&fs.ModeSymlink == 0 {
			return path, nil
		}

		target, err := fsys.Readlink(path)
		if err != nil {
			return "", err
		}

		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}

		path = filepath.Clean(target)
	}

	return "", errors.Newf(errors.CodeInvalidInput, "too many levels of symbolic links at %s", path)
}

// notFound converts a filesystem failure into the single error kind
// callers care about. Permission problems are kept as the cause.
func notFound(dir string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		err = errors.Wrap(err, errors.CodeForbidden, "permission denied")
	}

	return errors.Wrapf(err, errors.CodeNotFound, "cannot list %s", dir)
}
