package fileselect

import (
	"bytes"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jmgilman/go/errors"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPattern matches every file.
const DefaultPattern = "*"

// Config holds the settings a [Navigator] is built from.
type Config struct {
	// Root is the directory the user may not leave. A leading "~"
	// is expanded to the home directory and relative paths are
	// made absolute.
	Root string `toml:"root"`

	// Pattern is a glob filtering files (never directories) by
	// base name.
	Pattern string `toml:"pattern"`

	// OnlyFiles keeps directories out of the committed selection.
	// They can still be browsed.
	OnlyFiles bool `toml:"only_files"`

	// ShowHidden lists entries whose name starts with a period.
	ShowHidden bool `toml:"show_hidden"`
}

// DefaultConfig returns a configuration rooted at the process's
// working directory, matching all files.
func DefaultConfig() (Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return Config{}, errors.Wrap(err, errors.CodeInvalidConfig, "cannot determine working directory")
	}

	return Config{
		Root:    wd,
		Pattern: DefaultPattern,
	}, nil
}

// Validate reports whether c can be used to build a [Navigator]. It
// doesn't touch the filesystem.
func (c Config) Validate() error {
	if c.Root == "" {
		return errors.New(errors.CodeInvalidConfig, "root directory is required")
	}

	if _, err := compilePattern(c.Pattern); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "invalid configuration")
	}

	return nil
}

// LoadConfig reads a TOML file from fsys and layers it over base:
// keys missing from the file keep base's values. Unknown keys are an
// error, to catch typos.
//
//	root = "~/data"
//	pattern = "*.csv"
//	only_files = true
func LoadConfig(fsys billy.Filesystem, path string, base Config) (Config, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return Config{}, errors.Wrapf(err, errors.CodeInvalidConfig, "couldn't read config file %s", path)
	}

	cfg := base
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, errors.CodeInvalidConfig, "couldn't parse config file %s", path)
	}

	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
