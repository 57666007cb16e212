// Command fileselect browses a directory tree in the terminal and
// prints the selected paths, one per line, when it exits.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BrandonIrizarry/fileselect"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-git/go-billy/v5/osfs"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configPath string
		root       string
		pattern    string
		onlyFiles  bool
		showHidden bool
	)

	flags := flag.NewFlagSet("fileselect", flag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "TOML file with default settings")
	flags.StringVar(&root, "root", "", "Directory to browse; navigation can't leave it")
	flags.StringVar(&pattern, "pattern", fileselect.DefaultPattern, "Glob filtering file names")
	flags.BoolVar(&onlyFiles, "only-files", false, "Allow selecting files only")
	flags.BoolVar(&showHidden, "show-hidden", false, "List entries starting with a period")
	if err := flags.Parse(args); err != nil {
		return err
	}

	// Set up logging first, so that nothing is written over the
	// UI.
	logFile, err := os.OpenFile("debug.log", os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("couldn't create debug.log: %w", err)
	}
	defer logFile.Close()

	log.SetOutput(logFile)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Flags given explicitly win over the config file.
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "root":
			cfg.Root = root
		case "pattern":
			cfg.Pattern = pattern
		case "only-files":
			cfg.OnlyFiles = onlyFiles
		case "show-hidden":
			cfg.ShowHidden = showHidden
		}
	})

	if flags.NArg() > 0 {
		cfg.Root = flags.Arg(0)
	}

	m, err := fileselect.New(cfg)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		log.Printf("program failed: %v", err)
		return err
	}

	for _, p := range final.(fileselect.Model).Value() {
		fmt.Println(p)
	}

	return nil
}

func loadConfig(path string) (fileselect.Config, error) {
	cfg, err := fileselect.DefaultConfig()
	if err != nil {
		return fileselect.Config{}, err
	}

	if path == "" {
		return cfg, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fileselect.Config{}, fmt.Errorf("error resolving config path: %w", err)
	}

	return fileselect.LoadConfig(osfs.New("/"), abs, cfg)
}
