// Package cmd implements the todotui command line interface.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"todotui/internal/colorscheme"
	"todotui/internal/config"
	"todotui/internal/session"
	"todotui/internal/shutdown"
	"todotui/internal/tui"
	"todotui/internal/utils"
)

// Version is set at build time
var Version = "dev"

// Config holds application configuration resolved from flags.
type Config struct {
	File        string
	ArchiveFile string
	ConfigPath  string
	Verbose     bool

	// RequireTTY is disabled in tests so the TUI can run under a pty-less
	// test driver.
	RequireTTY bool
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	rootCmd := NewRoot(stdout, stderr, cfg)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// NewRoot creates the root command with injectable IO
func NewRoot(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{RequireTTY: true}
	}

	cmd := &cobra.Command{
		Use:     "todotui",
		Short:   "An interactive terminal editor for todo.txt files",
		Long:    "todotui edits plain-text task lists in the todo.txt convention, with undo/redo, filtering, search, sorting, archiving, and live reload when the file changes on disk.",
		Version: Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			utils.SetVerboseMode(cfg.Verbose)
			return run(cmd, cfg, stdout)
		},
	}

	cmd.Flags().StringVarP(&cfg.File, "file", "f", "", "path to your todo.txt file (overrides config)")
	cmd.Flags().StringVarP(&cfg.ArchiveFile, "archive-file", "a", "", "path to the archive (done.txt) file")
	cmd.Flags().StringVarP(&cfg.ConfigPath, "config", "c", "", "path to the configuration file")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable verbose logging")

	return cmd
}

func run(cmd *cobra.Command, cfg *Config, stdout io.Writer) error {
	fileCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.File != "" {
		fileCfg.File = config.ExpandPath(cfg.File)
	}
	if cfg.ArchiveFile != "" {
		fileCfg.ArchiveFile = config.ExpandPath(cfg.ArchiveFile)
	}
	if err := fileCfg.Validate(); err != nil {
		return err
	}

	todoPath, err := resolveTodoPath(fileCfg.File)
	if err != nil {
		return err
	}

	if cfg.RequireTTY {
		f, ok := stdout.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return fmt.Errorf("todotui is interactive; run it in a terminal")
		}
	}

	// The TUI owns the terminal from here on: route logs to a file in
	// verbose mode, drop them otherwise.
	logger := utils.GetLogger()
	logger.SetOutput(nil)
	if cfg.Verbose {
		logPath := filepath.Join(config.GetConfigDir(), "todotui.log")
		if f, lerr := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); lerr == nil {
			logger.SetOutput(f)
			defer func() { _ = f.Close() }()
		}
	}
	utils.Infof("editing %s", todoPath)

	scheme, err := colorscheme.Load(fileCfg.Colorscheme, filepath.Dir(configDirOf(cfg.ConfigPath)))
	if err != nil {
		utils.Warnf("%v, using default colorscheme", err)
	}

	sess := session.New(todoPath, fileCfg.ArchiveFile)
	defer sess.Close()

	mgr := shutdown.NewManager()
	// Registered first so it runs last: the final save must see all other
	// teardown (watcher mute is irrelevant by then) already done.
	mgr.RegisterCleanup("final-save", func(ctx context.Context) error {
		return sess.Save()
	})

	if err := sess.StartWatching(); err != nil {
		utils.Warnf("file watching disabled: %v", err)
	}
	sess.StartAutosave(fileCfg.Autosave())

	model := tui.New(sess, scheme)
	model.SetCaseSensitiveSearch(fileCfg.SearchCaseSensitive)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithOutput(stdout))
	if _, err := p.Run(); err != nil {
		utils.Errorf("TUI terminated: %v", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	mgr.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mgr.Wait(ctx); err != nil {
		return fmt.Errorf("failed to save on exit: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "Wrote %s\n", todoPath)
	return nil
}

// resolveTodoPath validates the todo path the way the session expects:
// directories are rejected, a missing file in an existing directory is
// created empty, a missing directory is an error.
func resolveTodoPath(path string) (string, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return "", utils.ErrTodoFileIsDir(path)
	case os.IsNotExist(err):
		dir := filepath.Dir(path)
		if di, derr := os.Stat(dir); derr != nil || !di.IsDir() {
			return "", utils.ErrDirNotExist(dir)
		}
		f, cerr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
		if cerr != nil {
			return "", fmt.Errorf("failed to create %s: %w", path, cerr)
		}
		_ = f.Close()
	}
	return path, nil
}

// configDirOf returns the directory colorschemes are resolved against.
func configDirOf(configPath string) string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(config.GetConfigDir(), "config.yaml")
}
