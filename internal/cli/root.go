// Package cli is the todo command line. With no subcommand it runs the
// terminal UI; the subcommands script the same store.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/tgienger/todo/internal/config"
	"github.com/tgienger/todo/internal/logging"
	"github.com/tgienger/todo/internal/storage"
	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/ui"
)

// flushTimeout bounds the final write of unsaved changes on exit
const flushTimeout = 5 * time.Second

// BuildInfo is stamped into the binary via ldflags
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", b.Version, b.Commit, b.Date)
}

// app carries the state shared by every command of one invocation
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	build  BuildInfo

	// flags
	configPath string
	yes        bool

	cfg     *config.Config
	logger  *log.Logger
	logFile *os.File
	backend storage.Backend
	store   *store.Store
}

func newApp(in io.Reader, out, errOut io.Writer, build BuildInfo) *app {
	return &app{
		in:     in,
		out:    out,
		errOut: errOut,
		build:  build,
	}
}

// Execute runs the command line and returns the process exit code
func Execute(build BuildInfo) int {
	a := newApp(os.Stdin, os.Stdout, os.Stderr, build)
	err := a.command().ExecuteContext(context.Background())
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "todo",
		Short:         "A local to-do manager",
		Long:          "todo keeps tasks with priorities, due dates and tags or categories.\nRun it without a command to open the terminal UI.",
		Version:       a.build.String(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runTUI,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "Answer yes to every confirmation prompt")

	root.AddCommand(
		a.addCmd(),
		a.listCmd(),
		a.showCmd(),
		a.editCmd(),
		a.doneCmd(),
		a.rmCmd(),
		a.statsCmd(),
		a.tagCmd(),
		a.themeCmd(),
		a.serveCmd(),
		a.versionCmd(),
	)
	return root
}

// setup loads the config and opens the store. The TUI logs to a file so
// log lines never land on the alt screen.
func (a *app) setup(ctx context.Context, tui bool) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	w := a.errOut
	if tui {
		path := cfg.Log.Path
		if path == "" {
			path = logging.DefaultPath()
		}
		f, err := logging.OpenFile(path)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		w = f
	}
	a.logger = logging.New(logging.Options{Writer: w, Level: cfg.Log.Level})

	if a.backend == nil {
		if a.backend, err = openBackend(cfg, a.logger); err != nil {
			return err
		}
	}

	a.store, err = store.Open(ctx, a.backend, store.Options{
		Variant: cfg.Variant,
		Seed:    cfg.Seed,
		Logger:  a.logger,
	})
	return err
}

// openBackend opens the configured backend, falling back to memory only
// when the config allows it
func openBackend(cfg *config.Config, logger *log.Logger) (storage.Backend, error) {
	b, err := storage.Open(cfg.StorageOptions())
	if err == nil {
		return b, nil
	}
	if !cfg.Storage.FallbackMemory {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	logger.Warn("storage unavailable, changes will not be saved", "backend", cfg.Storage.Backend, "err", err)
	return storage.NewMemory(), nil
}

// close writes anything a failed save left behind, then releases the
// backend and the log file
func (a *app) close() error {
	var err error
	if a.store != nil && a.store.Dirty() {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		if err = a.store.Flush(ctx); err != nil {
			a.logger.Error("unsaved changes lost", "err", err)
		}
		cancel()
	}
	if a.backend != nil {
		if cerr := a.backend.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}

// run wraps a command body that needs the store
func (a *app) run(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.setup(cmd.Context(), false); err != nil {
			return err
		}
		return fn(cmd.Context(), args)
	}
}

func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := a.setup(ctx, true); err != nil {
		return err
	}

	p := tea.NewProgram(ui.NewApp(a.store, a.logger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

// confirm asks prompt on stdin unless --yes was given. Anything but y or
// yes declines.
func (a *app) confirm(prompt string) bool {
	if a.yes {
		return true
	}
	fmt.Fprintf(a.errOut, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(a.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(a.out, "todo", a.build)
			return nil
		},
	}
}
