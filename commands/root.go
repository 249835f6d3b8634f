package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-worktime-tracker/internal/config"
	"github.com/penwyp/go-worktime-tracker/internal/core/session"
	"github.com/penwyp/go-worktime-tracker/internal/data/store"
	"github.com/penwyp/go-worktime-tracker/internal/git"
	"github.com/penwyp/go-worktime-tracker/internal/report"
	"github.com/penwyp/go-worktime-tracker/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug bool

	// Paths
	baseDir  string
	watchDir string

	rootCmd = &cobra.Command{
		Use:   "worktime-tracker [command]",
		Short: "Case study work time tracker",
		Long: `worktime-tracker measures how long a candidate actively works on a take-home
exercise. File edits under the watched directory and git hook invocations are
merged into sessions separated by inactivity, and stored in a checksummed file.

Examples:
  worktime-tracker start                       # Watch ./solution until Ctrl+C
  worktime-tracker stats                       # Quick statistics
  worktime-tracker report                      # Write tracker-report.json and print it
  worktime-tracker record "reading the brief"  # Record a manual activity
  worktime-tracker --base-dir /path/to/repo stats`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runStart,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "",
		"Repository root holding the tracker files (default: $TRACKER_BASE_PATH or the working directory)")
	rootCmd.PersistentFlags().StringVar(&watchDir, "watch-dir", "",
		"Directory to watch for edits (default: <base-dir>/solution)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

func Execute() error {
	return rootCmd.Execute()
}

// app wires the tracker components for one invocation
type app struct {
	cfg     *config.Config
	store   *store.Store
	manager *session.Manager
	git     *git.Integration
	reports *report.Generator
	logger  *util.Logger

	mu  sync.Mutex
	out io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	logLevel := ""
	if debug {
		logLevel = "debug"
	}

	cfg, err := config.Load(config.Overrides{
		BaseDir:  expandPath(baseDir),
		WatchDir: watchDir,
		LogLevel: logLevel,
	})
	if err != nil {
		return nil, err
	}

	// Initialize logging
	ensureDir(filepath.Dir(cfg.LogFile))
	logger, logErr := util.NewLogger(cfg.LogLevel, cfg.LogFile, debug)
	util.SetLogger(logger)
	if logErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", logErr)
	}
	if err := util.InitializeTimeProvider(cfg.Timezone); err != nil {
		util.LogWarn("Falling back to local timezone", util.F("error", err))
		util.InitializeTimeProvider("Local")
	}

	st := store.New(cfg.StateFile, store.Options{
		Salt:   cfg.ChecksumSalt,
		Locker: store.NewFileLocker(cfg.LockFile, 0),
	})
	manager := session.NewManager(st, session.WithInactivityThreshold(cfg.InactivityThreshold))

	gitIntegration := git.New(cfg.BaseDir,
		git.WithTimeout(cfg.GitTimeout),
		git.WithCommitLimit(cfg.RecentCommitLimit),
		git.WithEstimator(cfg.EstimatorGap, time.Duration(cfg.MinutesPerCommit)*time.Minute))

	out := cmd.OutOrStdout()
	reports := report.NewGenerator(manager, gitIntegration, cfg.ReportFile,
		report.WithOutput(out),
		report.WithTargetMinutes(cfg.TargetMinutes),
		report.WithCommitLimit(cfg.ReportCommitLimit))

	util.LogDebug("Tracker configured",
		util.F("command", cmd.Name()),
		util.F("base", cfg.BaseDir),
		util.F("watch", cfg.WatchDir))

	return &app{
		cfg:     cfg,
		store:   st,
		manager: manager,
		git:     gitIntegration,
		reports: reports,
		out:     out,
		logger:  logger,
	}, nil
}

// printf writes to the command output; the watcher's change printer shares it
func (a *app) printf(format string, args ...interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) close() {
	if a.logger != nil {
		a.logger.Close()
	}
}

// Helper functions

func expandPath(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
