package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/penwyp/go-worktime-tracker/internal/core/model"
	"github.com/penwyp/go-worktime-tracker/internal/core/session"
	"github.com/penwyp/go-worktime-tracker/internal/data/store"
	"github.com/penwyp/go-worktime-tracker/internal/util"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start tracking (default)",
	Long: `Watches the solution directory and records file edits until interrupted.
Edits to the same file within a second count once. A gap of more than fifteen
minutes between activities starts a new session.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	matcher, err := session.NewPathMatcher(a.cfg.IgnorePatterns, a.cfg.Extensions)
	if err != nil {
		return err
	}

	// Set up signal handling
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.printf("\n%s\n", util.HeavySeparator(66))
	a.printf("%s\n", util.CenterText("CASE STUDY ACTIVITY TRACKER", 66))
	a.printf("%s\n\n", util.HeavySeparator(66))
	a.printf("Base path:  %s\n", a.cfg.BaseDir)
	a.printf("Watch path: %s\n\n", a.cfg.WatchDir)

	if res := a.manager.Load(); res.Status == store.StatusReset {
		a.printf("Session history failed verification and was reset.\n")
	}

	watcher := session.NewActivityWatcher(a.cfg.WatchDir, a.manager, session.WatcherOptions{
		Matcher:   matcher,
		Debounce:  a.cfg.DebounceWindow,
		Heartbeat: a.cfg.HeartbeatInterval,
		Stats:     a.manager,
	})
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range watcher.Changes() {
			a.printf("Change detected: %s\n", ev.RelativePath)
		}
	}()

	if err := a.manager.RecordActivity(model.ManualNote{Text: "_tracker_started"}); err != nil {
		a.printf("warning: activity could not be saved: %v\n", err)
	}

	a.printf("Tracking started. Watching %d directories.\n", len(watcher.WatchedDirs()))
	a.printf("Your work time is being recorded. Press Ctrl+C to stop.\n\n")

	<-ctx.Done()
	a.printf("\nShutting down...\n")

	watcher.Stop()
	<-printed
	if err := a.manager.EndCurrentSession(nil); err != nil {
		a.printf("warning: session could not be closed: %v\n", err)
	}

	stats := a.manager.Stats()
	a.printf("Stopped. Active time so far: %s\n", stats.ActiveTime)
	return nil
}
