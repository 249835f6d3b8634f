package commands

import (
	"context"

	"github.com/penwyp/go-worktime-tracker/internal/core/model"
	"github.com/penwyp/go-worktime-tracker/internal/util"
	"github.com/spf13/cobra"
)

// Git hook names handled by the hook command
const (
	hookPostCheckout = "post-checkout"
	hookPreCommit    = "pre-commit"
	hookPrePush      = "pre-push"
)

var hookCmd = &cobra.Command{
	Use:   "hook <post-checkout|pre-commit|pre-push>",
	Short: "Entry point for git hooks",
	Long: `Called from .git/hooks scripts. Failures are logged and never block the
git operation, so this command always exits 0.`,
	Args: cobra.ArbitraryArgs,
	RunE: runHook,
}

type hookAction func(ctx context.Context, a *app, log util.LoggerInterface)

var hookActions = map[string]hookAction{
	hookPostCheckout: func(ctx context.Context, a *app, log util.LoggerInterface) {
		if err := a.manager.RecordActivity(model.Checkout{}); err != nil {
			log.Warn("Failed to record checkout", util.F("error", err))
		}
	},
	hookPreCommit: func(ctx context.Context, a *app, log util.LoggerInterface) {
		if err := a.manager.RecordActivity(model.Committed{}); err != nil {
			log.Warn("Failed to record commit", util.F("error", err))
		}
	},
	hookPrePush: func(ctx context.Context, a *app, log util.LoggerInterface) {
		if err := a.manager.EndCurrentSession(nil); err != nil {
			log.Warn("Failed to close session", util.F("error", err))
		}
		if err := a.manager.MarkSubmitted(); err != nil {
			log.Warn("Failed to record submission", util.F("error", err))
		}
		if _, err := a.reports.Generate(ctx); err != nil {
			log.Warn("Failed to save report", util.F("error", err))
		}
	},
}

func init() {
	rootCmd.AddCommand(hookCmd)
}

func runHook(cmd *cobra.Command, args []string) error {
	// a hook must never abort the git operation
	defer func() {
		if r := recover(); r != nil {
			util.Component("hook").Error("Hook panicked", util.F("panic", r))
			cmd.PrintErrf("tracker hook failed: %v\n", r)
		}
	}()

	if len(args) == 0 {
		cmd.PrintErrln("hook name required")
		return nil
	}

	a, err := newApp(cmd)
	if err != nil {
		cmd.PrintErrf("tracker hook skipped: %v\n", err)
		return nil
	}
	defer a.close()

	name := args[0]
	log := util.Component("hook")

	action, ok := hookActions[name]
	if !ok {
		log.Debug("Ignoring unknown hook", util.F("hook", name))
		return nil
	}
	action(cmd.Context(), a, log)
	return nil
}
