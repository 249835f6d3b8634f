package commands

import (
	"strings"

	"github.com/penwyp/go-worktime-tracker/internal/core/model"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record [label]",
	Short: "Record a manual activity",
	Long: `Records one activity now. A label shaped like a file path counts as an edit
to that file; "checkout" and "commit" are used by the git hooks; anything else
is stored as a manual note.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	activity := model.ParseActivityLabel(strings.Join(args, " "))
	if err := a.manager.RecordActivity(activity); err != nil {
		a.printf("warning: activity could not be saved: %v\n", err)
		return nil
	}
	a.printf("Activity recorded: %s\n", activity.Label())
	return nil
}
