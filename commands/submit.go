package commands

import (
	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Mark as submitted and generate the report",
	Args:  cobra.NoArgs,
	RunE:  runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.manager.MarkSubmitted(); err != nil {
		a.printf("warning: submission could not be saved: %v\n", err)
	}
	if _, err := a.reports.Generate(cmd.Context()); err != nil {
		a.printf("warning: report could not be saved: %v\n", err)
	}
	return nil
}
