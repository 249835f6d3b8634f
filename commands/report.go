package commands

import (
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the detailed report",
	Long: `Writes tracker-report.json next to the state file and prints a summary that
compares live tracked time with an estimate derived from git commit times.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	_, err = a.reports.Generate(cmd.Context())
	return err
}
