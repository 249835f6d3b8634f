package commands

import (
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Close the open session",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	a.manager.Load()
	if a.manager.CurrentSession() == nil {
		a.printf("No open session.\n")
		return nil
	}

	if err := a.manager.EndCurrentSession(nil); err != nil {
		a.printf("warning: session could not be closed: %v\n", err)
		return nil
	}
	a.printf("Stopped. Active time: %s\n", a.manager.Stats().ActiveTime)
	return nil
}
