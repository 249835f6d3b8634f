package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit <hash> <message>",
	Short: "Record a git commit (used by hooks)",
	RunE:  runCommit,
}

func init() {
	rootCmd.AddCommand(commitCmd)
}

func runCommit(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	hash, message := "unknown", "no message"
	if len(args) > 0 && args[0] != "" {
		hash = args[0]
	}
	if len(args) > 1 {
		message = strings.Join(args[1:], " ")
	}

	if err := a.manager.RecordCommit(hash, message); err != nil {
		a.printf("warning: commit could not be saved: %v\n", err)
		return nil
	}
	a.printf("Commit recorded: %s\n", hash)
	return nil
}
