package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pvetools/backup-tracker/internal/cli"
)

func main() {
	command := NewTrackerCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewTrackerCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracker [flags] [options]",
		Short: "tracker inspects the Backup Tracker service.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdGet())

	return cmd
}
