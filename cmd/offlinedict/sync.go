package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newSyncCommand() *cobra.Command {
	var flags appFlags
	command := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the feed and refresh the cached copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, &flags, true)
			if err != nil {
				return err
			}
			defer closeApp(a, cmd)

			if !a.Store.Enabled() {
				return fmt.Errorf("no feed URL is configured")
			}
			if err := a.Sync(cmd.Context()); err != nil {
				return fmt.Errorf("a.Sync() > %w", err)
			}

			state := a.Store.State()
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Synced %d entries at %s\n",
				len(state.LastGood), state.LastSyncedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
	flags.register(command.Flags())
	return command
}
