package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newCacheCommand() *cobra.Command {
	var flags appFlags
	command := &cobra.Command{
		Use:   "cache",
		Short: "Manage the offline cache",
	}
	flags.register(command.PersistentFlags())

	command.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Download every manifest asset into the current cache generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, &flags, false)
			if err != nil {
				return err
			}
			defer closeApp(a, cmd)

			if err := a.Worker.Install(cmd.Context()); err != nil {
				return fmt.Errorf("Worker.Install() > %w", err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Installed %s\n", a.Worker.Generation())
			return nil
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "activate",
		Short: "Install the current generation and delete every other generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, &flags, false)
			if err != nil {
				return err
			}
			defer closeApp(a, cmd)

			if err := a.Start(cmd.Context()); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Activated %s\n", a.Worker.Generation())
			return nil
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the cache generations in storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, &flags, false)
			if err != nil {
				return err
			}
			defer closeApp(a, cmd)

			status, err := a.Worker.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("Worker.Status() > %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Current generation: %s\n", status.Generation)
			fmt.Fprintf(out, "Manifest assets: %d\n", len(status.Assets))
			if len(status.Caches) == 0 {
				fmt.Fprintln(out, "No cache generations are stored.")
				return nil
			}
			for _, name := range status.Caches {
				if name == status.Generation {
					color.New(color.FgGreen).Fprintf(out, "* %s\n", name)
					continue
				}
				fmt.Fprintf(out, "  %s (evicted on activate)\n", name)
			}
			return nil
		},
	})
	return command
}
