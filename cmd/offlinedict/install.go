package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	iPhoneInstructions = `1. Open the app in Safari.
2. Tap the Share button.
3. Tap "Add to Home Screen".`
	androidInstructions = `1. Open the app in Chrome.
2. Open the menu.
3. Tap "Install app" or "Add to Home screen".`
)

func newInstallCommand() *cobra.Command {
	var platform string
	command := &cobra.Command{
		Use:   "install",
		Short: "Show how to install the web app on a phone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			bold := color.New(color.Bold)

			switch platform {
			case "iphone":
				bold.Fprintln(out, "iPhone")
				fmt.Fprintln(out, iPhoneInstructions)
			case "android":
				bold.Fprintln(out, "Android")
				fmt.Fprintln(out, androidInstructions)
			case "":
				bold.Fprintln(out, "iPhone")
				fmt.Fprintln(out, iPhoneInstructions)
				fmt.Fprintln(out)
				bold.Fprintln(out, "Android")
				fmt.Fprintln(out, androidInstructions)
			default:
				return fmt.Errorf("invalid platform: %s", platform)
			}
			return nil
		},
	}
	command.Flags().StringVar(&platform, "platform", "", "iphone or android (default is both)")
	return command
}
