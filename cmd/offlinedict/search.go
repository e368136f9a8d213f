package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/offlinedict/internal/catalog"
)

func newSearchCommand() *cobra.Command {
	var (
		flags    appFlags
		category string
	)
	command := &cobra.Command{
		Use:   "search [query]",
		Short: "Search terms and translations, ignoring case",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, &flags, true)
			if err != nil {
				return err
			}
			defer closeApp(a, cmd)

			out := cmd.OutOrStdout()
			syncEntries(cmd.Context(), a, out)
			printEntries(out, a.Store.SearchInCategory(strings.Join(args, " "), category))
			return nil
		},
	}
	flags.register(command.Flags())
	command.Flags().StringVar(&category, "category", catalog.AllCategories, "only show entries in this category")
	return command
}

func newDailyCommand() *cobra.Command {
	var flags appFlags
	command := &cobra.Command{
		Use:   "daily",
		Short: "Show the word picked at random on this sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, &flags, true)
			if err != nil {
				return err
			}
			defer closeApp(a, cmd)

			out := cmd.OutOrStdout()
			syncEntries(cmd.Context(), a, out)
			entry, ok := a.Store.DailyPick()
			if !ok {
				fmt.Fprintln(out, "No entries are available yet.")
				return nil
			}

			color.New(color.Bold).Fprintln(out, entry.PrimaryTerm)
			if entry.PrimaryPronunciation != "" {
				color.New(color.Italic).Fprintf(out, "/%s/\n", entry.PrimaryPronunciation)
			}
			fmt.Fprintf(out, "%s\n%s\n", entry.TranslationA, entry.TranslationB)
			if entry.Category != "" {
				fmt.Fprintf(out, "Category: %s\n", entry.Category)
			}
			return nil
		},
	}
	flags.register(command.Flags())
	return command
}

func newCategoriesCommand() *cobra.Command {
	var flags appFlags
	command := &cobra.Command{
		Use:   "categories",
		Short: "List the categories of the entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, &flags, true)
			if err != nil {
				return err
			}
			defer closeApp(a, cmd)

			out := cmd.OutOrStdout()
			syncEntries(cmd.Context(), a, out)
			for _, category := range a.Store.Categories() {
				fmt.Fprintln(out, category)
			}
			return nil
		},
	}
	flags.register(command.Flags())
	return command
}
