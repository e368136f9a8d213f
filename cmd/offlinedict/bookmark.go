package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/offlinedict/internal/assets"
	"github.com/at-ishikawa/offlinedict/internal/pdf"
)

func newBookmarkCommand() *cobra.Command {
	var flags appFlags
	command := &cobra.Command{
		Use:   "bookmark",
		Short: "Manage bookmarked entries",
	}
	flags.register(command.PersistentFlags())

	command.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Bookmark an entry, or remove the bookmark if it exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, &flags, false)
			if err != nil {
				return err
			}
			defer closeApp(a, cmd)

			id := args[0]
			set, added, err := a.Bookmarks.Toggle(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("Bookmarks.Toggle(%s) > %w", id, err)
			}

			out := cmd.OutOrStdout()
			if added {
				color.New(color.FgGreen).Fprintf(out, "Bookmarked %s (%d bookmarks)\n", id, set.Len())
			} else {
				color.New(color.FgRed).Fprintf(out, "Removed %s (%d bookmarks)\n", id, set.Len())
			}
			return nil
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List bookmarked entries in feed order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, &flags, true)
			if err != nil {
				return err
			}
			defer closeApp(a, cmd)

			out := cmd.OutOrStdout()
			syncEntries(cmd.Context(), a, out)
			set := a.Bookmarks.Load(cmd.Context())
			entries := a.Store.Bookmarked(set)
			printEntries(out, entries)
			if missing := set.Len() - len(entries); missing > 0 {
				fmt.Fprintf(out, "%d bookmarked entries are no longer in the feed.\n", missing)
			}
			return nil
		},
	})

	var (
		output    string
		exportPDF bool
	)
	exportCommand := &cobra.Command{
		Use:   "export",
		Short: "Write bookmarked entries to a markdown file, optionally converted to PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, &flags, true)
			if err != nil {
				return err
			}
			defer closeApp(a, cmd)

			out := cmd.OutOrStdout()
			syncEntries(cmd.Context(), a, out)
			entries := a.Store.Bookmarked(a.Bookmarks.Load(cmd.Context()))

			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return fmt.Errorf("os.MkdirAll(%s) > %w", filepath.Dir(output), err)
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("os.Create(%s) > %w", output, err)
			}
			defer func() {
				_ = file.Close()
			}()

			if err := assets.WriteBookmarks(file, a.Config.Templates.BookmarksMarkdown, assets.BookmarksTemplate{
				ExportedAt: time.Now(),
				Entries:    entries,
			}); err != nil {
				return fmt.Errorf("assets.WriteBookmarks() > %w", err)
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("file.Close() > %w", err)
			}
			fmt.Fprintf(out, "Exported %d bookmarks to %s\n", len(entries), output)

			if !exportPDF {
				return nil
			}
			pdfPath, err := pdf.ConvertMarkdownToPDF(output)
			if err != nil {
				return fmt.Errorf("pdf.ConvertMarkdownToPDF(%s) > %w", output, err)
			}
			fmt.Fprintf(out, "PDF created: %s\n", pdfPath)
			return nil
		},
	}
	exportCommand.Flags().StringVarP(&output, "output", "o", "bookmarks.md", "markdown file to write")
	exportCommand.Flags().BoolVar(&exportPDF, "pdf", false, "also convert the markdown to PDF")
	command.AddCommand(exportCommand)

	return command
}
