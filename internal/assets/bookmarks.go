package assets

import (
	"fmt"
	"io"
	"time"

	"github.com/at-ishikawa/offlinedict/internal/dictionary"
)

// BookmarksTemplate is the data passed to the bookmarks template.
type BookmarksTemplate struct {
	ExportedAt time.Time
	Entries    dictionary.Collection
}

// WriteBookmarks renders the bookmarked entries as markdown.
func WriteBookmarks(output io.Writer, templatePath string, data BookmarksTemplate) error {
	tmpl, err := ParseBookmarksTemplate(templatePath)
	if err != nil {
		return fmt.Errorf("ParseBookmarksTemplate(%s) > %w", templatePath, err)
	}
	if err := tmpl.Execute(output, data); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}
