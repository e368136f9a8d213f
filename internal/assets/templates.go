// Package assets holds the embedded templates used to export bookmarks.
package assets

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/at-ishikawa/offlinedict/internal/dictionary"
)

const bookmarksTemplateName = "bookmarks.md.go.tmpl"

//go:embed templates/bookmarks.md.go.tmpl
var fallbackBookmarksTemplate string

// ParseBookmarksTemplate parses templatePath, or the embedded template when the file is missing or broken.
func ParseBookmarksTemplate(templatePath string) (*template.Template, error) {
	return parseTemplateWithFallback(templatePath, bookmarksTemplateName, fallbackBookmarksTemplate)
}

func translations(entry dictionary.DictionaryEntry) []string {
	result := make([]string, 0, 2)
	for _, translation := range []string{entry.TranslationA, entry.TranslationB} {
		if translation != "" {
			result = append(result, translation)
		}
	}
	return result
}

func parseTemplateWithFallback(templatePath string, fallbackName string, fallbackTemplate string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"join":         strings.Join,
		"translations": translations,
	}

	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			fileName := filepath.Base(templatePath)
			tmpl, err := template.New(fileName).
				Funcs(funcMap).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(fallbackName).
		Funcs(funcMap).
		Parse(fallbackTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}
