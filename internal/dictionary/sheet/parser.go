package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/at-ishikawa/offlinedict/internal/dictionary"
)

// Columns is the fixed column order of the feed. Columns are mapped by position, so header names are informational.
var Columns = []string{
	"id",
	"term",
	"pronunciation",
	"translation_a",
	"translation_b",
	"category",
}

// Parse reads a CSV payload whose first row is the header.
func Parse(r io.Reader) (dictionary.Collection, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &dictionary.ParseError{Reason: "missing header"}
	}
	if err != nil {
		return nil, &dictionary.ParseError{Line: 1, Reason: "malformed header", Err: err}
	}
	if len(header) != len(Columns) {
		return nil, &dictionary.ParseError{
			Line:   1,
			Reason: fmt.Sprintf("header: expected %d columns, got %d", len(Columns), len(header)),
		}
	}

	collection := make(dictionary.Collection, 0)
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			line := 0
			if errors.As(err, &csvErr) {
				line = csvErr.Line
			}
			return nil, &dictionary.ParseError{Line: line, Reason: "malformed row", Err: err}
		}
		line, _ := csvReader.FieldPos(0)
		if isBlank(record) {
			slog.Default().Debug("skip a blank row", "line", line)
			continue
		}
		if len(record) != len(Columns) {
			return nil, &dictionary.ParseError{
				Line:   line,
				Reason: fmt.Sprintf("expected %d columns, got %d", len(Columns), len(record)),
			}
		}

		collection = append(collection, dictionary.DictionaryEntry{
			ID:                   strings.TrimSpace(record[0]),
			PrimaryTerm:          strings.TrimSpace(record[1]),
			PrimaryPronunciation: strings.TrimSpace(record[2]),
			TranslationA:         strings.TrimSpace(record[3]),
			TranslationB:         strings.TrimSpace(record[4]),
			Category:             strings.TrimSpace(record[5]),
		})
	}
	return collection, nil
}

// Google Sheets exports trailing rows like ",,,,,"
func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
