package dictionary

import (
	"fmt"
)

// FetchError is returned when the feed could not be retrieved.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s > %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError is returned when the feed payload is not a valid table.
// Line is 1-based and 0 when the error is not tied to a line.
type ParseError struct {
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Reason
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("parse feed: %s > %v", msg, e.Err)
	}
	return "parse feed: " + msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
