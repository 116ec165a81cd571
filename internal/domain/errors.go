package domain

import "fmt"

// ScanError reports a source document that could not be read.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// ParseError reports a fence that was opened but never closed.
// It is only produced when strict fence parsing is enabled.
type ParseError struct {
	Document string
	Line     int
	Marker   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: fence %q opened at line %d is never closed", e.Document, e.Marker, e.Line)
}

// WriteError reports an artifact that could not be written.
type WriteError struct {
	Document string
	Ordinal  int
	Path     string
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s (fence #%d of %s): %v", e.Path, e.Ordinal, e.Document, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
