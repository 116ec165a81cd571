package markdown

import (
	"strings"

	"github.com/sha1n/docsnip/internal/domain"
)

// MinMarkerLength is the shortest run of backticks or tildes that opens a fence.
const MinMarkerLength = 3

// ExtractOptions controls fence extraction.
type ExtractOptions struct {
	// Strict rejects a fence left open at end of document with a
	// *domain.ParseError. When false the open fence is emitted as-is.
	Strict bool
}

// Extract returns the fenced code blocks of doc in document order.
//
// A fence opens on a line made only of a run of at least three backticks or
// tildes, optionally followed directly by a language tag without whitespace.
// It closes on a line made only of the same character repeated at least as
// many times as the opening run, so shorter runs inside the block are content.
// The error is non-nil only in strict mode, alongside the fences that closed.
func Extract(doc *domain.Document, opts ExtractOptions) ([]domain.Fence, error) {
	var (
		fences  []domain.Fence
		current *domain.Fence
		content strings.Builder
	)

	for i, line := range doc.Lines {
		lineNo := i + 1

		if current == nil {
			marker, lang, ok := parseOpener(line)
			if !ok {
				continue
			}
			current = &domain.Fence{
				Lang:      lang,
				Marker:    marker,
				StartLine: lineNo,
			}
			content.Reset()
			continue
		}

		if isCloser(line, current.Marker) {
			current.Ordinal = len(fences) + 1
			current.Content = content.String()
			current.EndLine = lineNo
			current.Terminated = true
			fences = append(fences, *current)
			current = nil
			continue
		}

		content.WriteString(line)
	}

	if current != nil {
		if opts.Strict {
			return fences, &domain.ParseError{
				Document: doc.Name,
				Line:     current.StartLine,
				Marker:   current.Marker,
			}
		}
		current.Ordinal = len(fences) + 1
		current.Content = content.String()
		fences = append(fences, *current)
	}

	return fences, nil
}

// parseOpener returns the marker run and language tag of a fence-opening line.
func parseOpener(line string) (marker, lang string, ok bool) {
	s := trimLine(line)
	if s == "" || (s[0] != '`' && s[0] != '~') {
		return "", "", false
	}

	n := runLength(s, s[0])
	if n < MinMarkerLength {
		return "", "", false
	}

	lang = s[n:]
	if strings.ContainsAny(lang, " \t") {
		return "", "", false
	}
	if s[0] == '`' && strings.Contains(lang, "`") {
		return "", "", false
	}
	return s[:n], lang, true
}

// isCloser reports whether line closes a fence opened with marker.
func isCloser(line, marker string) bool {
	s := trimLine(line)
	return len(s) >= len(marker) && runLength(s, marker[0]) == len(s)
}

func runLength(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}

// trimLine strips the line terminator and trailing blanks.
func trimLine(line string) string {
	return strings.TrimRight(line, " \t\r\n")
}
