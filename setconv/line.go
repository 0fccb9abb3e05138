package setconv

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Line is one input line with its leading whitespace count and trimmed content.
type Line struct {
	Number  int
	Indent  int
	Content string
}

// Level returns the nesting level implied by the indentation.
func (l Line) Level() int {
	return l.Indent / IndentUnit
}

// Blank reports whether the line carries no content.
func (l Line) Blank() bool {
	return l.Content == ""
}

// IndentUnit is the number of columns per nesting level in text mode.
const IndentUnit = 4

// SplitLines splits text on '\n' into numbered lines. Trailing whitespace,
// including a '\r' left over from CRLF input, is dropped before the
// indentation is counted.
func SplitLines(text string) []Line {
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	for i, r := range raw {
		r = strings.TrimRightFunc(r, unicode.IsSpace)
		content := strings.TrimLeftFunc(r, unicode.IsSpace)
		lines = append(lines, Line{
			Number:  i + 1,
			Indent:  utf8.RuneCountInString(r) - utf8.RuneCountInString(content),
			Content: content,
		})
	}
	return lines
}
