package setconv

import "strings"

// PathStack holds the open hierarchy segments from the root to the current block.
type PathStack struct {
	segments []string
}

// Push opens a block named segment.
func (s *PathStack) Push(segment string) {
	s.segments = append(s.segments, segment)
}

// Truncate pops segments until the depth is at most level.
func (s *PathStack) Truncate(level int) {
	if level < 0 {
		level = 0
	}
	if len(s.segments) > level {
		s.segments = s.segments[:level]
	}
}

// Replace swaps the whole path for segments.
func (s *PathStack) Replace(segments []string) {
	s.segments = append(s.segments[:0], segments...)
}

// Depth returns the number of open segments.
func (s *PathStack) Depth() int {
	return len(s.segments)
}

// Segments returns a copy of the open segments.
func (s *PathStack) Segments() []string {
	out := make([]string, len(s.segments))
	copy(out, s.segments)
	return out
}

// Qualify joins the open segments and tail with single spaces.
func (s *PathStack) Qualify(tail ...string) string {
	parts := make([]string, 0, len(s.segments)+len(tail))
	parts = append(parts, s.segments...)
	parts = append(parts, tail...)
	return strings.Join(parts, " ")
}

// Command formats a set command from a qualified path.
func Command(path string) string {
	return "set " + path
}
