package setconv

import (
	"strings"
)

// strategy classifies lines and resolves them against its own path state.
type strategy interface {
	mode() Mode
	classify(l Line) Class
	// resolve returns the command a line yields, or the reason it yields none.
	resolve(l Line, c Class) (command string, reason string)
	depth() int
}

// textStrategy tracks nesting purely from indentation. Closing braces are
// recognised but never pop the stack; the next line's indentation does.
type textStrategy struct {
	stack   PathStack
	started bool
}

func (s *textStrategy) mode() Mode { return ModeText }

func (s *textStrategy) depth() int { return s.stack.Depth() }

func (s *textStrategy) classify(l Line) Class {
	content := l.Content
	switch {
	case content == "":
		return ClassBlank
	case strings.HasPrefix(content, "#"):
		return ClassComment
	case strings.HasSuffix(content, "{"):
		return ClassBlockOpen
	case content == "}":
		return ClassBlockClose
	case strings.HasSuffix(content, ";"):
		return ClassStatement
	default:
		return ClassLeaf
	}
}

func (s *textStrategy) resolve(l Line, c Class) (string, string) {
	if c == ClassBlank {
		return "", ""
	}

	// The document is trimmed as a whole, so the first line with content
	// always sits at level zero whatever its indentation.
	level := l.Level()
	if !s.started {
		s.started = true
		level = 0
	}
	if c == ClassComment {
		return "", "comment"
	}

	s.stack.Truncate(level)

	switch c {
	case ClassBlockOpen:
		s.stack.Push(strings.TrimSpace(strings.TrimSuffix(l.Content, "{")))
		return "", ""
	case ClassBlockClose:
		return "", ""
	case ClassStatement:
		statement := strings.TrimSpace(strings.TrimSuffix(l.Content, ";"))
		if statement == "" {
			return "", "empty statement"
		}
		return Command(s.stack.Qualify(statement)), ""
	case ClassLeaf:
		full := s.stack.Qualify(l.Content)
		if strings.HasSuffix(full, "{") || strings.HasSuffix(full, "}") {
			return "", "unterminated block marker"
		}
		return Command(full), ""
	}
	return "", "unclassified"
}

// diffStrategy replaces its whole path on every [edit ...] marker and only
// turns additions into commands.
type diffStrategy struct {
	current PathStack
}

const editMarker = "[edit"

func (s *diffStrategy) mode() Mode { return ModeDiff }

func (s *diffStrategy) depth() int { return s.current.Depth() }

func (s *diffStrategy) classify(l Line) Class {
	content := l.Content
	switch {
	case content == "":
		return ClassBlank
	case strings.HasPrefix(content, editMarker):
		if content == editMarker+"]" ||
			(strings.HasPrefix(content, editMarker+" ") && strings.HasSuffix(content, "]")) {
			return ClassEditMarker
		}
		return ClassMalformed
	case strings.HasPrefix(content, "+"):
		return ClassAddition
	case strings.HasPrefix(content, "-"):
		return ClassRemoval
	default:
		return ClassContext
	}
}

func (s *diffStrategy) resolve(l Line, c Class) (string, string) {
	switch c {
	case ClassBlank:
		return "", ""
	case ClassEditMarker:
		inner := strings.TrimSuffix(strings.TrimPrefix(l.Content, editMarker), "]")
		s.current.Replace(strings.Fields(inner))
		return "", ""
	case ClassAddition:
		added := strings.TrimSpace(l.Content[1:])
		if added == "" {
			return "", "empty addition"
		}
		if strings.HasPrefix(added, "[") {
			return "", "edit marker inside addition"
		}
		return buildSetCommand(&s.current, added)
	case ClassRemoval:
		return "", "removal"
	case ClassMalformed:
		return "", "malformed edit marker"
	default:
		return "", "context"
	}
}

// buildSetCommand turns one added diff line into a set command qualified by path.
// Opening a block does not extend path; the next [edit ...] marker does that.
// A closing brace is a single token like any other and yields "set <path> }".
func buildSetCommand(path *PathStack, text string) (string, string) {
	text = strings.TrimSpace(strings.TrimRight(text, ";"))
	if text == "" {
		return "", "empty statement"
	}

	if i := strings.Index(text, "{"); i >= 0 {
		key := strings.TrimSpace(text[:i])
		if key == "" {
			return "", "block without name"
		}
		return Command(path.Qualify(key)), ""
	}

	if key, value, ok := strings.Cut(text, "="); ok {
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if key == "" {
			return "", "assignment without name"
		}
		if value == "" {
			return Command(path.Qualify(key)), ""
		}
		return Command(path.Qualify(key, value)), ""
	}

	fields := strings.Fields(text)
	if len(fields) > 1 {
		return Command(path.Qualify(fields[0], strings.Join(fields[1:], " "))), ""
	}
	return Command(path.Qualify(fields[0])), ""
}
