package setconv

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Mode selects the input format a conversion expects.
type Mode int

const (
	// ModeText reads indentation structured configuration text.
	ModeText Mode = iota
	// ModeDiff reads a configuration diff report with [edit ...] markers.
	ModeDiff
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeDiff:
		return "diff"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Class is the classification of a single input line.
type Class int

const (
	ClassBlank Class = iota
	ClassComment
	ClassBlockOpen
	ClassBlockClose
	ClassStatement
	ClassLeaf
	ClassEditMarker
	ClassAddition
	ClassRemoval
	ClassContext
	ClassMalformed
)

var classNames = map[Class]string{
	ClassBlank:      "blank",
	ClassComment:    "comment",
	ClassBlockOpen:  "block-open",
	ClassBlockClose: "block-close",
	ClassStatement:  "statement",
	ClassLeaf:       "leaf",
	ClassEditMarker: "edit-marker",
	ClassAddition:   "addition",
	ClassRemoval:    "removal",
	ClassContext:    "context",
	ClassMalformed:  "malformed",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// Event describes what the converter did with one line.
type Event struct {
	Mode    Mode
	Line    int
	Class   Class
	Depth   int
	Command string
	Reason  string
}

// Emitted reports whether the line produced a command.
func (e Event) Emitted() bool {
	return e.Command != ""
}

// Observer receives one event per input line.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) {
	f(e)
}

// LogObserver reports events at debug level through logger.
func LogObserver(logger log.FieldLogger) Observer {
	return ObserverFunc(func(e Event) {
		entry := logger.WithFields(log.Fields{
			"mode":  e.Mode.String(),
			"line":  e.Line,
			"class": e.Class.String(),
			"depth": e.Depth,
		})
		switch {
		case e.Emitted():
			entry.WithField("command", e.Command).Debug("set command emitted")
		case e.Reason != "":
			entry.WithField("reason", e.Reason).Debug("line skipped")
		default:
			entry.Debug("line consumed")
		}
	})
}
