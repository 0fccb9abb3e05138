// Package setconv flattens hierarchical Junos configuration into set commands.
//
// Two input formats are supported. Text mode reads a configuration block
// whose nesting is given by indentation (four columns per level) and emits
// one command per leaf statement:
//
//	system {
//	    host-name TEST-HOST;
//	}
//
// becomes "set system host-name TEST-HOST". Diff mode reads the output of
// "show | compare" and emits commands for the added lines only, qualified by
// the most recent [edit ...] marker.
//
// Conversion never fails. Lines that cannot be classified are skipped and
// only reported through an Observer.
package setconv

import "strings"

// Converter runs conversions and reports per-line events to an optional observer.
// A Converter holds no conversion state and may be shared between goroutines
// as long as its observer is safe for concurrent use.
type Converter struct {
	observer Observer
}

// Option configures a Converter.
type Option func(*Converter)

// WithObserver registers o to receive one Event per input line.
func WithObserver(o Observer) Option {
	return func(c *Converter) {
		c.observer = o
	}
}

// New creates a Converter.
func New(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TextToSet converts indentation structured configuration text into set
// commands, in input order.
func (c *Converter) TextToSet(text string) []string {
	return c.run(&textStrategy{}, text)
}

// DiffToSet converts a configuration diff into newline separated set
// commands for its added lines.
func (c *Converter) DiffToSet(diff string) string {
	return strings.Join(c.run(&diffStrategy{}, diff), "\n")
}

func (c *Converter) run(s strategy, text string) []string {
	commands := []string{}
	for _, l := range SplitLines(text) {
		class := s.classify(l)
		command, reason := s.resolve(l, class)
		if command != "" {
			commands = append(commands, command)
		}
		if c.observer != nil {
			c.observer.Observe(Event{
				Mode:    s.mode(),
				Line:    l.Number,
				Class:   class,
				Depth:   s.depth(),
				Command: command,
				Reason:  reason,
			})
		}
	}
	return commands
}

var std = New()

// TextToSet converts configuration text using a converter without an observer.
func TextToSet(text string) []string {
	return std.TextToSet(text)
}

// DiffToSet converts a configuration diff using a converter without an observer.
func DiffToSet(diff string) string {
	return std.DiffToSet(diff)
}
