// Package diag implements the diagnostics sink named in spec §6: a
// level-gated function receiving (message, level, templateName?), with
// output prefixed by the library name and, when present, the template
// name — grounded on the teacher's package-level Logger convention
// (bundle.go, tofu/exec.go: log.New(os.Stderr, "[soy] ", 0)).
package diag

import (
	"log"
	"os"

	"golang.org/x/xerrors"
)

// Level is a diagnostics severity. Spec §7 names two: Debug and Error
// (earlier revisions of the original design also had Notice, dropped
// here along with it).
type Level int

const (
	Debug Level = iota
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Sink receives diagnostic messages. template is "" when the message
// isn't associated with a specific template.
type Sink func(message string, level Level, template string)

// std is the package-level default sink, mirroring the teacher's
// package-level *log.Logger.
var std = log.New(os.Stderr, "[dirtag] ", 0)

// MinLevel gates which levels reach the default sink; Debug messages are
// dropped unless this is set to Debug.
var MinLevel = Error

// Default is the Sink used by a Writer that doesn't configure its own.
func Default(message string, level Level, template string) {
	if level < MinLevel {
		return
	}
	if template != "" {
		std.Printf("%s %s: %s", level, template, message)
		return
	}
	std.Printf("%s: %s", level, message)
}

// Wrap annotates err with a diagnostic class label, preserving it for
// errors.Is/errors.As across the engine's non-throwing API boundary.
func Wrap(class, template string, err error) error {
	if template != "" {
		return xerrors.Errorf("%s (%s): %w", class, template, err)
	}
	return xerrors.Errorf("%s: %w", class, err)
}
