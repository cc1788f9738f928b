package parse

// Lexer design lifted from the teacher's hand-rolled scanner
// (robfig/soy's parse/lexer.go, itself modeled on text/template's):
// a cursor over the remaining input ("tail") with scan/scanUntil
// primitives driven by regular expressions, rather than a rune-by-rune
// state machine. The grammar here is small enough (scan a delimiter,
// scan until a delimiter) that the teacher's channel-fed goroutine
// scanner would be overkill; this keeps the same vocabulary
// (next/backup/emit become scan/scanUntil/pos) without the concurrency.

import "regexp"

// Lexer walks a normalized template source string, tracking how many
// bytes have been consumed so callers can stamp token offsets.
type Lexer struct {
	source string // the full normalized input
	tail   string // unconsumed suffix of source
	pos    int    // bytes consumed so far (== len(source)-len(tail))
}

// NewLexer returns a Lexer positioned at the start of source.
func NewLexer(source string) *Lexer {
	return &Lexer{source: source, tail: source}
}

// Pos returns the current byte offset into the original source.
func (l *Lexer) Pos() int { return l.pos }

// Eos reports whether the lexer has consumed the entire input.
func (l *Lexer) Eos() bool { return len(l.tail) == 0 }

// Scan consumes and returns the text matched by pattern if it matches at
// the very start of the remaining input; otherwise it returns "" and
// leaves the position unchanged.
func (l *Lexer) Scan(pattern *regexp.Regexp) string {
	loc := pattern.FindStringIndex(l.tail)
	if loc == nil || loc[0] != 0 {
		return ""
	}
	matched := l.tail[:loc[1]]
	l.advance(loc[1])
	return matched
}

// ScanUntil consumes and returns everything up to (not including) the
// first match of pattern in the remaining input. If pattern never
// matches, ScanUntil consumes and returns the rest of the input.
func (l *Lexer) ScanUntil(pattern *regexp.Regexp) string {
	loc := pattern.FindStringIndex(l.tail)
	var n int
	if loc == nil {
		n = len(l.tail)
	} else {
		n = loc[0]
	}
	consumed := l.tail[:n]
	l.advance(n)
	return consumed
}

func (l *Lexer) advance(n int) {
	l.tail = l.tail[n:]
	l.pos += n
}
