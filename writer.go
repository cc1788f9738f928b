// Package dirtag implements a logic-bearing text template engine: named
// templates containing literal text interleaved with directives
// delimited by a configurable marker pair (default "{{" "}}"), compiled
// once to a token tree and rendered on demand against a caller-supplied
// data view.
//
// Package layout mirrors the teacher's split of scanning/parsing
// (package parse), context/name-resolution (package frame and value),
// and a host-environment capability object (package host); this root
// package owns the handler registry and the Writer/facade that tie them
// together, the way soy.go ties together soy's tree/data/tofu packages.
package dirtag

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/robfig/dirtag/diag"
	"github.com/robfig/dirtag/frame"
	"github.com/robfig/dirtag/host"
	"github.com/robfig/dirtag/parse"
	"github.com/robfig/dirtag/value"
	"golang.org/x/xerrors"
)

// DomSink abstracts the host-DOM integration named in spec §6: it
// recognizes and serializes DOM elements for the `html` token, and
// splices resolved `promise` output into a previously emitted
// placeholder. IsElement lets a non-DOM host tell ordinary values (which
// `html` should stringify as-is) apart from real elements (which it
// should serialize), since a Go interface{} value can't be type-asserted
// against "is a DOM node" the way a browser host would check directly.
type DomSink interface {
	IsElement(v interface{}) bool
	Serialize(elem interface{}) string
	ReplaceContent(placeholderID uint64, markup string)
}

// Deferred is the `promise` token's expected shape: a value whose
// eventual resolution or rejection the engine can observe.
type Deferred interface {
	Then(func(resolved interface{}))
	Catch(func(err error))
}

// noopDomSink is the default DomSink in a non-DOM host (spec §6: "an
// implementation may stub them out").
type noopDomSink struct{}

func (noopDomSink) IsElement(interface{}) bool   { return false }
func (noopDomSink) Serialize(interface{}) string { return "" }
func (noopDomSink) ReplaceContent(uint64, string) {}

type cached struct {
	source string
	tree   []*parse.Token
}

// Writer owns the template cache, handler registry, delimiter pair,
// escaper, host environment, and diagnostics sink (spec §2's Writer
// row); it is the engine instance the package-level facade wraps.
type Writer struct {
	mu     sync.RWMutex
	cache  map[string]*cached
	names  []string
	delims parse.Delims

	handlers *HandlerTable
	Host     *host.Environment
	Escape   func(interface{}) string
	Sink     diag.Sink

	domSink        DomSink
	placeholderSeq uint64
}

// NewWriter constructs a Writer with the default delimiter pair, builtin
// handlers, a fresh host Environment, the default HTML escaper, and the
// package's default diagnostics sink.
func NewWriter() *Writer {
	return &Writer{
		cache:    map[string]*cached{},
		delims:   parse.DefaultDelims,
		handlers: newHandlerTable(),
		Host:     host.New(),
		Escape:   DefaultEscape,
		Sink:     diag.Default,
		domSink:  noopDomSink{},
	}
}

// SetDomSink installs the collaborator the `html` and `promise` handlers
// use to serialize elements and splice resolved placeholder content. A
// nil sink restores the no-op default.
func (w *Writer) SetDomSink(sink DomSink) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if sink == nil {
		sink = noopDomSink{}
	}
	w.domSink = sink
}

// Tags returns the current [open, close] delimiter pair.
func (w *Writer) Tags() [2]string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return [2]string{w.delims.Open, w.delims.Close}
}

// SetTags overrides the delimiter pair; both must be non-empty.
func (w *Writer) SetTags(open, close string) error {
	if open == "" || close == "" {
		return xerrors.New("dirtag: tags must be a non-empty pair")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.delims = parse.Delims{Open: open, Close: close}
	return nil
}

// AddTokenHandler registers fn under kind, per spec §4.4 (extended with
// the isSection flag documented in SPEC_FULL.md §5.4).
func (w *Writer) AddTokenHandler(kind string, isSection bool, fn HandlerFunc) error {
	if err := w.handlers.Add(kind, isSection, fn); err != nil {
		w.Sink(err.Error(), diag.Error, "")
		return err
	}
	return nil
}

// Parse compiles source under name and caches {source, tree}
// (spec §4.5's `parse(name, source)`). Structural parse errors are
// logged individually, and the first of them is returned, wrapped; the
// best-effort tree is cached regardless.
func (w *Writer) Parse(name, source string) error {
	w.mu.RLock()
	delims := w.delims
	kinds := w.handlers.kindSet()
	w.mu.RUnlock()

	tree, errs := parse.Parse(name, source, delims, kinds)

	w.mu.Lock()
	if w.cache == nil {
		w.cache = map[string]*cached{}
	}
	if _, exists := w.cache[name]; !exists {
		w.names = append(w.names, name)
	}
	w.cache[name] = &cached{source: source, tree: tree}
	w.mu.Unlock()

	if len(errs) == 0 {
		return nil
	}
	for _, e := range errs {
		w.Sink(e.Error(), diag.Error, name)
	}
	return diag.Wrap("structural parse error", name, errs[0])
}

// Exists reports whether name is currently cached.
func (w *Writer) Exists(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.cache[name]
	return ok
}

// ListTemplates returns cached template names in the order they were
// first parsed.
func (w *Writer) ListTemplates() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.names))
	copy(out, w.names)
	return out
}

// ClearCache drops every cached template.
func (w *Writer) ClearCache() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cache = map[string]*cached{}
	w.names = nil
}

// Render retrieves the tree cached under name, builds a root Context
// from view (or reuses view directly if it is already a *frame.Frame),
// and renders it (spec §4.5's `render(name, view)`).
func (w *Writer) Render(name string, view interface{}) (string, error) {
	w.mu.RLock()
	c, ok := w.cache[name]
	w.mu.RUnlock()
	if !ok {
		err := diag.Wrap("missing sub-template", name, xerrors.Errorf("no template named %q", name))
		w.Sink(err.Error(), diag.Error, name)
		return "", err
	}

	var fr *frame.Frame
	if existing, isFrame := view.(*frame.Frame); isFrame {
		fr = existing
	} else {
		fr = frame.NewRoot(value.Convert(view), w.Host)
	}
	return w.renderTokens(c.tree, fr)
}

// renderCached is used by the `%` sub-template handler: it renders an
// already-cached template's tree against the current context (no push).
func (w *Writer) renderCached(name string, fr *frame.Frame) (string, error) {
	w.mu.RLock()
	c, ok := w.cache[name]
	w.mu.RUnlock()
	if !ok {
		return "", xerrors.Errorf("no template named %q", name)
	}
	return w.renderTokens(c.tree, fr)
}

// renderTokens dispatches each token through the HandlerTable and
// accumulates the result; a handler returning false for its "produced
// output" bool contributes nothing, mirroring "undefined is not
// appended" (spec §4.5).
func (w *Writer) renderTokens(tokens []*parse.Token, fr *frame.Frame) (string, error) {
	var sb strings.Builder
	var firstErr error
	for _, tok := range tokens {
		if tok.Kind == parse.KindElse {
			continue
		}
		fn, ok := w.handlers.lookup(tok.Kind)
		if !ok {
			w.logf(tok, "no handler registered for kind %q", tok.Kind)
			continue
		}
		out, produced, err := fn(tok, fr, w)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if produced {
			sb.WriteString(out)
		}
	}
	return sb.String(), firstErr
}

func (w *Writer) logf(tok *parse.Token, format string, args ...interface{}) {
	w.Sink(fmt.Sprintf(format, args...), diag.Error, "")
}

func (w *Writer) nextPlaceholderID() uint64 {
	return atomic.AddUint64(&w.placeholderSeq, 1)
}
