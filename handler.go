package dirtag

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/robfig/dirtag/frame"
	"github.com/robfig/dirtag/parse"
	"github.com/robfig/dirtag/value"
)

// HandlerFunc renders one token against fr using w for recursion and
// sub-template lookup. The bool return is whether the handler produced
// visible output (spec §4.5: "handler return values of undefined are not
// appended") — its absence is this implementation's stand-in for the
// spec's untyped undefined.
type HandlerFunc func(tok *parse.Token, fr *frame.Frame, w *Writer) (string, bool, error)

type handlerEntry struct {
	fn        HandlerFunc
	isSection bool
}

// HandlerTable is the runtime-extensible kind-to-handler registry (spec
// §4.4), seeded with the builtin kinds and growable via AddTokenHandler.
type HandlerTable struct {
	mu       sync.RWMutex
	handlers map[string]*handlerEntry
}

func newHandlerTable() *HandlerTable {
	h := &HandlerTable{handlers: map[string]*handlerEntry{}}
	h.handlers[parse.KindText] = &handlerEntry{fn: handleText}
	h.handlers[parse.KindName] = &handlerEntry{fn: handleName}
	h.handlers[parse.KindVoid] = &handlerEntry{fn: handleVoid}
	h.handlers[parse.KindValue] = &handlerEntry{fn: handleValue}
	h.handlers[parse.KindSub] = &handlerEntry{fn: handleSub}
	h.handlers[parse.KindHTML] = &handlerEntry{fn: handleHTML}
	h.handlers[parse.KindIf] = &handlerEntry{fn: handleIf, isSection: true}
	h.handlers[parse.KindEach] = &handlerEntry{fn: handleEach, isSection: true}
	h.handlers[parse.KindGet] = &handlerEntry{fn: handleGet, isSection: true}
	h.handlers[parse.KindPromise] = &handlerEntry{fn: handlePromise, isSection: true}
	return h
}

// Add registers fn under kind (spec §4.4's addTokenHandler). isSection
// decides whether the parser treats {{kind ...}} as needing a matching
// {{/kind}} close. Re-registering an existing kind is a reported,
// non-fatal conflict (spec §7): the existing handler is preserved.
func (h *HandlerTable) Add(kind string, isSection bool, fn HandlerFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.handlers[kind]; exists {
		return fmt.Errorf("dirtag: handler already registered for kind %q", kind)
	}
	h.handlers[kind] = &handlerEntry{fn: fn, isSection: isSection}
	return nil
}

func (h *HandlerTable) lookup(kind string) (HandlerFunc, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.handlers[kind]
	if !ok {
		return nil, false
	}
	return e.fn, true
}

// kindSet builds the parse.KindSet the parser needs to recognize tags
// and section openers, reflecting the current registry (spec §4.2 step 2
// and §4.4's "parser's section-opener set" requirement).
func (h *HandlerTable) kindSet() parse.KindSet {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ks := parse.KindSet{Sections: map[string]bool{}}
	for kind, e := range h.handlers {
		if kind == parse.KindText || kind == parse.KindName {
			continue // not directive keywords: text is literal runs, name is tagRe's no-match fallback
		}
		ks.Tags = append(ks.Tags, kind)
		if e.isSection {
			ks.Sections[kind] = true
		}
	}
	return ks
}

func handleText(tok *parse.Token, fr *frame.Frame, w *Writer) (string, bool, error) {
	return tok.Payload, true, nil
}

// handleName implements spec §4.5's `name` contract, including the
// `base[index]` indexing form.
func handleName(tok *parse.Token, fr *frame.Frame, w *Writer) (string, bool, error) {
	payload := tok.Payload
	var resolved interface{}
	var err error
	if br := strings.IndexByte(payload, '['); br >= 0 && strings.HasSuffix(payload, "]") {
		base := payload[:br]
		idxExpr := payload[br+1 : len(payload)-1]
		baseVal, lerr := fr.Lookup(base, nil)
		if lerr != nil {
			return "", false, lerr
		}
		idxVal, ierr := fr.Lookup(idxExpr, nil)
		if ierr != nil || frame.IsUndefined(idxVal) {
			idxVal = idxExpr
		}
		resolved, err = indexInto(baseVal, idxVal), nil
	} else {
		resolved, err = fr.Lookup(payload, nil)
	}
	if err != nil {
		w.logf(tok, "render-time function error: %v", err)
	}
	if frame.IsUndefined(resolved) {
		return "", true, nil
	}
	return w.Escape(resolved), true, nil
}

func indexInto(base, idx interface{}) interface{} {
	switch k := idx.(type) {
	case int:
		if v, ok := value.Index(base, k); ok {
			return v
		}
	case string:
		if v, ok := value.Key(base, k); ok {
			return v
		}
		if n, err := strconv.Atoi(k); err == nil {
			if v, ok := value.Index(base, n); ok {
				return v
			}
		}
	}
	return frame.Undefined
}

func handleVoid(tok *parse.Token, fr *frame.Frame, w *Writer) (string, bool, error) {
	_, err := fr.FunctionCall(tok.Payload)
	if err != nil {
		w.logf(tok, "render-time function error: %v", err)
	}
	return "", false, nil
}

func handleValue(tok *parse.Token, fr *frame.Frame, w *Writer) (string, bool, error) {
	result, err := fr.FunctionCall(tok.Payload)
	if err != nil {
		w.logf(tok, "render-time function error: %v", err)
		return "", false, nil
	}
	if frame.IsUndefined(result) {
		return "", true, nil
	}
	return w.Escape(result), true, nil
}

// handleSub implements the `%` sub-template contract: the payload is
// first tried as a data name (dynamic template selection), falling back
// to the literal payload as a template name.
func handleSub(tok *parse.Token, fr *frame.Frame, w *Writer) (string, bool, error) {
	name := tok.Payload
	if v, err := fr.Lookup(name, nil); err == nil && !frame.IsUndefined(v) {
		if s, ok := v.(string); ok {
			name = s
		}
	}
	out, err := w.renderCached(name, fr)
	if err != nil {
		w.logf(tok, "missing sub-template %q: %v", name, err)
		return "", false, nil
	}
	return out, true, nil
}

func handleHTML(tok *parse.Token, fr *frame.Frame, w *Writer) (string, bool, error) {
	v, err := fr.Lookup(tok.Payload, nil)
	if err != nil {
		w.logf(tok, "render-time function error: %v", err)
	}
	if frame.IsUndefined(v) {
		return "", false, nil
	}
	if w.domSink != nil && w.domSink.IsElement(v) {
		return w.domSink.Serialize(v), true, nil
	}
	return value.Stringify(v), true, nil
}

func handleIf(tok *parse.Token, fr *frame.Frame, w *Writer) (string, bool, error) {
	cond, err := w.evalConditional(tok.Payload, fr)
	if err != nil {
		w.logf(tok, "bad conditional operator: %v", err)
	}
	children, elseChildren := splitElse(tok.Children)
	if cond {
		out, rerr := w.renderTokens(children, fr)
		return out, true, rerr
	}
	out, rerr := w.renderTokens(elseChildren, fr)
	return out, true, rerr
}

func splitElse(children []*parse.Token) (before, after []*parse.Token) {
	for i, c := range children {
		if c.Kind == parse.KindElse {
			return children[:i], children[i+1:]
		}
	}
	return children, nil
}

func handleEach(tok *parse.Token, fr *frame.Frame, w *Writer) (string, bool, error) {
	v, err := fr.Lookup(tok.Payload, nil)
	if err != nil {
		w.logf(tok, "render-time function error: %v", err)
	}
	if !value.Truthy(v) {
		return "", false, nil
	}
	if value.IsCallable(v) {
		v, err = value.Invoke(v, fr.View, nil)
		if err != nil {
			w.logf(tok, "render-time function error: %v", err)
			return "", false, nil
		}
	}
	out, err := renderEach(w, tok, fr, v)
	if err != nil {
		return out, true, err
	}
	return out, true, nil
}

func handleGet(tok *parse.Token, fr *frame.Frame, w *Writer) (string, bool, error) {
	v, err := fr.Lookup(tok.Payload, nil)
	if err != nil {
		w.logf(tok, "render-time function error: %v", err)
	}
	if !value.Truthy(v) {
		return "", false, nil
	}
	child := fr.Push(v)
	out, rerr := w.renderTokens(tok.Children, child)
	return out, true, rerr
}

func handlePromise(tok *parse.Token, fr *frame.Frame, w *Writer) (string, bool, error) {
	v, err := fr.Lookup(tok.Payload, nil)
	if err != nil {
		w.logf(tok, "render-time function error: %v", err)
	}
	deferred, ok := v.(Deferred)
	if !ok {
		w.logf(tok, "promise handler: value is not deferred")
		return "", false, nil
	}
	id := w.nextPlaceholderID()
	placeholder := fmt.Sprintf(`<template id="dirtagPromise-%d"></template>`, id)
	children := tok.Children
	deferred.Then(func(resolved interface{}) {
		out, _ := renderPromiseChildren(w, children, fr, resolved)
		if w.domSink != nil {
			w.domSink.ReplaceContent(id, out)
		}
	})
	deferred.Catch(func(e error) {
		w.logf(tok, "promise rejected: %v", e)
	})
	return placeholder, true, nil
}

func renderPromiseChildren(w *Writer, children []*parse.Token, fr *frame.Frame, resolved interface{}) (string, error) {
	var sb strings.Builder
	render := func(elem interface{}) error {
		out, err := w.renderTokens(children, fr.Push(elem))
		if err != nil {
			return err
		}
		sb.WriteString(out)
		return nil
	}
	if elems, ok := resolved.([]interface{}); ok {
		for _, e := range elems {
			if err := render(e); err != nil {
				return sb.String(), err
			}
		}
		return sb.String(), nil
	}
	if err := render(resolved); err != nil {
		return sb.String(), err
	}
	return sb.String(), nil
}
