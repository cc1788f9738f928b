// Package frame implements the Context stack frame of spec §4.3: a view
// value, parent/root links, a host-environment link, and a per-frame
// lookup cache, plus the dotted-name resolution grammar of §4.3.1-4.3.3.
//
// It generalizes the teacher's scope type (exec.go: a stack of data.Map,
// pushed/popped/looked-up by the executor) into a linked list of frames
// so that `root` stays reachable from arbitrarily deep pushes, and widens
// the traversed value from a closed data.Map algebra to any host value
// via package value.
package frame

import (
	"strconv"
	"strings"

	"github.com/robfig/dirtag/host"
	"github.com/robfig/dirtag/value"
)

// undefined is the sentinel returned when a name resolves to nothing; it
// is distinct from a view that legitimately holds Go nil, mirroring the
// spec's distinct "undefined" vs "null" literals.
type undefinedType struct{}

// Undefined is the value Lookup returns when a name cannot be resolved.
var Undefined interface{} = undefinedType{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v interface{}) bool {
	_, ok := v.(undefinedType)
	return ok
}

// Frame is one level of the Context stack (spec §4.3).
type Frame struct {
	View   interface{}
	Parent *Frame
	Root   *Frame
	Host   *host.Environment

	cache         map[string]interface{}
	cacheDisabled bool
}

// hostGlobalView marks a Frame's View as "the host global scope" for the
// synthesized `&`-frame (spec §4.3.1 step 4).
type hostGlobalView struct{ env *host.Environment }

// NewRoot constructs the root Context frame created by render (spec
// §4.3's lifecycle). A nil view becomes an empty mapping.
func NewRoot(view interface{}, h *host.Environment) *Frame {
	if view == nil {
		view = map[string]interface{}{}
	}
	f := &Frame{View: view, Host: h}
	f.Root = f
	f.cache = map[string]interface{}{"$": view}
	return f
}

// Push returns a new child frame with this frame as parent, preserving
// root across arbitrarily deep nesting.
func (f *Frame) Push(view interface{}) *Frame {
	if view == nil {
		view = map[string]interface{}{}
	}
	child := &Frame{View: view, Parent: f, Root: f.Root, Host: f.Host}
	child.cache = map[string]interface{}{"$": view}
	return child
}

// hostFrame is the sentinel, cache-disabled frame that `&`-scoped
// lookups target (spec §4.3.1 step 4 and §3's Context invariants).
func (f *Frame) hostFrame() *Frame {
	return &Frame{
		View:          hostGlobalView{f.Host},
		Root:          f.Root,
		Host:          f.Host,
		cacheDisabled: true,
	}
}

func (f *Frame) cacheGet(name string) (interface{}, bool) {
	if f.cacheDisabled || f.cache == nil {
		return nil, false
	}
	v, ok := f.cache[name]
	return v, ok
}

func (f *Frame) cacheSet(name string, v interface{}) {
	if f.cacheDisabled {
		return
	}
	if f.cache == nil {
		f.cache = map[string]interface{}{}
	}
	f.cache[name] = v
}

// stripQuoted returns the body of a quoted string literal starting at s
// (s[0] is the quote char) and whether it was well-formed.
func stripQuoted(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	quote := s[0]
	if s[len(s)-1] != quote {
		return "", false
	}
	return s[1 : len(s)-1], true
}

func isReservedLiteral(name string) (interface{}, bool) {
	switch name {
	case "undefined":
		return Undefined, true
	case "true":
		return true, true
	case "false":
		return false, true
	case "null":
		return nil, true
	}
	return nil, false
}

// LookupWithReserved is used for function-call arguments and conditional
// operands (spec §4.3.2): it recognizes reserved literal spellings,
// quoted strings, and integer literals before falling back to Lookup.
func (f *Frame) LookupWithReserved(name string) (interface{}, error) {
	if lit, ok := isReservedLiteral(name); ok {
		return lit, nil
	}
	if len(name) >= 2 && (name[0] == '"' || name[0] == '\'') {
		if body, ok := stripQuoted(name); ok {
			return body, nil
		}
	}
	if n, err := strconv.Atoi(name); err == nil {
		return n, nil
	}
	return f.Lookup(name, nil)
}

// Lookup resolves a dotted name against this frame per spec §4.3.1.
func (f *Frame) Lookup(name string, args []interface{}) (interface{}, error) {
	if strings.Contains(name, "(") {
		return f.FunctionCall(name)
	}

	negate := false
	if strings.HasPrefix(name, "!") {
		negate = true
		name = name[1:]
	}

	if len(name) > 0 && (name[0] == '"' || name[0] == '\'') {
		body, ok := stripQuoted(name)
		if ok {
			return applyNegate(body, negate), nil
		}
	}

	target := f
	switch {
	case strings.HasPrefix(name, "#"):
		target = f.Root
		rest := ""
		if len(name) > 2 {
			rest = name[2:]
		}
		if rest == "" {
			rest = "$"
		}
		name = rest
	case strings.HasPrefix(name, "&"):
		target = f.hostFrame()
		if len(name) > 2 {
			name = name[2:]
		} else {
			name = ""
		}
	}

	if v, ok := target.cacheGet(name); ok {
		return applyNegate(v, negate), nil
	}

	nonAscending := false
	if strings.HasPrefix(name, "$.") {
		name = name[2:]
		nonAscending = true
	}

	value_, this, found := target.walk(name, nonAscending)
	if !found {
		return applyNegate(Undefined, negate), nil
	}

	if value.IsCallable(value_) {
		result, err := value.Invoke(value_, this, args)
		if err != nil {
			return applyNegate(Undefined, negate), err
		}
		return applyNegate(result, negate), nil
	}

	target.cacheSet(name, value_)
	return applyNegate(value_, negate), nil
}

func applyNegate(v interface{}, negate bool) interface{} {
	if !negate {
		return v
	}
	return !value.Truthy(v)
}

// walk implements spec §4.3.1 step 7: ascend from fr through parents (or
// just once, non-ascending, if nonAscending is set) looking up name; once
// parents are exhausted it retries once at root, non-ascending (the
// later-revision behavior chosen in DESIGN.md).
func (fr *Frame) walk(name string, nonAscending bool) (val interface{}, this interface{}, found bool) {
	for cur := fr; cur != nil; cur = cur.Parent {
		val, this, found = cur.readOnce(name)
		if found {
			return val, this, true
		}
		if nonAscending {
			break
		}
	}
	if !nonAscending && fr.Root != nil && fr.Root != fr {
		if val, this, found = fr.Root.readOnce(name); found {
			return val, this, true
		}
	}
	return nil, nil, false
}

// readOnce resolves name against a single frame's View, without
// ascending to parent/root.
func (fr *Frame) readOnce(name string) (val interface{}, this interface{}, found bool) {
	if hg, ok := fr.View.(hostGlobalView); ok {
		return readHost(hg, name)
	}
	if !strings.Contains(name, ".") {
		return readTop(fr.View, name)
	}
	segs := strings.Split(name, ".")
	cur := fr.View
	var owner interface{}
	for _, seg := range segs {
		owner = cur
		next, ok := readSegment(cur, seg)
		if !ok {
			return nil, nil, false
		}
		cur = next
	}
	return cur, owner, true
}

func readTop(view interface{}, name string) (interface{}, interface{}, bool) {
	v, ok := readSegment(view, name)
	return v, view, ok
}

func readSegment(view interface{}, seg string) (interface{}, bool) {
	if v, ok := value.Key(view, seg); ok {
		return v, true
	}
	if idx, err := strconv.Atoi(seg); err == nil {
		if v, ok := value.Index(view, idx); ok {
			return v, true
		}
	}
	return nil, false
}

func readHost(hg hostGlobalView, name string) (interface{}, interface{}, bool) {
	if hg.env == nil || name == "" {
		return nil, nil, false
	}
	v, err := hg.env.GetPath(name)
	if err != nil {
		return nil, nil, false
	}
	return v, nil, true
}
