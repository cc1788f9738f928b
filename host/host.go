// Package host implements the "host environment" capability object named
// in spec §9: a well-typed collaborator that `&`-scoped lookups and bare
// (non-scoped) functionCall invocations reach into, standing in for the
// real process/browser globals the original design assumed.
//
// It is backed by a real embedded JS VM (otto), the same one the teacher
// uses in soyjs/exec_test.go to execute generated JS — here put to
// production use rather than test-only use, since it gives "arbitrary
// host globals" (String, Math, JSON, ...) a genuine non-browser home and
// lets an embedder Whitelist additional Go functions into it safely.
package host

import (
	"fmt"
	"strings"

	"github.com/robertkrimen/otto"
)

// Environment is a sandboxed set of host globals a template's directives
// may call into. The zero value is not usable; use New.
type Environment struct {
	vm *otto.Otto
}

// New returns an Environment seeded with the VM's JS builtins (String,
// Math, JSON, Array, ...) and nothing else: callers opt additional Go
// functions in explicitly via Whitelist.
func New() *Environment {
	return &Environment{vm: otto.New()}
}

// Whitelist exposes fn under dottedName (e.g. "strings.upper") as a
// callable host global. Intermediate path segments are created as plain
// JS objects if they don't already exist.
func (e *Environment) Whitelist(dottedName string, fn interface{}) error {
	parts := strings.Split(dottedName, ".")
	if len(parts) == 1 {
		return e.vm.Set(parts[0], fn)
	}
	root, err := e.vm.Object(`({})`)
	if existing, getErr := e.vm.Get(parts[0]); getErr == nil && existing.IsObject() {
		root = existing.Object()
	} else if err != nil {
		return err
	}
	if err := e.vm.Set(parts[0], root); err != nil {
		return err
	}
	obj := root
	for _, seg := range parts[1 : len(parts)-1] {
		child, err := obj.Get(seg)
		if err != nil {
			return err
		}
		if !child.IsObject() {
			newChild, err := e.vm.Object(`({})`)
			if err != nil {
				return err
			}
			if err := obj.Set(seg, newChild); err != nil {
				return err
			}
			obj = newChild
		} else {
			obj = child.Object()
		}
	}
	return obj.Set(parts[len(parts)-1], fn)
}

// Get resolves a single top-level host global by name.
func (e *Environment) Get(name string) (interface{}, bool) {
	v, err := e.vm.Get(name)
	if err != nil || v.IsUndefined() {
		return nil, false
	}
	exported, err := v.Export()
	if err != nil {
		return nil, false
	}
	return exported, true
}

// GetPath resolves a dotted path (e.g. "Math.PI") against the host
// globals, walking through nested objects.
func (e *Environment) GetPath(dotted string) (interface{}, error) {
	v, err := e.resolve(dotted)
	if err != nil {
		return nil, err
	}
	return v.Export()
}

// Call resolves dotted (a dotted path ending in a callable) and invokes
// it with args, binding its containing object as "this" the way a JS
// method call would.
func (e *Environment) Call(dotted string, args []interface{}) (interface{}, error) {
	parts := strings.Split(dotted, ".")
	var this otto.Value
	var fn otto.Value
	var err error
	if len(parts) == 1 {
		fn, err = e.vm.Get(parts[0])
		if err != nil {
			return nil, err
		}
		this = otto.UndefinedValue()
	} else {
		ownerPath := strings.Join(parts[:len(parts)-1], ".")
		this, err = e.resolve(ownerPath)
		if err != nil {
			return nil, err
		}
		if !this.IsObject() {
			return nil, fmt.Errorf("host: %q is not an object", ownerPath)
		}
		fn, err = this.Object().Get(parts[len(parts)-1])
		if err != nil {
			return nil, err
		}
	}
	if !fn.IsFunction() {
		return nil, fmt.Errorf("host: %q is not callable", dotted)
	}
	jsArgs := make([]interface{}, len(args))
	for i, a := range args {
		jsArgs[i] = a
	}
	result, err := fn.Call(this, jsArgs...)
	if err != nil {
		return nil, err
	}
	if result.IsUndefined() || result.IsNull() {
		return nil, nil
	}
	return result.Export()
}

func (e *Environment) resolve(dotted string) (otto.Value, error) {
	parts := strings.Split(dotted, ".")
	cur, err := e.vm.Get(parts[0])
	if err != nil {
		return otto.Value{}, err
	}
	for _, seg := range parts[1:] {
		if !cur.IsObject() {
			return otto.Value{}, fmt.Errorf("host: cannot access %q of non-object", seg)
		}
		cur, err = cur.Object().Get(seg)
		if err != nil {
			return otto.Value{}, err
		}
	}
	return cur, nil
}
