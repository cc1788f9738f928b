package dirtag

import (
	"reflect"
	"strings"

	"github.com/robfig/dirtag/value"
)

// def is the package-level default Writer the facade wraps (spec §9:
// "the singleton facade is an ergonomic convenience; ... construct them
// as an engine instance and let the singleton be a thin default").
var def = NewWriter()

// Parse compiles source under name against the default Writer.
func Parse(name, source string) error { return def.Parse(name, source) }

// Render renders the template cached under name against view using the
// default Writer.
func Render(name string, view interface{}) (string, error) { return def.Render(name, view) }

// Exists reports whether name is cached in the default Writer.
func Exists(name string) bool { return def.Exists(name) }

// ClearCache drops every template cached in the default Writer.
func ClearCache() { def.ClearCache() }

// ListTemplates lists the default Writer's cached template names.
func ListTemplates() []string { return def.ListTemplates() }

// AddTokenHandler registers a handler for kind on the default Writer.
// The facade keeps spec §6's two-argument addTokenHandler(kind, fn)
// notation in name; isSection is the added piece of parser metadata
// documented in SPEC_FULL.md §5.4.
func AddTokenHandler(kind string, isSection bool, fn HandlerFunc) error {
	return def.AddTokenHandler(kind, isSection, fn)
}

// Tags returns the default Writer's [open, close] delimiter pair.
func Tags() [2]string { return def.Tags() }

// SetTags overrides the default Writer's delimiter pair.
func SetTags(open, close string) error { return def.SetTags(open, close) }

// SetDomSink installs the DOM collaborator the default Writer's `html`
// and `promise` handlers use.
func SetDomSink(sink DomSink) { def.SetDomSink(sink) }

// Escape is the replaceable HTML escaper the facade's default Writer
// uses (spec §6); assigning to it changes escaping for every `name`/
// `>>` render through the default Writer.
var Escape = DefaultEscape

func init() {
	def.Escape = func(v interface{}) string { return Escape(v) }
}

var htmlEscapes = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// DefaultEscape stringifies v and replaces <, >, ', " with their HTML
// entity forms (spec §6's default escaper character set).
func DefaultEscape(v interface{}) string {
	return htmlEscapes.Replace(value.Stringify(v))
}

// ArrayLength returns the length of v if it is a slice or array, else 0.
func ArrayLength(v interface{}) int {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len()
	}
	return 0
}

// InArray reports whether needle appears in haystack, which must be a
// slice or array; comparison uses value.Equal.
func InArray(haystack interface{}, needle interface{}) bool {
	rv := reflect.ValueOf(haystack)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if value.Equal(rv.Index(i).Interface(), needle) {
				return true
			}
		}
	}
	return false
}

// IsObject reports whether v is a map or struct (as opposed to a scalar
// or list) — a convenience predicate templates may call via a
// whitelisted host function.
func IsObject(v interface{}) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Struct:
		return true
	}
	return false
}
