package dirtag

import (
	"reflect"
	"strings"

	"github.com/robfig/dirtag/frame"
	"github.com/robfig/dirtag/parse"
	"github.com/robfig/dirtag/value"
)

// renderEach implements the `each` contract's iteration shapes (spec
// §4.5): an ordered list iterates by position, a keyed mapping iterates
// its keys in sorted order (not insertion order) synthesizing
// {$index, $value} (the deterministic choice
// recorded in DESIGN.md for the "each over a keyed mapping" open
// question), and a scalar renders the children once against itself.
func renderEach(w *Writer, tok *parse.Token, fr *frame.Frame, v interface{}) (string, error) {
	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array:
		var sb strings.Builder
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i).Interface()
			child := eachListChildView(i, elem)
			out, err := w.renderTokens(tok.Children, fr.Push(child))
			if err != nil {
				return sb.String(), err
			}
			sb.WriteString(out)
		}
		return sb.String(), nil

	case rv.Kind() == reflect.Map:
		var sb strings.Builder
		for _, key := range value.SortedKeys(v) {
			elem, _ := value.Key(v, key)
			child := map[string]interface{}{"$index": key, "$value": elem}
			out, err := w.renderTokens(tok.Children, fr.Push(child))
			if err != nil {
				return sb.String(), err
			}
			sb.WriteString(out)
		}
		return sb.String(), nil

	default:
		out, err := w.renderTokens(tok.Children, fr.Push(v))
		return out, err
	}
}

// eachListChildView augments an object element with $index, or wraps a
// non-object element in the synthetic {$index, $value} form.
func eachListChildView(index int, elem interface{}) interface{} {
	if m, ok := elem.(map[string]interface{}); ok {
		out := make(map[string]interface{}, len(m)+1)
		for k, v := range m {
			out[k] = v
		}
		out["$index"] = index
		return out
	}
	rv := reflect.ValueOf(elem)
	if rv.IsValid() && rv.Kind() == reflect.Struct {
		converted := value.Convert(elem)
		if m, ok := converted.(map[string]interface{}); ok {
			m["$index"] = index
			return m
		}
	}
	return map[string]interface{}{"$index": index, "$value": elem}
}
