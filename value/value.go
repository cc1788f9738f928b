// Package value implements the dynamic, host-native value semantics that
// template views are built from: truthiness, stringification, equality,
// ordering, and reflection-based conversion of arbitrary Go values (maps,
// slices, structs, funcs) into the shapes the rendering pipeline expects.
//
// Unlike a closed algebraic value type, a view here stays interface{} all
// the way through — templates may hold any Go value the host hands them,
// including callables, mirroring the original engine's JS-object views.
package value

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"
)

var timeType = reflect.TypeOf(time.Time{})

// Truthy reports whether v counts as true in a conditional or {{each}}
// guard. nil, false, numeric zero, NaN (float64), "" and nil pointers or
// interfaces are falsy; everything else, including empty slices, arrays
// and maps, is truthy, as in a JS-like engine.
func Truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0 && !math.IsNaN(t)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return Truthy(rv.Elem().Interface())
	case reflect.Slice, reflect.Map, reflect.Array:
		return true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String() != ""
	}
	return true
}

// Stringify renders v the way a print directive would: the default
// stringification used when no escaper-specific formatting applies.
func Stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return Stringify(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.String:
		return rv.String()
	}
	return fmt.Sprintf("%v", v)
}

// Equal mirrors the loose-but-typed comparison used by the "===" family of
// conditional operators: numerically comparable types compare by value,
// everything else compares by Go equality where that's safe (and falls
// back to false for uncomparable kinds like slices/maps/funcs).
func Equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	av := reflect.ValueOf(a)
	if !av.Comparable() {
		return false
	}
	bv := reflect.ValueOf(b)
	if !bv.Comparable() {
		return false
	}
	defer func() { recover() }()
	return a == b
}

// Compare orders a and b numerically/lexically for the relational
// operators (>, >=, <, <=). ok is false if the two values can't be
// compared this way.
func Compare(a, b interface{}) (cmp int, ok bool) {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// StructOptions controls how Convert turns structs into map[string]interface{}.
type StructOptions struct {
	LowerCamel bool   // lower-case the first rune of each field name
	TimeFormat string // format string for time.Time fields
}

// DefaultStructOptions matches the field-naming convention templates
// expect: lowerCamel keys, RFC3339 timestamps.
var DefaultStructOptions = StructOptions{
	LowerCamel: true,
	TimeFormat: time.RFC3339,
}

// Convert normalizes obj (typically the view handed to Render) using
// DefaultStructOptions: structs become maps, everything else passes
// through drilled of pointers/interfaces. Slices, other maps and
// primitives are returned unchanged in shape but walked recursively so
// that nested structs convert too.
func Convert(obj interface{}) interface{} {
	return ConvertWith(DefaultStructOptions, obj)
}

// ConvertWith is Convert with an explicit StructOptions.
func ConvertWith(opt StructOptions, obj interface{}) interface{} {
	if obj == nil {
		return nil
	}
	if _, ok := obj.(map[string]interface{}); ok {
		return walkMap(opt, obj.(map[string]interface{}))
	}
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}
	if v.Type() == timeType {
		return v.Interface().(time.Time).Format(opt.TimeFormat)
	}
	switch v.Kind() {
	case reflect.Struct:
		return structToMap(opt, v)
	case reflect.Map:
		m := make(map[string]interface{}, v.Len())
		for _, key := range v.MapKeys() {
			m[Stringify(key.Interface())] = ConvertWith(opt, v.MapIndex(key).Interface())
		}
		return m
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, v.Len())
		for i := range out {
			out[i] = ConvertWith(opt, v.Index(i).Interface())
		}
		return out
	default:
		return v.Interface()
	}
}

func walkMap(opt StructOptions, m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = ConvertWith(opt, v)
	}
	return out
}

func structToMap(opt StructOptions, v reflect.Value) map[string]interface{} {
	t := v.Type()
	m := make(map[string]interface{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !v.Field(i).CanInterface() {
			continue
		}
		key := f.Name
		if opt.LowerCamel {
			r, size := utf8.DecodeRuneInString(key)
			key = string(unicode.ToLower(r)) + key[size:]
		}
		m[key] = ConvertWith(opt, v.Field(i).Interface())
	}
	return m
}

// Index retrieves element i of v if v is a slice/array, or the zero value
// and false otherwise.
func Index(v interface{}, i int) (interface{}, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

// Key retrieves field/key name of v if v is a map or struct, or the zero
// value and false otherwise.
func Key(v interface{}, name string) (interface{}, bool) {
	if v == nil {
		return nil, false
	}
	if m, ok := v.(map[string]interface{}); ok {
		val, ok := m[name]
		return val, ok
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		mv := rv.MapIndex(reflect.ValueOf(name))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		fv := rv.FieldByNameFunc(func(n string) bool {
			return matchesFieldName(n, name)
		})
		if !fv.IsValid() || !fv.CanInterface() {
			return nil, false
		}
		return fv.Interface(), true
	}
	return nil, false
}

func matchesFieldName(fieldName, want string) bool {
	if fieldName == want {
		return true
	}
	r, size := utf8.DecodeRuneInString(fieldName)
	return string(unicode.ToLower(r))+fieldName[size:] == want
}

// IsCallable reports whether v is a Go func value that Invoke can call.
func IsCallable(v interface{}) bool {
	if v == nil {
		return false
	}
	return reflect.ValueOf(v).Kind() == reflect.Func
}

// Invoke calls the callable v with args, binding this as the receiver
// when the func's first parameter is of this's own type (a loose analogue
// of a JS "this" binding for host methods; an interface-typed first
// parameter is not bound to this); extra/missing args are truncated or
// zero-filled to the target arity.
func Invoke(v interface{}, this interface{}, args []interface{}) (interface{}, error) {
	fv := reflect.ValueOf(v)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("value is not callable: %T", v)
	}
	ft := fv.Type()
	in := make([]reflect.Value, 0, ft.NumIn())
	argIdx := 0
	start := 0
	if ft.NumIn() > 0 && this != nil && ft.In(0).AssignableTo(reflect.TypeOf(this)) {
		in = append(in, reflect.ValueOf(this))
		start = 1
	}
	for i := start; i < ft.NumIn(); i++ {
		var arg interface{}
		if argIdx < len(args) {
			arg = args[argIdx]
			argIdx++
		}
		pt := ft.In(i)
		if arg == nil {
			in = append(in, reflect.Zero(pt))
			continue
		}
		av := reflect.ValueOf(arg)
		if av.Type().AssignableTo(pt) {
			in = append(in, av)
		} else if av.Type().ConvertibleTo(pt) {
			in = append(in, av.Convert(pt))
		} else {
			return nil, fmt.Errorf("argument %d: cannot use %T as %s", i, arg, pt)
		}
	}
	var result interface{}
	var callErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("panic calling function: %v", r)
			}
		}()
		out := fv.Call(in)
		if len(out) > 0 {
			result = out[0].Interface()
		}
	}()
	return result, callErr
}

// SortedKeys returns the keys of m in sorted order when m is a
// map[string]interface{}; otherwise it falls back to sorted reflect keys
// (used by {{each}} over arbitrary host maps, which carry no ordering).
func SortedKeys(m interface{}) []string {
	if mm, ok := m.(map[string]interface{}); ok {
		keys := make([]string, 0, len(mm))
		for k := range mm {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	}
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Map {
		return nil
	}
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, Stringify(k.Interface()))
	}
	sort.Strings(keys)
	return keys
}
