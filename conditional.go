package dirtag

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/robfig/dirtag/frame"
	"github.com/robfig/dirtag/value"
)

// boolSplit is the &&/|| separator pattern (spec §4.6), applied with
// spaces already stripped from the payload.
var boolSplit = regexp.MustCompile(`(&&|\|\|)`)

// cmpSplit recognizes the comparison operators a sub-expression may
// split on; longer operators are listed first so e.g. "===" isn't cut
// short by "==". Only ===, !==, >, >=, < and <= are applied; "==" and
// "!=" are split on but evalSubExpr reports them as bad operators.
var cmpSplit = regexp.MustCompile(`(===|!==|==|!=|>=|<=|<|>)`)

// evalConditional implements the `if` handler's boolean evaluator (spec
// §4.6): split on &&/||, evaluate each sub-expression, fold left to
// right with short-circuit semantics.
func (w *Writer) evalConditional(payload string, fr *frame.Frame) (bool, error) {
	payload = strings.ReplaceAll(payload, " ", "")
	if payload == "" {
		return false, nil
	}
	parts := boolSplit.Split(payload, -1)
	seps := boolSplit.FindAllString(payload, -1)

	var firstErr error
	result, err := w.evalSubExpr(parts[0], fr)
	if err != nil && firstErr == nil {
		firstErr = err
	}
	for i, sep := range seps {
		rhs, err := w.evalSubExpr(parts[i+1], fr)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		switch sep {
		case "&&":
			if !result {
				continue // short-circuit: rhs already evaluated per spec's eager split, but fold keeps left value
			}
			result = result && rhs
		case "||":
			if result {
				continue
			}
			result = result || rhs
		}
	}
	return result, firstErr
}

// evalSubExpr evaluates a single comparison sub-expression (or bare
// truthiness test) against fr.
func (w *Writer) evalSubExpr(expr string, fr *frame.Frame) (bool, error) {
	pieces := cmpSplit.Split(expr, -1)
	ops := cmpSplit.FindAllString(expr, -1)
	if len(ops) == 0 {
		v, err := fr.Lookup(expr, nil)
		return value.Truthy(v), err
	}
	if len(pieces) != 2 || len(ops) != 1 {
		return false, fmt.Errorf("dirtag: malformed conditional expression %q", expr)
	}
	lhs, lerr := fr.LookupWithReserved(pieces[0])
	rhs, rerr := fr.LookupWithReserved(pieces[1])
	if lerr != nil {
		return false, lerr
	}
	if rerr != nil {
		return false, rerr
	}
	switch ops[0] {
	case "===":
		return value.Equal(lhs, rhs), nil
	case "!==":
		return !value.Equal(lhs, rhs), nil
	case ">", ">=", "<", "<=":
		cmp, ok := value.Compare(lhs, rhs)
		if !ok {
			return false, fmt.Errorf("dirtag: cannot compare %T and %T", lhs, rhs)
		}
		switch ops[0] {
		case ">":
			return cmp > 0, nil
		case ">=":
			return cmp >= 0, nil
		case "<":
			return cmp < 0, nil
		case "<=":
			return cmp <= 0, nil
		}
	}
	return false, fmt.Errorf("dirtag: bad conditional operator %q", ops[0])
}
