package frame

import (
	"fmt"
	"strings"

	"github.com/robfig/dirtag/value"
)

// FunctionCall implements spec §4.3.3: name is "head(arg, arg, ...)".
// A head starting with a scope selector (#, &, $) delegates back into
// Lookup so the call can reach a scoped function value; any other head
// is resolved as a dotted path against the host environment and invoked
// there, mirroring a bare global function call.
func (f *Frame) FunctionCall(name string) (interface{}, error) {
	negate := false
	if strings.HasPrefix(name, "!") {
		negate = true
		name = name[1:]
	}

	open := strings.IndexByte(name, '(')
	if open < 0 || !strings.HasSuffix(name, ")") {
		return nil, fmt.Errorf("frame: malformed function call: %q", name)
	}
	head := name[:open]
	argStr := name[open+1 : len(name)-1]
	args, err := f.parseArgs(argStr)
	if err != nil {
		return nil, err
	}
	if head == "" {
		return nil, fmt.Errorf("frame: empty function call head in %q", name)
	}

	var result interface{}
	switch head[0] {
	case '#', '&', '$':
		result, err = f.Lookup(head, args)
	default:
		if f.Host == nil {
			return nil, fmt.Errorf("frame: no host environment for function call %q", head)
		}
		result, err = f.Host.Call(head, args)
	}
	if err != nil {
		return nil, err
	}
	if negate {
		return !value.Truthy(result), nil
	}
	return result, nil
}

// parseArgs splits a function call's argument list and resolves each
// argument expression via LookupWithReserved (spec §4.3.2), so arguments
// may themselves be names, reserved literals, quoted strings or numbers.
func (f *Frame) parseArgs(s string) ([]interface{}, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := splitArgs(s)
	args := make([]interface{}, len(parts))
	for i, p := range parts {
		v, err := f.LookupWithReserved(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// splitArgs splits s on top-level commas, treating quoted substrings as
// opaque so a comma inside a string literal argument isn't a separator.
func splitArgs(s string) []string {
	var parts []string
	var buf strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			buf.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			buf.WriteByte(c)
		case c == ',':
			parts = append(parts, buf.String())
			buf.Reset()
		default:
			buf.WriteByte(c)
		}
	}
	parts = append(parts, buf.String())
	return parts
}
