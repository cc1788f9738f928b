package host

import "testing"

func TestCallBuiltin(t *testing.T) {
	env := New()
	result, err := env.Call("String", []interface{}{5})
	if err != nil {
		t.Fatal(err)
	}
	if result != "5" {
		t.Errorf("String(5) = %v, want \"5\"", result)
	}
}

func TestCallMathMethod(t *testing.T) {
	env := New()
	result, err := env.Call("Math.max", []interface{}{3, 7})
	if err != nil {
		t.Fatal(err)
	}
	if result != int64(7) && result != float64(7) {
		t.Errorf("Math.max(3,7) = %v, want 7", result)
	}
}

func TestWhitelist(t *testing.T) {
	env := New()
	if err := env.Whitelist("strings.shout", func(s string) string {
		return s + "!"
	}); err != nil {
		t.Fatal(err)
	}
	result, err := env.Call("strings.shout", []interface{}{"hi"})
	if err != nil {
		t.Fatal(err)
	}
	if result != "hi!" {
		t.Errorf("strings.shout(hi) = %v, want hi!", result)
	}
}
