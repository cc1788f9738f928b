package value

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    interface{}
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{"", false},
		{"x", true},
		{0, false},
		{1, true},
		{[]interface{}{}, true},
		{map[string]interface{}{}, true},
	}
	for _, c := range cases {
		if got := Truthy(c.v); got != c.want {
			t.Errorf("Truthy(%#v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestConvertStruct(t *testing.T) {
	type Person struct {
		Name string
		Age  int
	}
	got := Convert(Person{Name: "Ada", Age: 30})
	want := map[string]interface{}{"name": "Ada", "age": 30}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Convert mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyStructAndMap(t *testing.T) {
	type Box struct{ Value int }
	if v, ok := Key(Box{Value: 5}, "value"); !ok || v != 5 {
		t.Errorf("Key(struct) = %v, %v", v, ok)
	}
	if v, ok := Key(map[string]interface{}{"a": 1}, "a"); !ok || v != 1 {
		t.Errorf("Key(map) = %v, %v", v, ok)
	}
	if _, ok := Key(map[string]interface{}{"a": 1}, "b"); ok {
		t.Errorf("Key(map) missing should be ok=false")
	}
}

func TestCompare(t *testing.T) {
	if cmp, ok := Compare(1, 2); !ok || cmp >= 0 {
		t.Errorf("Compare(1,2) = %v, %v", cmp, ok)
	}
	if cmp, ok := Compare("b", "a"); !ok || cmp <= 0 {
		t.Errorf("Compare(b,a) = %v, %v", cmp, ok)
	}
}

func TestInvoke(t *testing.T) {
	fn := func(a, b int) int { return a + b }
	result, err := Invoke(fn, nil, []interface{}{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if result != 3 {
		t.Errorf("Invoke = %v, want 3", result)
	}
}
