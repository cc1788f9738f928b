package parse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func defaultKinds() KindSet {
	return KindSet{
		Tags: []string{KindVoid, KindValue, KindSub, KindIf, KindEach, KindGet, KindPromise, KindHTML},
		Sections: map[string]bool{
			KindIf: true, KindEach: true, KindGet: true, KindPromise: true,
		},
	}
}

func TestNormalize(t *testing.T) {
	in := "a  b\tc\nd\r\ne   f"
	want := "a bcde f"
	if got := Normalize(in); got != want {
		t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
	}
}

func TestParseTextAndName(t *testing.T) {
	tree, errs := Parse("t", "Hello, {{name}}!", DefaultDelims, defaultKinds())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(tree) != 3 {
		t.Fatalf("got %d tokens, want 3: %+v", len(tree), tree)
	}
	if tree[0].Kind != KindText || tree[0].Payload != "Hello, " {
		t.Errorf("tree[0] = %+v", tree[0])
	}
	if tree[1].Kind != KindName || tree[1].Payload != "name" {
		t.Errorf("tree[1] = %+v", tree[1])
	}
	if tree[2].Kind != KindText || tree[2].Payload != "!" {
		t.Errorf("tree[2] = %+v", tree[2])
	}
}

func TestSquashIdempotent(t *testing.T) {
	flat := []*Token{
		{Kind: KindText, Payload: "a", End: 1},
		{Kind: KindText, Payload: "b", End: 1},
		{Kind: KindName, Payload: "x"},
		{Kind: KindText, Payload: "c", End: 1},
	}
	once := squashTokens(flat)
	twice := squashTokens(once)
	if len(once) != len(twice) {
		t.Fatalf("squash not idempotent: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if cmp.Diff(once[i], twice[i]) != "" {
			t.Errorf("squash not idempotent at %d: %+v vs %+v", i, once[i], twice[i])
		}
	}
	if once[0].Payload != "ab" {
		t.Errorf("squash merge = %q, want ab", once[0].Payload)
	}
}

func TestNestBalanced(t *testing.T) {
	src := "{{if x}}A{{each xs}}B{{/each}}C{{/if}}"
	tree, errs := Parse("t", src, DefaultDelims, defaultKinds())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(tree) != 1 || tree[0].Kind != KindIf {
		t.Fatalf("tree = %+v", tree)
	}
	ifTok := tree[0]
	if len(ifTok.Children) != 3 {
		t.Fatalf("if children = %+v", ifTok.Children)
	}
	each := ifTok.Children[1]
	if each.Kind != KindEach || len(each.Children) != 1 {
		t.Fatalf("each = %+v", each)
	}
	if ifTok.CloseEnd != len(Normalize(src)) {
		t.Errorf("if.CloseEnd = %d, want %d", ifTok.CloseEnd, len(Normalize(src)))
	}
}

func TestUnclosedSectionReportsError(t *testing.T) {
	_, errs := Parse("t", "{{if x}}oops", DefaultDelims, defaultKinds())
	if len(errs) == 0 {
		t.Fatal("expected an error for unclosed section")
	}
}

func TestMismatchedCloseReportsError(t *testing.T) {
	_, errs := Parse("t", "{{if x}}a{{/each}}{{/if}}", DefaultDelims, defaultKinds())
	if len(errs) == 0 {
		t.Fatal("expected an error for mismatched close")
	}
}

func TestOrphanElseReportsError(t *testing.T) {
	_, errs := Parse("t", "{{each xs}}{{else}}{{/each}}", DefaultDelims, defaultKinds())
	if len(errs) == 0 {
		t.Fatal("expected an error for orphan else")
	}
}

func TestVoidAndValueCalls(t *testing.T) {
	tree, errs := Parse("t", "{{>log(x)}}{{>>String(n)}}", DefaultDelims, defaultKinds())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(tree) != 2 || tree[0].Kind != KindVoid || tree[1].Kind != KindValue {
		t.Fatalf("tree = %+v", tree)
	}
	if tree[0].Payload != "log(x)" || tree[1].Payload != "String(n)" {
		t.Errorf("payloads = %q, %q", tree[0].Payload, tree[1].Payload)
	}
}

func TestRegisteredSectionKind(t *testing.T) {
	kinds := defaultKinds()
	kinds.Tags = append(kinds.Tags, "widget")
	kinds.Sections["widget"] = true
	tree, errs := Parse("t", "{{widget x}}body{{/widget}}", DefaultDelims, kinds)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(tree) != 1 || tree[0].Kind != "widget" || len(tree[0].Children) != 1 {
		t.Fatalf("tree = %+v", tree)
	}
}

func TestNestTreeShape(t *testing.T) {
	tree, errs := Parse("t", "{{if x}}A{{each xs}}B{{/each}}{{/if}}", DefaultDelims, defaultKinds())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []*Token{
		{Kind: KindIf, Payload: "x", Children: []*Token{
			{Kind: KindText, Payload: "A"},
			{Kind: KindEach, Payload: "xs", Children: []*Token{
				{Kind: KindText, Payload: "B"},
			}},
		}},
	}
	diffOpts := cmpopts.IgnoreFields(Token{}, "Start", "End", "CloseEnd")
	if diff := cmp.Diff(want, tree, diffOpts); diff != "" {
		t.Errorf("tree shape mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomDelimiters(t *testing.T) {
	tree, errs := Parse("t", "[[name]]", Delims{Open: "[[", Close: "]]"}, defaultKinds())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(tree) != 1 || tree[0].Kind != KindName || tree[0].Payload != "name" {
		t.Fatalf("tree = %+v", tree)
	}
}
