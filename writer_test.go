package dirtag

import (
	"testing"

	"github.com/robfig/dirtag/frame"
)

func TestParseReportsStructuralError(t *testing.T) {
	w := NewWriter()
	err := w.Parse("broken", "{{if x}}oops")
	if err == nil {
		t.Fatal("expected a structural parse error")
	}
	// Per spec §7, parsing continues best-effort and the template is
	// still cached despite the error.
	if !w.Exists("broken") {
		t.Error("Exists(broken) = false, want true (best-effort cache)")
	}
}

func TestClearCache(t *testing.T) {
	w := NewWriter()
	if err := w.Parse("a", "x"); err != nil {
		t.Fatal(err)
	}
	w.ClearCache()
	if w.Exists("a") {
		t.Error("Exists(a) = true after ClearCache")
	}
	if len(w.ListTemplates()) != 0 {
		t.Error("ListTemplates() non-empty after ClearCache")
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	w := NewWriter()
	_, err := w.Render("nope", map[string]interface{}{})
	if err == nil {
		t.Fatal("expected an error rendering a missing template")
	}
}

func TestCustomTagDelimiters(t *testing.T) {
	w := NewWriter()
	if err := w.SetTags("[[", "]]"); err != nil {
		t.Fatal(err)
	}
	if err := w.Parse("t", "Hi [[name]]"); err != nil {
		t.Fatal(err)
	}
	out, err := w.Render("t", map[string]interface{}{"name": "Ada"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "Hi Ada" {
		t.Errorf("Render = %q, want \"Hi Ada\"", out)
	}
}

func TestSetTagsRejectsEmpty(t *testing.T) {
	w := NewWriter()
	if err := w.SetTags("", "}}"); err == nil {
		t.Error("expected an error for an empty open delimiter")
	}
}

func TestNormalizationObservable(t *testing.T) {
	w := NewWriter()
	if err := w.Parse("t", "a  b\t{{name}}\nc"); err != nil {
		t.Fatal(err)
	}
	out, err := w.Render("t", map[string]interface{}{"name": "X"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "a bXc" {
		t.Errorf("Render = %q, want \"a bXc\"", out)
	}
}

func TestRenderReusesExistingFrame(t *testing.T) {
	w := NewWriter()
	if err := w.Parse("t", "{{x}}"); err != nil {
		t.Fatal(err)
	}
	fr := frame.NewRoot(map[string]interface{}{"x": "reused"}, w.Host)
	out, err := w.Render("t", fr)
	if err != nil {
		t.Fatal(err)
	}
	if out != "reused" {
		t.Errorf("Render with existing frame = %q, want \"reused\"", out)
	}
}
