package template

import "testing"

func TestInterpolate_ConstantStringIsIdempotent(t *testing.T) {
	out, err := Interpolate("hello, world", map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello, world" {
		t.Fatalf("expected unchanged string, got %q", out)
	}
}

func TestInterpolate_SimpleAndDottedPath(t *testing.T) {
	vars := map[string]any{
		"greeting": "hello",
		"user":     map[string]any{"name": "ada"},
	}
	out, err := Interpolate("{{greeting}}, {{user.name}}", vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello, ada" {
		t.Fatalf("got %q", out)
	}
}

func TestInterpolate_UnresolvedReferenceFails(t *testing.T) {
	vars := map[string]any{"a": map[string]any{}}
	if _, err := Interpolate("{{a.b.c}}", vars); err == nil {
		t.Fatal("expected error for unresolved nested path")
	}
}

func TestInterpolate_NumbersBooleansArrays(t *testing.T) {
	vars := map[string]any{
		"n":   float64(42),
		"b":   true,
		"arr": []any{"x", "y"},
	}
	out, err := Interpolate("{{n}}-{{b}}-{{arr}}", vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `42-true-["x","y"]` {
		t.Fatalf("got %q", out)
	}
}

func TestInterpolateValue_WalksNestedStructures(t *testing.T) {
	vars := map[string]any{"x": "v"}
	in := map[string]any{
		"a": "{{x}}",
		"b": []any{"{{x}}", "literal"},
	}
	out, err := InterpolateValue(in, vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := out.(map[string]any)
	if m["a"] != "v" {
		t.Fatalf("got %v", m["a"])
	}
	arr := m["b"].([]any)
	if arr[0] != "v" || arr[1] != "literal" {
		t.Fatalf("got %v", arr)
	}
}

func TestEvaluate_BareTruthy(t *testing.T) {
	ok, err := Evaluate("true", nil)
	if err != nil || !ok {
		t.Fatalf("expected true, got %v err=%v", ok, err)
	}
	ok, err = Evaluate(`"nonempty"`, nil)
	if err != nil || !ok {
		t.Fatalf("expected true for nonempty string literal, got %v err=%v", ok, err)
	}
}

func TestEvaluate_StrictEquality(t *testing.T) {
	vars := map[string]any{"branch": "main"}
	ok, err := Evaluate(`{{branch}} == "main"`, vars)
	if err != nil || !ok {
		t.Fatalf("expected true, got %v err=%v", ok, err)
	}
	ok, err = Evaluate(`{{branch}} === "main"`, vars)
	if err != nil || !ok {
		t.Fatalf("expected true for ===, got %v err=%v", ok, err)
	}
}

func TestEvaluate_ConditionalSkipFalse(t *testing.T) {
	vars := map[string]any{"ok": false}
	ok, err := Evaluate("{{ok}} == true", vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected false")
	}
}

func TestEvaluate_AndOrPrecedence(t *testing.T) {
	vars := map[string]any{"a": float64(1), "b": float64(2)}
	ok, err := Evaluate("{{a}} == 1 && {{b}} == 2", vars)
	if err != nil || !ok {
		t.Fatalf("expected true, got %v err=%v", ok, err)
	}
	ok, err = Evaluate("{{a}} == 9 || {{b}} == 2", vars)
	if err != nil || !ok {
		t.Fatalf("expected true via ||, got %v err=%v", ok, err)
	}
}

func TestEvaluate_NumericComparisons(t *testing.T) {
	vars := map[string]any{"n": float64(5)}
	cases := []struct {
		cond string
		want bool
	}{
		{"{{n}} < 10", true},
		{"{{n}} <= 5", true},
		{"{{n}} > 10", false},
		{"{{n}} >= 5", true},
		{"{{n}} != 6", true},
	}
	for _, c := range cases {
		got, err := Evaluate(c.cond, vars)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.cond, err)
		}
		if got != c.want {
			t.Fatalf("%s: got %v want %v", c.cond, got, c.want)
		}
	}
}

func TestEvaluate_FalseLiteral(t *testing.T) {
	ok, err := Evaluate(`"false"`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("a non-empty string literal, even the text 'false', is truthy")
	}
}
