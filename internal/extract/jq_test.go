package extract

import (
	"testing"
	"time"
)

var at = time.UnixMilli(1700000000000)

// mustCompile compiles a jq extractor, failing the test on error.
func mustCompileJQ(t *testing.T, query string) *Extractor {
	t.Helper()
	ex, err := Compile(KindJQ, query)
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", query, err)
	}
	return ex
}

func TestJQ_ObjectResult(t *testing.T) {
	ex := mustCompileJQ(t, ".")
	ms, err := ex.Extract("r", `{"a": 1, "b": "x"}`, at)
	if err != nil {
		t.Fatalf("Extract error = %v", err)
	}
	if len(ms) != 1 {
		t.Fatalf("metrics: got %d, want 1 (non-numeric b dropped)", len(ms))
	}
	m := ms[0]
	if m.Name != "r" || m.Value != 1 {
		t.Errorf("got %s=%v, want r=1", m.Name, m.Value)
	}
	if m.Labels["key"] != "a" {
		t.Errorf("label key: got %q, want a", m.Labels["key"])
	}
}

func TestJQ_ObjectResult_SortedKeys(t *testing.T) {
	ex := mustCompileJQ(t, ".")
	ms, err := ex.Extract("r", `{"c": 3, "a": 1, "b": 2}`, at)
	if err != nil {
		t.Fatalf("Extract error = %v", err)
	}
	if len(ms) != 3 {
		t.Fatalf("metrics: got %d, want 3", len(ms))
	}
	for i, want := range []string{"a", "b", "c"} {
		if ms[i].Labels["key"] != want {
			t.Errorf("ms[%d] key: got %q, want %q", i, ms[i].Labels["key"], want)
		}
	}
}

func TestJQ_ArrayResult(t *testing.T) {
	ex := mustCompileJQ(t, ".")
	ms, err := ex.Extract("r", `[{"value": 2, "host": "h1"}, {"value": 3, "host": "h2"}]`, at)
	if err != nil {
		t.Fatalf("Extract error = %v", err)
	}
	if len(ms) != 2 {
		t.Fatalf("metrics: got %d, want 2", len(ms))
	}
	if ms[0].Value != 2 || ms[0].Labels["host"] != "h1" {
		t.Errorf("ms[0]: got %v %v", ms[0].Value, ms[0].Labels)
	}
	if ms[1].Value != 3 || ms[1].Labels["host"] != "h2" {
		t.Errorf("ms[1]: got %v %v", ms[1].Value, ms[1].Labels)
	}
}

func TestJQ_ArrayResult_ScalarFieldsBecomeLabels(t *testing.T) {
	ex := mustCompileJQ(t, ".")
	body := `[{"value": 1.5, "host": "h1", "up": true, "port": 8080, "meta": {"x": 1}}]`
	ms, err := ex.Extract("r", body, at)
	if err != nil {
		t.Fatalf("Extract error = %v", err)
	}
	if len(ms) != 1 {
		t.Fatalf("metrics: got %d, want 1", len(ms))
	}
	labels := ms[0].Labels
	if labels["host"] != "h1" || labels["up"] != "true" || labels["port"] != "8080" {
		t.Errorf("labels: got %v", labels)
	}
	if _, ok := labels["meta"]; ok {
		t.Errorf("composite field leaked into labels: %v", labels)
	}
	if _, ok := labels["value"]; ok {
		t.Errorf("value field leaked into labels: %v", labels)
	}
}

func TestJQ_ArrayResult_SkipsElementsWithoutNumericValue(t *testing.T) {
	ex := mustCompileJQ(t, ".")
	body := `[{"value": "nan", "host": "h1"}, {"host": "h2"}, 7, {"value": 4}]`
	ms, err := ex.Extract("r", body, at)
	if err != nil {
		t.Fatalf("Extract error = %v", err)
	}
	if len(ms) != 1 || ms[0].Value != 4 {
		t.Fatalf("metrics: got %v, want single value 4", ms)
	}
}

func TestJQ_ScalarResult(t *testing.T) {
	ex := mustCompileJQ(t, ".count")
	ms, err := ex.Extract("r", `{"count": 41.5}`, at)
	if err != nil {
		t.Fatalf("Extract error = %v", err)
	}
	if len(ms) != 1 || ms[0].Value != 41.5 || len(ms[0].Labels) != 0 {
		t.Fatalf("metrics: got %v, want one unlabeled 41.5", ms)
	}
}

func TestJQ_LengthQuery(t *testing.T) {
	// gojq yields Go ints for length; the numeric dispatch must cover them.
	ex := mustCompileJQ(t, "length")
	ms, err := ex.Extract("r", `[1, 2, 3]`, at)
	if err != nil {
		t.Fatalf("Extract error = %v", err)
	}
	if len(ms) != 1 || ms[0].Value != 3 {
		t.Fatalf("metrics: got %v, want one value 3", ms)
	}
}

func TestJQ_UncoveredShapesYieldNothing(t *testing.T) {
	tests := []struct {
		name  string
		query string
		body  string
	}{
		{"string", ".name", `{"name": "x"}`},
		{"bool", ".ok", `{"ok": true}`},
		{"null", ".missing", `{"present": 1}`},
		{"array of scalars", ".", `[1, "a"]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ex := mustCompileJQ(t, tc.query)
			ms, err := ex.Extract("r", tc.body, at)
			if err != nil {
				t.Fatalf("Extract error = %v, want silent empty result", err)
			}
			if len(ms) != 0 {
				t.Errorf("metrics: got %v, want none", ms)
			}
		})
	}
}

func TestJQ_InvalidJSONBody(t *testing.T) {
	ex := mustCompileJQ(t, ".")
	if _, err := ex.Extract("r", "<html>not json</html>", at); err == nil {
		t.Fatal("expected error for non-JSON body, got nil")
	}
}

func TestJQ_RuntimeError(t *testing.T) {
	ex := mustCompileJQ(t, ".foo")
	if _, err := ex.Extract("r", `5`, at); err == nil {
		t.Fatal("expected error for indexing a number, got nil")
	}
}

func TestJQ_CompileError(t *testing.T) {
	if _, err := Compile(KindJQ, ".foo | ][["); err == nil {
		t.Fatal("expected compile error for malformed query, got nil")
	}
}
