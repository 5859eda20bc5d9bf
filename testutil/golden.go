// Package testutil provides golden-file comparison helpers for pipeline
// stage dumps, adapted from the teacher's testutil/golden.go. Where the
// teacher's golden files hold JSON-marshaled interpreter results, this
// module's intermediate representations are trees of interfaces
// (lower.Statement, stir.Body, …) that don't round-trip through
// encoding/json without a type registry, so the golden payload here is
// each stage's String() dump compared with go-cmp instead of a JSON diff.
package testutil

import (
	"os"
	"path/filepath"

	"github.com/google/go-cmp/cmp"
)

// UpdateGoldens controls whether AssertGolden overwrites golden files
// instead of comparing against them. Set via UPDATE_GOLDENS=true go test ./...
var UpdateGoldens = os.Getenv("UPDATE_GOLDENS") == "true"

// testingT is the subset of *testing.T this package needs, so callers
// don't have to import "testing" just to satisfy a type assertion.
type testingT interface {
	Helper()
	Fatalf(format string, args ...interface{})
	Logf(format string, args ...interface{})
}

// GoldenPath returns the path to a golden file for a named pipeline stage
// fixture, e.g. GoldenPath("prog", "e1_arithmetic").
func GoldenPath(stage, name string) string {
	return filepath.Join("testdata", stage, name+".golden")
}

// AssertGolden compares actual against the golden file for stage/name. In
// UpdateGoldens mode it writes actual as the new golden content instead.
func AssertGolden(t testingT, stage, name, actual string) {
	t.Helper()
	path := GoldenPath(stage, name)

	if UpdateGoldens {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			t.Fatalf("write golden file: %v", err)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("golden file %s does not exist; run with UPDATE_GOLDENS=true to create it", path)
		}
		t.Fatalf("read golden file: %v", err)
	}

	if diff := cmp.Diff(string(want), actual); diff != "" {
		t.Fatalf("%s/%s mismatch (-want +got):\n%s", stage, name, diff)
	}
}
