package testutil

import (
	"os"
	"testing"
)

func TestAssertGoldenWritesThenMatches(t *testing.T) {
	dir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(orig)

	UpdateGoldens = true
	AssertGolden(t, "demo", "case1", "hello\n")
	UpdateGoldens = false
	defer func() { UpdateGoldens = false }()

	AssertGolden(t, "demo", "case1", "hello\n")
}

func TestGoldenPathIsStageAndNameScoped(t *testing.T) {
	got := GoldenPath("prog", "e1_arithmetic")
	want := "testdata/prog/e1_arithmetic.golden"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
