package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/korjavin/foodatease/internal/catalog"
	"github.com/korjavin/foodatease/internal/rating"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "products.json")
	output := filepath.Join(dir, "scored.json")
	body := `{"products": [{"id": "a", "name": "Masala Oats", "nutrients": {"energy_kcal": 380, "sugar_g": 4, "protein_g": 12, "fiber_g": 10}}]}`
	if err := os.WriteFile(input, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	if code := run(context.Background(), rating.DefaultEngine(), input, output, 1); code != 0 {
		t.Fatalf("exit code = %d; want 0", code)
	}

	doc, err := catalog.Read(output)
	if err != nil {
		t.Fatalf("Read output: %v", err)
	}
	if s := doc.Products[0].Score(); s == nil || s.Stars < 1 {
		t.Errorf("output not scored: %+v", s)
	}

	orig, err := os.ReadFile(input)
	if err != nil {
		t.Fatal(err)
	}
	if string(orig) != body {
		t.Error("input modified when an output path was given")
	}
}

func TestRun_Failures(t *testing.T) {
	input := filepath.Join(t.TempDir(), "products.json")
	body := `{"products": [{"id": "bad", "package_size_g": -1}, {"id": "ok"}]}`
	if err := os.WriteFile(input, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	if code := run(context.Background(), rating.DefaultEngine(), input, input, 0); code != 1 {
		t.Errorf("exit code = %d; want 1", code)
	}
	doc, err := catalog.Read(input)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Products[0].Score() != nil || doc.Products[1].Score() == nil {
		t.Error("expected only the valid product to be scored in place")
	}
}

func TestRun_MissingInput(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")
	if code := run(context.Background(), rating.DefaultEngine(), missing, missing, 0); code != 1 {
		t.Errorf("exit code = %d; want 1", code)
	}
}
