package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "customers.txt"), "x")
	writeFile(t, filepath.Join(root, "branch-b", "more.TXT"), "x")
	writeFile(t, filepath.Join(root, "branch-a", "customers.txt"), "x")
	writeFile(t, filepath.Join(root, "notes.md"), "x")
	writeFile(t, filepath.Join(root, ".cache", "stale.txt"), "x")

	files, err := Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []string{"branch-a/customers.txt", "branch-b/more.TXT", "customers.txt"}
	if len(files) != len(want) {
		t.Fatalf("Scan() found %d files, want %d: %+v", len(files), len(want), files)
	}
	for i, f := range files {
		if f.RelPath != want[i] {
			t.Errorf("files[%d].RelPath = %q, want %q", i, f.RelPath, want[i])
		}
		if !filepath.IsAbs(f.AbsPath) {
			t.Errorf("files[%d].AbsPath = %q, want absolute", i, f.AbsPath)
		}
	}
}

func TestScan_SingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank_data.txt")
	writeFile(t, path, "x")

	files, err := Scan(context.Background(), path)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "bank_data.txt" {
		t.Errorf("Scan() = %+v", files)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	if _, err := Scan(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Scan() on missing root should return error")
	}
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Scan(ctx, root); err == nil {
		t.Error("Scan() with cancelled context should return error")
	}
}
