package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "out.yaml")

	if err := WriteFileAtomic(target, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(target, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteFileAtomicMode(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.json")

	if err := WriteFileAtomic(target, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %o, want 600", info.Mode().Perm())
	}
}

func TestTryLockExclusive(t *testing.T) {
	target := filepath.Join(t.TempDir(), "history.db")

	release, err := TryLock(target)
	if err != nil {
		t.Fatal(err)
	}
	if release == nil {
		t.Fatal("expected first lock to succeed")
	}

	again, err := TryLock(target)
	if err != nil {
		t.Fatal(err)
	}
	if again != nil {
		again()
		t.Fatal("expected second lock to fail while first is held")
	}

	release()
	third, err := TryLock(target)
	if err != nil {
		t.Fatal(err)
	}
	if third == nil {
		t.Fatal("expected lock after release")
	}
	third()
}
