package jsonstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type rec struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestLoadMissingFile(t *testing.T) {
	f := New[rec](filepath.Join(t.TempDir(), "nope.json"))
	items, err := f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "data.json")
	f := New[rec](path)
	if err := f.Save([]rec{{"1", "a"}, {"2", "b"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	items, err := f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 2 || items[1].Name != "b" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestSaveNilWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	f := New[rec](path)
	if err := f.Save(nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "[]" {
		t.Fatalf("expected [], got %q", b)
	}
}

func TestUpdateAbortsOnError(t *testing.T) {
	f := New[rec](filepath.Join(t.TempDir(), "data.json"))
	if err := f.Save([]rec{{"1", "a"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	boom := errors.New("boom")
	err := f.Update(func(items []rec) ([]rec, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	items, _ := f.Load()
	if len(items) != 1 {
		t.Fatalf("file changed after failed update: %+v", items)
	}
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New[rec](path).Load(); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}
