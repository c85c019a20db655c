package indexer

import (
	"path/filepath"
	"testing"
)

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, true)

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("fresh store should be empty: ok=%v err=%v", ok, err)
	}

	if err := store.Save(123456); err != nil {
		t.Fatalf("save: %v", err)
	}

	cp, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok || cp.LastIngestedBlock != 123456 {
		t.Fatalf("checkpoint mismatch: ok=%v %+v", ok, cp)
	}
	if cp.UpdatedAt == "" {
		t.Fatalf("expected updated timestamp")
	}

	if err := store.Save(123500); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	cp, _, _ = store.Load()
	if cp.LastIngestedBlock != 123500 {
		t.Fatalf("overwrite mismatch: %+v", cp)
	}
}

func TestCheckpointDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, false)

	if err := store.Save(99); err != nil {
		t.Fatalf("disabled save: %v", err)
	}
	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("disabled store must stay empty: ok=%v err=%v", ok, err)
	}
}
