package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if _, err := st.Load(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty store Load: expected ErrNotFound, got %v", err)
	}

	if err := st.Save(ctx, 1, []byte("blob-a")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := st.Load(ctx, 1)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, []byte("blob-a")) {
		t.Errorf("Load = %q, want %q", got, "blob-a")
	}

	// One slot per user: unrelated users never collide.
	if _, err := st.Load(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("user 2 should have no blob, got %v", err)
	}

	if err := st.Clear(ctx, 1); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := st.Load(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("cleared slot Load: expected ErrNotFound, got %v", err)
	}

	// Clearing an already-empty slot is a no-op.
	if err := st.Clear(ctx, 1); err != nil {
		t.Errorf("Clear of empty slot: %v", err)
	}
}

func TestMemoryStoreCopiesBlobs(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	src := []byte("original")
	if err := st.Save(ctx, 1, src); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	src[0] = 'X'

	got, err := st.Load(ctx, 1)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, []byte("original")) {
		t.Error("caller mutation leaked into the store")
	}

	got[0] = 'Y'
	again, _ := st.Load(ctx, 1)
	if !bytes.Equal(again, []byte("original")) {
		t.Error("mutation of a loaded blob leaked into the store")
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_ = st.Save(ctx, 1, []byte("first"))
	_ = st.Save(ctx, 1, []byte("second"))

	got, err := st.Load(ctx, 1)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, []byte("second")) {
		t.Errorf("Load = %q, want latest write", got)
	}
}
