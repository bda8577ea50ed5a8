// Package blobtest holds the behavioral contract every blob backend must pass.
package blobtest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"zoocore/internal/blob/core"
)

// RunContract exercises put/get/head/list/delete semantics against store.
// The store must start empty.
func RunContract(t *testing.T, store core.Store) {
	t.Helper()
	ctx := context.Background()

	if _, _, err := store.Get(ctx, "rosters/missing.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Get, got %v", err)
	}
	if _, err := store.Head(ctx, "rosters/missing.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Head, got %v", err)
	}

	payload := []byte(`{"zones":[]}`)
	info, err := store.Put(ctx, "rosters/a.json", bytes.NewReader(payload), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"zones": "0"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "rosters/a.json" || info.Size != int64(len(payload)) {
		t.Fatalf("unexpected put info %+v", info)
	}
	if _, err := store.Put(ctx, "rosters/a.json", strings.NewReader("again"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists on duplicate put, got %v", err)
	}

	got, rc, err := store.Get(ctx, "rosters/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || !bytes.Equal(body, payload) {
		t.Fatalf("unexpected body %q (%v)", body, err)
	}
	if got.ContentType != "application/json" || got.Metadata["zones"] != "0" {
		t.Fatalf("unexpected get info %+v", got)
	}
	head, err := store.Head(ctx, "rosters/a.json")
	if err != nil || head.Size != int64(len(payload)) {
		t.Fatalf("unexpected head %+v (%v)", head, err)
	}

	if _, err := store.Put(ctx, "rosters/b.json", strings.NewReader("{}"), core.PutOptions{}); err != nil {
		t.Fatalf("put b: %v", err)
	}
	if _, err := store.Put(ctx, "other/c.txt", strings.NewReader("c"), core.PutOptions{}); err != nil {
		t.Fatalf("put c: %v", err)
	}
	listed, err := store.List(ctx, "rosters/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 || listed[0].Key != "rosters/a.json" || listed[1].Key != "rosters/b.json" {
		t.Fatalf("unexpected listing %+v", listed)
	}
	all, err := store.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 blobs, got %d (%v)", len(all), err)
	}

	deleted, err := store.Delete(ctx, "rosters/a.json")
	if err != nil || !deleted {
		t.Fatalf("expected delete to report existing blob, got %v (%v)", deleted, err)
	}
	deleted, err = store.Delete(ctx, "rosters/a.json")
	if err != nil || deleted {
		t.Fatalf("expected second delete to report missing blob, got %v (%v)", deleted, err)
	}
	if _, err := store.Head(ctx, "rosters/a.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected deleted blob to be gone, got %v", err)
	}
}
