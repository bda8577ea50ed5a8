package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zoocore/internal/blob/blobtest"
	"zoocore/internal/blob/core"
)

func TestStoreContract(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	blobtest.RunContract(t, store)
}

func TestStoreRejectsUnsafeKeys(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "/etc/passwd", "../escape", "a/../../b", "x.meta"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("expected put %q to fail", key)
		}
		if _, err := store.Head(ctx, key); err == nil {
			t.Fatalf("expected head %q to fail", key)
		}
		if _, err := store.Delete(ctx, key); err == nil {
			t.Fatalf("expected delete %q to fail", key)
		}
	}
}

func TestStoreWritesSidecarAndURL(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Driver() != core.DriverFilesystem || store.Root() != root {
		t.Fatalf("unexpected driver/root %s %s", store.Driver(), store.Root())
	}
	ctx := context.Background()
	info, err := store.Put(ctx, "rosters/r.json", strings.NewReader("{}"), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "rosters", "r.json.meta")); err != nil {
		t.Fatalf("expected sidecar: %v", err)
	}
	if !strings.HasPrefix(info.URL, "file://") || len(info.ETag) != 64 {
		t.Fatalf("unexpected info %+v", info)
	}
	url, err := store.PresignURL(ctx, "rosters/r.json", core.SignedURLOptions{})
	if err != nil || url != info.URL {
		t.Fatalf("presign mismatch %q vs %q (%v)", url, info.URL, err)
	}
	if _, err := store.PresignURL(ctx, "rosters/r.json", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported for PUT, got %v", err)
	}
}

func TestStoreCorruptSidecar(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", strings.NewReader("v"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "k.meta"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, err := store.Head(ctx, "k"); err == nil || errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if _, err := store.List(ctx, ""); err == nil {
		t.Fatalf("expected list to surface decode error")
	}
}

func TestNewDefaultsRoot(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	store, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Root() != defaultRoot {
		t.Fatalf("expected default root, got %s", store.Root())
	}
	if _, err := os.Stat(filepath.Join(dir, "blobdata")); err != nil {
		t.Fatalf("expected default root created: %v", err)
	}
}
