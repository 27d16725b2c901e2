package blob

import (
	"context"
	"testing"
)

func newTestStore(t *testing.T) *FSStore {
	t.Helper()
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	return store
}

func TestFSStorePutAndHead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	body := []byte("audio-bytes")
	metadata := map[string]string{"promoted-from": "staging"}
	if err := store.Put(ctx, "staging-bucket", "audio/track.wav", body, metadata); err != nil {
		t.Fatalf("Put: %v", err)
	}

	obj, err := store.Head(ctx, "staging-bucket", "audio/track.wav")
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if obj == nil {
		t.Fatal("expected object, got nil")
	}
	if obj.Size != int64(len(body)) {
		t.Fatalf("expected size %d, got %d", len(body), obj.Size)
	}
	if obj.Metadata["promoted-from"] != "staging" {
		t.Fatalf("metadata did not round trip: %v", obj.Metadata)
	}
}

func TestFSStoreHeadMissingReturnsNil(t *testing.T) {
	store := newTestStore(t)

	obj, err := store.Head(context.Background(), "staging-bucket", "audio/missing.wav")
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if obj != nil {
		t.Fatalf("expected nil for missing object, got %+v", obj)
	}
}

func TestFSStoreCopyReplacesMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "staging-bucket", "audio/track.wav", []byte("audio"), map[string]string{"stage": "one"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	copied, err := store.Copy(ctx, "staging-bucket", "audio/track.wav", "prod-bucket", "audio/track.wav", map[string]string{
		"promoted-from": "staging-bucket",
	})
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if copied.Size != int64(len("audio")) {
		t.Fatalf("unexpected copied size %d", copied.Size)
	}
	if copied.Metadata["promoted-from"] != "staging-bucket" {
		t.Fatalf("expected replaced metadata, got %v", copied.Metadata)
	}
	if _, ok := copied.Metadata["stage"]; ok {
		t.Fatal("source metadata should not survive a copy with replacement metadata")
	}
}

func TestFSStoreCopyMissingSourceFails(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Copy(context.Background(), "staging-bucket", "audio/missing.wav", "prod-bucket", "audio/missing.wav", nil)
	if err == nil {
		t.Fatal("expected error copying missing object")
	}
}

func TestFSStoreListFiltersPrefixAndSkipsMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	puts := map[string]string{
		"audio/a.wav":  "aaa",
		"audio/b.wav":  "bb",
		"covers/c.png": "c",
	}
	for key, body := range puts {
		if err := store.Put(ctx, "staging-bucket", key, []byte(body), map[string]string{"k": "v"}); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}

	objects, err := store.List(ctx, "staging-bucket", "audio/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("expected 2 objects under audio/, got %d: %+v", len(objects), objects)
	}
	if objects[0].Key != "audio/a.wav" || objects[1].Key != "audio/b.wav" {
		t.Fatalf("unexpected listing order: %+v", objects)
	}
}

func TestFSStoreListMissingBucketReturnsEmpty(t *testing.T) {
	store := newTestStore(t)

	objects, err := store.List(context.Background(), "nope", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 0 {
		t.Fatalf("expected no objects, got %+v", objects)
	}
}

func TestFSStoreDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "staging-bucket", "audio/track.wav", []byte("audio"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Delete(ctx, "staging-bucket", "audio/track.wav"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "staging-bucket", "audio/track.wav"); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}

func TestFSStoreRejectsTraversalKeys(t *testing.T) {
	store := newTestStore(t)

	if err := store.Put(context.Background(), "staging-bucket", "../escape.wav", []byte("x"), nil); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}
