package s3

import (
	"context"
	"errors"
	"io"
	"sort"
	"testing"

	"github.com/locusdb/locus/locus"
)

func newTestStore(t *testing.T, cfg Config) (*Store, *MockS3Client) {
	t.Helper()
	client := NewMockS3Client()
	store, err := New(client, cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return store, client
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, Config{Bucket: "b"}); err == nil {
		t.Error("nil client: want error")
	}
	if _, err := New(NewMockS3Client(), Config{}); err == nil {
		t.Error("empty bucket: want error")
	}
}

func TestStore_Get_RoundTrip(t *testing.T) {
	store, client := newTestStore(t, Config{Bucket: "locus-data"})
	client.Seed("variants/1.jsonl.zst", []byte("segment"))

	body, err := store.Get(context.Background(), "variants/1.jsonl.zst")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer func() { _ = body.Close() }()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(data) != "segment" {
		t.Errorf("Get = %q, want %q", data, "segment")
	}
	if client.GetObjectCalls != 1 {
		t.Errorf("GetObjectCalls = %d, want 1", client.GetObjectCalls)
	}
}

func TestStore_Get_Missing_ErrNotFound(t *testing.T) {
	store, _ := newTestStore(t, Config{Bucket: "locus-data"})
	_, err := store.Get(context.Background(), "no/such/key")
	if !errors.Is(err, locus.ErrNotFound) {
		t.Errorf("Get error = %v, want locus.ErrNotFound", err)
	}
}

func TestStore_Get_InvalidKey(t *testing.T) {
	store, _ := newTestStore(t, Config{Bucket: "locus-data"})
	for _, key := range []string{"", ".", "..", "../escape", "/"} {
		if _, err := store.Get(context.Background(), key); !errors.Is(err, locus.ErrInvalidPath) {
			t.Errorf("Get(%q) error = %v, want locus.ErrInvalidPath", key, err)
		}
	}
}

func TestStore_PrefixedKeys(t *testing.T) {
	// A configured prefix is applied on the way in and stripped on the way
	// out, so callers only ever see repository-relative keys.
	store, client := newTestStore(t, Config{Bucket: "locus-data", Prefix: "repos/main"})
	client.Seed("repos/main/variants/1.jsonl.zst", []byte("segment"))

	if ok, err := store.Exists(context.Background(), "variants/1.jsonl.zst"); err != nil || !ok {
		t.Errorf("Exists = %v, %v; want true", ok, err)
	}

	keys, err := store.List(context.Background(), "variants")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(keys) != 1 || keys[0] != "variants/1.jsonl.zst" {
		t.Errorf("List = %v, want [variants/1.jsonl.zst]", keys)
	}
}

func TestStore_Exists(t *testing.T) {
	store, client := newTestStore(t, Config{Bucket: "locus-data"})
	client.Seed("present", []byte("x"))

	if ok, err := store.Exists(context.Background(), "present"); err != nil || !ok {
		t.Errorf("Exists(present) = %v, %v; want true", ok, err)
	}
	if ok, err := store.Exists(context.Background(), "absent"); err != nil || ok {
		t.Errorf("Exists(absent) = %v, %v; want false", ok, err)
	}
	if client.HeadObjectCalls != 2 {
		t.Errorf("HeadObjectCalls = %d, want 2", client.HeadObjectCalls)
	}
}

func TestStore_List_ByPrefix(t *testing.T) {
	store, client := newTestStore(t, Config{Bucket: "locus-data"})
	client.Seed("variants/1.jsonl.zst", []byte("x"))
	client.Seed("variants/2.jsonl.zst", []byte("x"))
	client.Seed("reads/1.parquet", []byte("x"))

	keys, err := store.List(context.Background(), "variants/")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	sort.Strings(keys)
	want := []string{"variants/1.jsonl.zst", "variants/2.jsonl.zst"}
	if len(keys) != len(want) || keys[0] != want[0] || keys[1] != want[1] {
		t.Errorf("List = %v, want %v", keys, want)
	}
}

func TestStore_List_InvalidPrefix(t *testing.T) {
	store, _ := newTestStore(t, Config{Bucket: "locus-data"})
	for _, prefix := range []string{"..", "../escape"} {
		if _, err := store.List(context.Background(), prefix); !errors.Is(err, locus.ErrInvalidPath) {
			t.Errorf("List(%q) error = %v, want locus.ErrInvalidPath", prefix, err)
		}
	}
}
