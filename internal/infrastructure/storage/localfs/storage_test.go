package localfs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestPutOpenRoundTripWithNestedKey(t *testing.T) {
	store, err := New(t.TempDir(), "https://files.test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := "docs/biz-1/1700000000_abc123.pdf"
	if err := store.Put(context.Background(), key, bytes.NewBufferString("payload")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	rc, err := store.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	raw, _ := io.ReadAll(rc)
	if string(raw) != "payload" {
		t.Fatalf("unexpected content %q", raw)
	}

	if got := store.PublicURL(key); got != "https://files.test/"+key {
		t.Fatalf("unexpected public url %q", got)
	}
}

func TestPutRejectsKeyEscapingBase(t *testing.T) {
	base := t.TempDir()
	store, err := New(base, "https://files.test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, key := range []string{
		"docs/../../pwn/evil.pdf",
		"../outside.pdf",
		"..",
		"",
	} {
		if err := store.Put(context.Background(), key, bytes.NewBufferString("x")); err == nil {
			t.Fatalf("Put(%q) accepted a key outside the base", key)
		}
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(base), "outside.pdf")); !os.IsNotExist(err) {
		t.Fatalf("file written outside storage base, stat err = %v", err)
	}

	if _, err := store.Open(context.Background(), "../outside.pdf"); err == nil {
		t.Fatal("Open() accepted a key outside the base")
	}
	if err := store.Delete(context.Background(), []string{"../outside.pdf"}); err == nil {
		t.Fatal("Delete() accepted a key outside the base")
	}
}

func TestDeleteIgnoresMissingObjects(t *testing.T) {
	store, err := New(t.TempDir(), "https://files.test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := store.Delete(context.Background(), []string{"docs/biz-1/missing.pdf"}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}
