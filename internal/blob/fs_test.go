package blob_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"callcheck/internal/blob"
	"callcheck/internal/services"
	"callcheck/internal/testsupport"
)

func TestPutGetRoundTrip(t *testing.T) {
	store, err := blob.NewFSStore(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	ctx := testsupport.Context(t)
	key := "transcripts/abc123/transcript.json"
	if err := store.PutObject(ctx, key, strings.NewReader(`{"ok":true}`)); err != nil {
		t.Fatalf("PutObject failed: %v", err)
	}

	reader, err := store.GetObject(ctx, key)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", body)
	}

	exists, err := store.Exists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v", exists, err)
	}
}

func TestGetMissingObjectReturnsNotFound(t *testing.T) {
	store, err := blob.NewFSStore(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	_, err = store.GetObject(testsupport.Context(t), "results/missing/results.json")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	store, err := blob.NewFSStore(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	ctx := testsupport.Context(t)
	keys := []string{
		"../outside",
		"a/../../etc/passwd",
		"a/..",
		"..",
		"/etc/passwd",
		"./a",
		"a/./b",
		"a//b",
		"a/b/",
		"/",
		"",
	}
	for _, key := range keys {
		if err := store.PutObject(ctx, key, strings.NewReader("x")); err == nil {
			t.Fatalf("PutObject accepted key %q", key)
		}
		if _, err := store.GetObject(ctx, key); err == nil {
			t.Fatalf("GetObject accepted key %q", key)
		}
		if _, err := store.Exists(ctx, key); err == nil {
			t.Fatalf("Exists accepted key %q", key)
		}
	}

	// Dot segments must not remap into the tree either: a key that cleans to
	// an existing object is still rejected.
	if err := store.PutObject(ctx, "a/b", strings.NewReader("x")); err != nil {
		t.Fatalf("PutObject failed: %v", err)
	}
	if _, err := store.GetObject(ctx, "a/c/../b"); err == nil {
		t.Fatal(`key "a/c/../b" was accepted`)
	}
}

func TestCopyFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fake audio bytes"))
	}))
	defer server.Close()

	store, err := blob.NewFSStore(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	ctx := testsupport.Context(t)
	key := "audio/abc123/audio_file.wav"
	if err := store.CopyFromURL(ctx, server.URL, key); err != nil {
		t.Fatalf("CopyFromURL failed: %v", err)
	}

	reader, err := store.GetObject(ctx, key)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	defer reader.Close()
	body, _ := io.ReadAll(reader)
	if string(body) != "fake audio bytes" {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestCopyFromURLReportsTransferFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	store, err := blob.NewFSStore(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	err = store.CopyFromURL(context.Background(), server.URL, "audio/abc/audio_file.wav")
	if !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}
}
