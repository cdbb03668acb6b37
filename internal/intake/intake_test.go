package intake_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"callcheck/internal/intake"
	"callcheck/internal/metastore"
	"callcheck/internal/request"
	"callcheck/internal/services"
	"callcheck/internal/taskqueue"
	"callcheck/internal/testsupport"
)

func newService(t *testing.T) (*intake.Service, *metastore.Store, *taskqueue.Queue) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := metastore.Open(cfg)
	if err != nil {
		t.Fatalf("metastore.Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	queue, err := taskqueue.Open(cfg)
	if err != nil {
		t.Fatalf("taskqueue.Open failed: %v", err)
	}
	t.Cleanup(func() { queue.Close() })
	return intake.NewService(nil, store, queue), store, queue
}

func TestCreatePersistsPendingRecordAndEnqueues(t *testing.T) {
	service, store, queue := newService(t)
	ctx := testsupport.Context(t)

	rec, err := service.Create(ctx, "https://example.com/calls/one.wav", []string{"hello world", "goodbye"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !request.ValidID(rec.ID) {
		t.Fatalf("invalid id: %q", rec.ID)
	}

	stored, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != request.StatusPending {
		t.Fatalf("status = %s, want pending", stored.Status)
	}
	if stored.FileType != request.FileTypeWAV {
		t.Fatalf("file type = %s, want wav", stored.FileType)
	}
	for _, sentence := range stored.Sentences {
		if sentence.WasPresent || sentence.StartWordIndex != nil {
			t.Fatalf("fresh sentence carries match state: %+v", sentence)
		}
	}

	task, err := queue.Receive(ctx, time.Minute)
	if err != nil || task == nil {
		t.Fatalf("transcribe task missing: task=%v err=%v", task, err)
	}
	if task.Kind != taskqueue.KindTranscribe || task.RequestID != rec.ID {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestCreateGeneratesUniqueIDs(t *testing.T) {
	service, _, _ := newService(t)
	ctx := testsupport.Context(t)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		rec, err := service.Create(ctx, "https://example.com/calls/one.mp3", []string{"x y"})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if seen[rec.ID] {
			t.Fatalf("duplicate id %s", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestCreateMapsExtensionToFileType(t *testing.T) {
	service, store, _ := newService(t)
	ctx := testsupport.Context(t)

	cases := []struct {
		audioURL string
		want     request.FileType
	}{
		{"https://example.com/calls/one.wav", request.FileTypeWAV},
		{"https://example.com/calls/one.mp3", request.FileTypeMP3},
		{"https://example.com/calls/ONE.MP3", request.FileTypeMP3},
	}
	for _, tc := range cases {
		rec, err := service.Create(ctx, tc.audioURL, []string{"hello"})
		if err != nil {
			t.Fatalf("Create(%s) failed: %v", tc.audioURL, err)
		}
		stored, err := store.Get(ctx, rec.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if stored.FileType != tc.want {
			t.Fatalf("file type for %s = %s, want %s", tc.audioURL, stored.FileType, tc.want)
		}
	}
}

func TestCreateRejectsInvalidSubmissions(t *testing.T) {
	service, store, _ := newService(t)
	ctx := testsupport.Context(t)

	cases := []struct {
		name      string
		audioURL  string
		sentences []string
	}{
		{"unsupported extension", "https://example.com/calls/one.ogg", []string{"x"}},
		{"no extension", "https://example.com/calls/one", []string{"x"}},
		{"relative url", "/calls/audio.wav", []string{"x"}},
		{"url too short", "a.wav", []string{"x"}},
		{"url too long", "https://example.com/" + strings.Repeat("a", 120) + ".wav", []string{"x"}},
		{"no sentences", "https://example.com/calls/one.wav", nil},
		{"blank sentence", "https://example.com/calls/one.wav", []string{"ok", "   "}},
		{"too many sentences", "https://example.com/calls/one.wav", make([]string, 257)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.name == "too many sentences" {
				for i := range tc.sentences {
					tc.sentences[i] = "word"
				}
			}
			_, err := service.Create(ctx, tc.audioURL, tc.sentences)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	// Nothing may be persisted for rejected submissions.
	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("rejected submissions were persisted: %+v", records)
	}
}
