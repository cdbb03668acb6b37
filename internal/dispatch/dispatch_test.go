package dispatch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"callcheck/internal/blob"
	"callcheck/internal/dispatch"
	"callcheck/internal/metastore"
	"callcheck/internal/request"
	"callcheck/internal/services"
	"callcheck/internal/testsupport"
	"callcheck/internal/transcribe"
)

type fakeJobs struct {
	jobs []transcribe.Job
	err  error
}

func (f *fakeJobs) StartJob(ctx context.Context, job transcribe.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func newFixture(t *testing.T, jobs *fakeJobs) (*dispatch.Stage, *metastore.Store, blob.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := metastore.Open(cfg)
	if err != nil {
		t.Fatalf("metastore.Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	blobs, err := blob.NewFSStore(cfg)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	return dispatch.NewStage(nil, store, blobs, jobs, "en-US"), store, blobs
}

func TestProcessStagesAudioAndSubmitsJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("audio payload"))
	}))
	defer server.Close()

	jobs := &fakeJobs{}
	stage, store, blobs := newFixture(t, jobs)
	ctx := testsupport.Context(t)

	rec := request.New(server.URL+"/call.wav", []string{"hello"}, request.FileTypeWAV)
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := stage.Process(ctx, rec.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	exists, err := blobs.Exists(ctx, rec.AudioKey())
	if err != nil || !exists {
		t.Fatalf("audio not staged: exists=%v err=%v", exists, err)
	}
	if len(jobs.jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs.jobs))
	}
	job := jobs.jobs[0]
	if job.Name != rec.ID || job.InputKey != rec.AudioKey() || job.OutputKey != rec.TranscriptKey() {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Language != "en-US" || job.Format != request.FileTypeWAV {
		t.Fatalf("unexpected job params: %+v", job)
	}

	stored, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != request.StatusPending {
		t.Fatalf("status = %s, want pending", stored.Status)
	}
}

func TestProcessMissingRecordPropagatesNotFound(t *testing.T) {
	stage, _, _ := newFixture(t, &fakeJobs{})
	err := stage.Process(testsupport.Context(t), "00000000000000000000000000000000")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransferFailureMarksRecordFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such object", http.StatusNotFound)
	}))
	defer server.Close()

	jobs := &fakeJobs{}
	stage, store, _ := newFixture(t, jobs)
	ctx := testsupport.Context(t)

	rec := request.New(server.URL+"/gone.mp3", []string{"hello"}, request.FileTypeMP3)
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := stage.Process(ctx, rec.ID); err != nil {
		t.Fatalf("transfer failure should be swallowed, got %v", err)
	}

	stored, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != request.StatusFailed {
		t.Fatalf("status = %s, want failed", stored.Status)
	}
	if len(jobs.jobs) != 0 {
		t.Fatalf("job submitted despite transfer failure: %+v", jobs.jobs)
	}
}

func TestJobSubmissionFailureMarksRecordFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("audio payload"))
	}))
	defer server.Close()

	jobs := &fakeJobs{err: services.Wrap(services.ErrDispatch, "transcribe", "start job", "x", errors.New("backend down"))}
	stage, store, _ := newFixture(t, jobs)
	ctx := testsupport.Context(t)

	rec := request.New(server.URL+"/call.wav", []string{"hello"}, request.FileTypeWAV)
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := stage.Process(ctx, rec.ID); err != nil {
		t.Fatalf("dispatch failure should be swallowed, got %v", err)
	}
	stored, _ := store.Get(ctx, rec.ID)
	if stored.Status != request.StatusFailed {
		t.Fatalf("status = %s, want failed", stored.Status)
	}
}

func TestTerminalRecordIsSkipped(t *testing.T) {
	jobs := &fakeJobs{}
	stage, store, _ := newFixture(t, jobs)
	ctx := testsupport.Context(t)

	rec := request.New("https://example.com/call.wav", []string{"hello"}, request.FileTypeWAV)
	rec.Status = request.StatusCompleted
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := stage.Process(ctx, rec.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(jobs.jobs) != 0 {
		t.Fatalf("job submitted for terminal record: %+v", jobs.jobs)
	}
	stored, _ := store.Get(ctx, rec.ID)
	if stored.Status != request.StatusCompleted {
		t.Fatalf("status regressed: %s", stored.Status)
	}
}
