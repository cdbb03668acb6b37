package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"callcheck/internal/blob"
	"callcheck/internal/logging"
	"callcheck/internal/match"
	"callcheck/internal/request"
	"callcheck/internal/services"
	"callcheck/internal/taskqueue"
)

// Job describes one transcription job. Name doubles as the idempotency key:
// it is derived from the request identifier, so duplicate submissions caused
// by queue redelivery collapse onto the same job.
type Job struct {
	Name      string
	InputKey  string
	OutputKey string
	Format    request.FileType
	Language  string
}

// ProviderOptions carries per-job parameters to a speech-to-text provider.
type ProviderOptions struct {
	FileName string
	Language string
}

// Provider converts an audio stream into a transcript document.
type Provider interface {
	Transcribe(ctx context.Context, audio io.Reader, opts ProviderOptions) (*match.Document, error)
}

// Service accepts transcription jobs and runs them asynchronously. On
// completion it writes the transcript document to the job's output key and
// enqueues an analyze task; on failure it logs and drops the job, leaving
// the record pending.
type Service interface {
	StartJob(ctx context.Context, job Job) error
}

// Runner is the in-process Service implementation.
type Runner struct {
	logger   *slog.Logger
	store    blob.Store
	queue    *taskqueue.Queue
	provider Provider
	timeout  time.Duration

	mu     sync.Mutex
	active map[string]struct{}
	wg     sync.WaitGroup
}

// NewRunner builds a Runner. timeout bounds a single provider call.
func NewRunner(logger *slog.Logger, store blob.Store, queue *taskqueue.Queue, provider Provider, timeout time.Duration) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		logger:   logger.With(logging.String(logging.FieldComponent, "transcribe")),
		store:    store,
		queue:    queue,
		provider: provider,
		timeout:  timeout,
		active:   make(map[string]struct{}),
	}
}

// StartJob submits a job. A job whose name is already active is treated as a
// successful no-op, and a job whose output document already exists re-fires
// the completion trigger instead of transcribing again.
func (r *Runner) StartJob(ctx context.Context, job Job) error {
	if job.Name == "" || job.InputKey == "" || job.OutputKey == "" {
		return services.Wrap(services.ErrDispatch, "transcribe", "start job", job.Name, fmt.Errorf("incomplete job definition"))
	}

	exists, err := r.store.Exists(ctx, job.OutputKey)
	if err != nil {
		return services.Wrap(services.ErrDispatch, "transcribe", "start job", job.Name, err)
	}
	if exists {
		r.logger.Info("transcript already present, re-firing completion trigger",
			logging.String(logging.FieldRequestID, job.Name))
		if err := r.queue.Send(ctx, taskqueue.KindAnalyze, job.Name); err != nil {
			return services.Wrap(services.ErrDispatch, "transcribe", "start job", job.Name, err)
		}
		return nil
	}

	r.mu.Lock()
	if _, running := r.active[job.Name]; running {
		r.mu.Unlock()
		r.logger.Info("job already active, duplicate submission ignored",
			logging.String(logging.FieldRequestID, job.Name))
		return nil
	}
	r.active[job.Name] = struct{}{}
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(job)

	r.logger.Info("transcription job started",
		logging.String(logging.FieldRequestID, job.Name),
		logging.String("input_key", job.InputKey))
	return nil
}

// ActiveJobs returns the names of jobs currently running.
func (r *Runner) ActiveJobs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.active))
	for name := range r.active {
		names = append(names, name)
	}
	return names
}

// Wait blocks until all in-flight jobs finish. Used during shutdown and by
// tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(job Job) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		delete(r.active, job.Name)
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.execute(ctx, job); err != nil {
		r.logger.Error("transcription job failed",
			logging.String(logging.FieldRequestID, job.Name),
			logging.Error(err))
		return
	}

	r.logger.Info("transcription job completed",
		logging.String(logging.FieldRequestID, job.Name),
		logging.String("output_key", job.OutputKey))
}

func (r *Runner) execute(ctx context.Context, job Job) error {
	audio, err := r.store.GetObject(ctx, job.InputKey)
	if err != nil {
		return fmt.Errorf("read staged audio: %w", err)
	}
	defer audio.Close()

	doc, err := r.provider.Transcribe(ctx, audio, ProviderOptions{
		FileName: "audio_file." + string(job.Format),
		Language: job.Language,
	})
	if err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	doc.JobName = job.Name
	doc.Status = "COMPLETED"

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode transcript document: %w", err)
	}
	if err := r.store.PutObject(ctx, job.OutputKey, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("write transcript document: %w", err)
	}

	if err := r.queue.Send(ctx, taskqueue.KindAnalyze, job.Name); err != nil {
		return fmt.Errorf("enqueue analyze task: %w", err)
	}
	return nil
}
