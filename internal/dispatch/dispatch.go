package dispatch

import (
	"context"
	"log/slog"

	"callcheck/internal/blob"
	"callcheck/internal/logging"
	"callcheck/internal/metastore"
	"callcheck/internal/request"
	"callcheck/internal/services"
	"callcheck/internal/transcribe"
)

// Stage moves a pending request from submission to transcription: it stages
// the source audio at its canonical location and submits the transcription
// job. Transfer and submission failures mark the record failed and are
// swallowed; storage failures propagate so the task is redelivered.
type Stage struct {
	logger   *slog.Logger
	store    *metastore.Store
	blobs    blob.Store
	jobs     transcribe.Service
	language string
}

// NewStage builds the dispatch stage. language is the transcription language
// tag passed through to the job.
func NewStage(logger *slog.Logger, store *metastore.Store, blobs blob.Store, jobs transcribe.Service, language string) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{
		logger:   logger.With(logging.String(logging.FieldComponent, "dispatch")),
		store:    store,
		blobs:    blobs,
		jobs:     jobs,
		language: language,
	}
}

// Process handles one transcribe task. A missing record propagates NotFound;
// a record already in a terminal state is left untouched.
func (s *Stage) Process(ctx context.Context, requestID string) error {
	ctx = services.WithRequestID(ctx, requestID)
	ctx = services.WithStage(ctx, "dispatch")

	rec, err := s.store.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if rec.Status.Terminal() {
		s.logger.Info("record already terminal, skipping dispatch",
			logging.String(logging.FieldRequestID, requestID),
			logging.String("status", string(rec.Status)))
		return nil
	}

	audioKey := rec.AudioKey()
	if err := s.blobs.CopyFromURL(ctx, rec.AudioURL, audioKey); err != nil {
		return s.fail(ctx, rec, err)
	}

	job := transcribe.Job{
		Name:      rec.ID,
		InputKey:  audioKey,
		OutputKey: rec.TranscriptKey(),
		Format:    rec.FileType,
		Language:  s.language,
	}
	if err := s.jobs.StartJob(ctx, job); err != nil {
		return s.fail(ctx, rec, err)
	}

	s.logger.Info("audio staged and transcription dispatched",
		logging.String(logging.FieldRequestID, rec.ID),
		logging.String("audio_key", audioKey))
	return nil
}

// fail transitions the record to failed for transfer/dispatch errors and
// swallows the cause after logging. Anything else propagates untouched.
func (s *Stage) fail(ctx context.Context, rec *request.Record, cause error) error {
	if !services.RecordsFailure(cause) {
		return cause
	}

	rec.Status = request.StatusFailed
	if err := s.store.Put(ctx, rec); err != nil {
		return err
	}

	s.logger.Error("dispatch failed, record marked failed",
		logging.String(logging.FieldRequestID, rec.ID),
		logging.Error(cause))
	return nil
}
