package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"callcheck/internal/blob"
	"callcheck/internal/logging"
	"callcheck/internal/match"
	"callcheck/internal/metastore"
	"callcheck/internal/request"
	"callcheck/internal/services"
)

// Stage runs the matching engine over a completed transcript and finalizes
// the record. Replaying the stage over the same transcript produces the same
// outcome, so duplicate analyze deliveries are harmless.
type Stage struct {
	logger *slog.Logger
	store  *metastore.Store
	blobs  blob.Store
}

// NewStage builds the analyze stage.
func NewStage(logger *slog.Logger, store *metastore.Store, blobs blob.Store) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{
		logger: logger.With(logging.String(logging.FieldComponent, "analyze")),
		store:  store,
		blobs:  blobs,
	}
}

// Process handles one analyze task: parse the transcript document, align the
// target sentences, write the results document, and complete the record.
func (s *Stage) Process(ctx context.Context, requestID string) error {
	ctx = services.WithRequestID(ctx, requestID)
	ctx = services.WithStage(ctx, "analyze")

	rec, err := s.store.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if rec.Status.Terminal() {
		s.logger.Info("record already terminal, skipping analysis",
			logging.String(logging.FieldRequestID, requestID),
			logging.String("status", string(rec.Status)))
		return nil
	}

	reader, err := s.blobs.GetObject(ctx, rec.TranscriptKey())
	if err != nil {
		return err
	}
	defer reader.Close()

	doc, err := match.ParseResultDocument(reader)
	if err != nil {
		return services.Wrap(services.ErrStorage, "analyze", "parse transcript", requestID, err)
	}

	words := doc.Words()
	match.Run(words, rec.Sentences)

	if err := s.writeResults(ctx, rec); err != nil {
		return err
	}

	rec.Status = request.StatusCompleted
	rec.TranscriptPath = rec.TranscriptKey()
	if err := s.store.Put(ctx, rec); err != nil {
		return err
	}

	found := 0
	for _, sentence := range rec.Sentences {
		if sentence.WasPresent {
			found++
		}
	}
	s.logger.Info("analysis completed",
		logging.String(logging.FieldRequestID, rec.ID),
		logging.Int("words", len(words)),
		logging.Int("sentences_found", found),
		logging.Int("sentences_total", len(rec.Sentences)))
	return nil
}

// writeResults stores the match outcome document at the canonical results
// key so it can be fetched without reading the metadata store.
func (s *Stage) writeResults(ctx context.Context, rec *request.Record) error {
	enc, err := request.Encode(rec)
	if err != nil {
		return services.Wrap(services.ErrStorage, "analyze", "encode results", rec.ID, err)
	}

	resultsDoc := struct {
		RequestID string          `json:"request_id"`
		AudioURL  string          `json:"audio_url"`
		Sentences json.RawMessage `json:"sentences"`
	}{
		RequestID: rec.ID,
		AudioURL:  rec.AudioURL,
		Sentences: json.RawMessage(enc.SentencesJSON),
	}
	payload, err := json.Marshal(resultsDoc)
	if err != nil {
		return services.Wrap(services.ErrStorage, "analyze", "encode results", rec.ID, err)
	}
	return s.blobs.PutObject(ctx, rec.ResultsKey(), bytes.NewReader(payload))
}
