package intake

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"callcheck/internal/logging"
	"callcheck/internal/metastore"
	"callcheck/internal/request"
	"callcheck/internal/services"
	"callcheck/internal/taskqueue"
)

// Submission limits enforced at intake.
const (
	minAudioURLLength = 10
	maxAudioURLLength = 128
	maxSentences      = 256
)

// Service validates submissions, persists the pending record, and enqueues
// the processing task carrying only the request identifier.
type Service struct {
	logger *slog.Logger
	store  *metastore.Store
	queue  *taskqueue.Queue
}

// NewService builds the intake service.
func NewService(logger *slog.Logger, store *metastore.Store, queue *taskqueue.Queue) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		logger: logger.With(logging.String(logging.FieldComponent, "intake")),
		store:  store,
		queue:  queue,
	}
}

// Create validates the submission and creates a new analysis request. The
// returned record has status pending and no match outcomes. Validation
// failures are reported with ErrValidation and are never persisted.
func (s *Service) Create(ctx context.Context, audioURL string, sentences []string) (*request.Record, error) {
	fileType, err := validate(audioURL, sentences)
	if err != nil {
		return nil, err
	}

	rec := request.New(audioURL, sentences, fileType)
	if err := s.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.queue.Send(ctx, taskqueue.KindTranscribe, rec.ID); err != nil {
		return nil, err
	}

	s.logger.Info("analysis request created",
		logging.String(logging.FieldRequestID, rec.ID),
		logging.String("file_type", string(rec.FileType)),
		logging.Int("sentences", len(sentences)))
	return rec, nil
}

func validate(audioURL string, sentences []string) (request.FileType, error) {
	if length := len(audioURL); length < minAudioURLLength || length > maxAudioURLLength {
		return "", services.Wrap(services.ErrValidation, "intake", "validate submission", audioURL,
			fmt.Errorf("audio_url length %d outside [%d, %d]", length, minAudioURLLength, maxAudioURLLength))
	}

	parsed, err := url.Parse(audioURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", services.Wrap(services.ErrValidation, "intake", "validate submission", audioURL,
			fmt.Errorf("audio_url is not an absolute URL"))
	}

	fileType, ok := request.ParseFileType(path.Ext(parsed.Path))
	if !ok {
		return "", services.Wrap(services.ErrValidation, "intake", "validate submission", audioURL,
			fmt.Errorf("unsupported file extension %q", path.Ext(parsed.Path)))
	}

	if len(sentences) == 0 {
		return "", services.Wrap(services.ErrValidation, "intake", "validate submission", audioURL,
			fmt.Errorf("at least one sentence is required"))
	}
	if len(sentences) > maxSentences {
		return "", services.Wrap(services.ErrValidation, "intake", "validate submission", audioURL,
			fmt.Errorf("%d sentences exceeds the limit of %d", len(sentences), maxSentences))
	}
	for i, sentence := range sentences {
		if strings.TrimSpace(sentence) == "" {
			return "", services.Wrap(services.ErrValidation, "intake", "validate submission", audioURL,
				fmt.Errorf("sentence %d is blank", i))
		}
	}
	return fileType, nil
}
