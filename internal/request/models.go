package request

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle of an analysis request. Transitions are
// monotonic: pending moves to exactly one of completed or failed and never
// regresses.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var statusSet = map[Status]struct{}{
	StatusPending:   {},
	StatusCompleted: {},
	StatusFailed:    {},
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// FileType enumerates the accepted audio container formats.
type FileType string

const (
	FileTypeWAV FileType = "wav"
	FileTypeMP3 FileType = "mp3"
)

// ParseFileType maps a file extension (with or without the leading dot) to a
// supported FileType.
func ParseFileType(extension string) (FileType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(extension))
	normalized = strings.TrimPrefix(normalized, ".")
	switch FileType(normalized) {
	case FileTypeWAV:
		return FileTypeWAV, true
	case FileTypeMP3:
		return FileTypeMP3, true
	default:
		return "", false
	}
}

// Sentence is one target phrase to search for, plus its match outcome. Only
// the matching engine mutates the three derived fields.
type Sentence struct {
	PlainText      string
	WasPresent     bool
	StartWordIndex *int
	EndWordIndex   *int
}

// Record is the persisted metadata unit describing one analysis request and
// its current lifecycle state. The sentence list is fixed in length and order
// after creation.
type Record struct {
	ID             string
	AudioURL       string
	FileType       FileType
	Sentences      []Sentence
	Status         Status
	Created        time.Time
	Updated        time.Time
	TranscriptPath string
}

// New builds a pending record for the given submission. The identifier is a
// fresh UUID rendered as 32 hex characters.
func New(audioURL string, sentences []string, fileType FileType) *Record {
	id := uuid.New()
	now := time.Now().UTC()

	targets := make([]Sentence, len(sentences))
	for i, text := range sentences {
		targets[i] = Sentence{PlainText: text}
	}

	return &Record{
		ID:        hex.EncodeToString(id[:]),
		AudioURL:  audioURL,
		FileType:  fileType,
		Sentences: targets,
		Status:    StatusPending,
		Created:   now,
		Updated:   now,
	}
}

// ValidID reports whether value has the shape of a record identifier.
func ValidID(value string) bool {
	if len(value) != 32 {
		return false
	}
	_, err := hex.DecodeString(value)
	return err == nil
}

// AudioKey returns the canonical object key for the staged audio file.
func (r *Record) AudioKey() string {
	return fmt.Sprintf("audio/%s/audio_file.%s", r.ID, r.FileType)
}

// TranscriptKey returns the canonical object key for the transcription result.
func (r *Record) TranscriptKey() string {
	return fmt.Sprintf("transcripts/%s/transcript.json", r.ID)
}

// ResultsKey returns the canonical object key for the analysis results document.
func (r *Record) ResultsKey() string {
	return fmt.Sprintf("results/%s/results.json", r.ID)
}

// Clone returns a deep copy so callers can mutate sentences without aliasing.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Sentences = make([]Sentence, len(r.Sentences))
	for i, s := range r.Sentences {
		cp.Sentences[i] = s
		if s.StartWordIndex != nil {
			v := *s.StartWordIndex
			cp.Sentences[i].StartWordIndex = &v
		}
		if s.EndWordIndex != nil {
			v := *s.EndWordIndex
			cp.Sentences[i].EndWordIndex = &v
		}
	}
	return &cp
}
