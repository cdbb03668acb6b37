package request

import (
	"encoding/json"
	"fmt"
	"time"
)

// Encoded is the primitive-field representation persisted by the metadata
// store: timestamps as RFC 3339 strings, enums as their string values, and
// the sentence list as a JSON document.
type Encoded struct {
	RequestID      string
	AudioURL       string
	FileType       string
	SentencesJSON  string
	Status         string
	Created        string
	Updated        string
	TranscriptPath string
}

// DecodeError describes a stored field that could not be coerced back into
// its native type.
type DecodeError struct {
	Field string
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode record field %s (value %q): %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("decode record field %s: invalid value %q", e.Field, e.Value)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type sentenceDoc struct {
	PlainText      string `json:"plain_text"`
	WasPresent     bool   `json:"was_present"`
	StartWordIndex *int   `json:"start_word_index,omitempty"`
	EndWordIndex   *int   `json:"end_word_index,omitempty"`
}

// Encode flattens a record into its primitive persisted form.
func Encode(r *Record) (Encoded, error) {
	docs := make([]sentenceDoc, len(r.Sentences))
	for i, s := range r.Sentences {
		docs[i] = sentenceDoc{
			PlainText:      s.PlainText,
			WasPresent:     s.WasPresent,
			StartWordIndex: s.StartWordIndex,
			EndWordIndex:   s.EndWordIndex,
		}
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return Encoded{}, fmt.Errorf("marshal sentences: %w", err)
	}

	return Encoded{
		RequestID:      r.ID,
		AudioURL:       r.AudioURL,
		FileType:       string(r.FileType),
		SentencesJSON:  string(data),
		Status:         string(r.Status),
		Created:        r.Created.UTC().Format(time.RFC3339Nano),
		Updated:        r.Updated.UTC().Format(time.RFC3339Nano),
		TranscriptPath: r.TranscriptPath,
	}, nil
}

// Decode reconstructs a typed Record from its primitive persisted form,
// validating and converting each field. Failures carry a *DecodeError naming
// the offending field.
func Decode(enc Encoded) (*Record, error) {
	if !ValidID(enc.RequestID) {
		return nil, &DecodeError{Field: "request_id", Value: enc.RequestID}
	}

	fileType, ok := ParseFileType(enc.FileType)
	if !ok {
		return nil, &DecodeError{Field: "file_type", Value: enc.FileType}
	}

	status, ok := ParseStatus(enc.Status)
	if !ok {
		return nil, &DecodeError{Field: "status", Value: enc.Status}
	}

	created, err := parseTimestamp(enc.Created)
	if err != nil {
		return nil, &DecodeError{Field: "created", Value: enc.Created, Err: err}
	}
	updated, err := parseTimestamp(enc.Updated)
	if err != nil {
		return nil, &DecodeError{Field: "updated", Value: enc.Updated, Err: err}
	}

	var docs []sentenceDoc
	if err := json.Unmarshal([]byte(enc.SentencesJSON), &docs); err != nil {
		return nil, &DecodeError{Field: "sentences", Value: enc.SentencesJSON, Err: err}
	}
	sentences := make([]Sentence, len(docs))
	for i, doc := range docs {
		sentences[i] = Sentence{
			PlainText:      doc.PlainText,
			WasPresent:     doc.WasPresent,
			StartWordIndex: doc.StartWordIndex,
			EndWordIndex:   doc.EndWordIndex,
		}
	}

	return &Record{
		ID:             enc.RequestID,
		AudioURL:       enc.AudioURL,
		FileType:       fileType,
		Sentences:      sentences,
		Status:         status,
		Created:        created,
		Updated:        updated,
		TranscriptPath: enc.TranscriptPath,
	}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
