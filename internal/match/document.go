package match

import (
	"encoding/json"
	"fmt"
	"io"
)

// Document is the JSON transcript result written by the transcription
// service. Only the top alternative of each item carries the recognized
// text used for matching.
type Document struct {
	JobName string  `json:"jobName"`
	Status  string  `json:"status"`
	Results Results `json:"results"`
}

// Results holds the transcript text and the per-token item stream.
type Results struct {
	Transcripts []TranscriptText `json:"transcripts"`
	Items       []Item           `json:"items"`
}

// TranscriptText is the full transcript as a single string.
type TranscriptText struct {
	Transcript string `json:"transcript"`
}

// Item is one recognized token. Type distinguishes spoken words
// ("pronunciation") from punctuation marks, which carry no word position.
type Item struct {
	Type         string        `json:"type"`
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative is one candidate reading of an item, ordered by confidence.
type Alternative struct {
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence,string"`
}

const itemTypePronunciation = "pronunciation"

// ParseResultDocument decodes a transcript result document.
func ParseResultDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode transcript document: %w", err)
	}
	return &doc, nil
}

// Words returns the ordered word stream for matching. Punctuation items are
// skipped so word indices count spoken words only; each word uses the top
// alternative's text.
func (d *Document) Words() []Word {
	words := make([]Word, 0, len(d.Results.Items))
	for _, item := range d.Results.Items {
		if item.Type != itemTypePronunciation || len(item.Alternatives) == 0 {
			continue
		}
		top := item.Alternatives[0]
		words = append(words, Word{Text: top.Content, Confidence: top.Confidence})
	}
	return words
}
