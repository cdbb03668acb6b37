package transcribe

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"

	"callcheck/internal/config"
	"callcheck/internal/match"
)

// WhisperProvider transcribes audio through an OpenAI-compatible speech API.
type WhisperProvider struct {
	client *openai.Client
	model  string
}

// NewWhisperProvider builds a provider from the transcriber configuration
// section. A custom base URL points the client at a self-hosted
// OpenAI-compatible endpoint.
func NewWhisperProvider(cfg *config.Config) *WhisperProvider {
	clientConfig := openai.DefaultConfig(cfg.Transcriber.APIKey)
	if cfg.Transcriber.BaseURL != "" {
		clientConfig.BaseURL = cfg.Transcriber.BaseURL
	}
	return &WhisperProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Transcriber.Model,
	}
}

// Transcribe uploads the audio stream and converts the verbose response into
// a transcript document with one item per recognized token.
func (p *WhisperProvider) Transcribe(ctx context.Context, audio io.Reader, opts ProviderOptions) (*match.Document, error) {
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.model,
		Reader:   audio,
		FilePath: opts.FileName,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: baseLanguage(opts.Language),
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create transcription: %w", err)
	}

	tokens := make([]string, 0, len(resp.Words))
	for _, word := range resp.Words {
		if trimmed := strings.TrimSpace(word.Word); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	// Some endpoints omit word timestamps; fall back to splitting the text.
	if len(tokens) == 0 {
		tokens = strings.Fields(resp.Text)
	}

	return buildDocument(resp.Text, tokens), nil
}

// buildDocument converts raw tokens into the transcript document shape.
// Punctuation attached to a token is emitted as separate punctuation items
// so word indices count spoken words only.
func buildDocument(text string, tokens []string) *match.Document {
	items := make([]match.Item, 0, len(tokens))
	for _, token := range tokens {
		leading, word, trailing := splitPunctuation(token)
		for _, mark := range leading {
			items = append(items, punctuationItem(mark))
		}
		if word != "" {
			items = append(items, match.Item{
				Type: "pronunciation",
				Alternatives: []match.Alternative{
					{Content: word, Confidence: 1},
				},
			})
		}
		for _, mark := range trailing {
			items = append(items, punctuationItem(mark))
		}
	}

	return &match.Document{
		Results: match.Results{
			Transcripts: []match.TranscriptText{{Transcript: text}},
			Items:       items,
		},
	}
}

func punctuationItem(mark string) match.Item {
	return match.Item{
		Type: "punctuation",
		Alternatives: []match.Alternative{
			{Content: mark, Confidence: 0},
		},
	}
}

// splitPunctuation separates leading and trailing punctuation marks from a
// token. Interior punctuation (apostrophes, hyphens) stays with the word.
func splitPunctuation(token string) (leading []string, word string, trailing []string) {
	runes := []rune(token)
	start, end := 0, len(runes)
	for start < end && unicode.IsPunct(runes[start]) {
		leading = append(leading, string(runes[start]))
		start++
	}
	for end > start && unicode.IsPunct(runes[end-1]) {
		end--
	}
	for i := end; i < len(runes); i++ {
		trailing = append(trailing, string(runes[i]))
	}
	return leading, string(runes[start:end]), trailing
}

// baseLanguage reduces a BCP 47 tag like "en-US" to the bare language code
// the speech API expects.
func baseLanguage(tag string) string {
	if tag == "" {
		return ""
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	base, _ := parsed.Base()
	return base.String()
}
