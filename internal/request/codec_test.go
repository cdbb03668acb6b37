package request_test

import (
	"errors"
	"testing"

	"callcheck/internal/request"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := request.New("https://example.com/call.wav", []string{"the quick", "brown fox"}, request.FileTypeWAV)
	start, end := 4, 5
	rec.Sentences[1].WasPresent = true
	rec.Sentences[1].StartWordIndex = &start
	rec.Sentences[1].EndWordIndex = &end
	rec.Status = request.StatusCompleted
	rec.TranscriptPath = rec.TranscriptKey()

	enc, err := request.Encode(rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if enc.Status != "completed" || enc.FileType != "wav" {
		t.Fatalf("unexpected primitive encoding: %+v", enc)
	}

	decoded, err := request.Decode(enc)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.ID != rec.ID || decoded.AudioURL != rec.AudioURL {
		t.Fatalf("identity fields lost: %+v", decoded)
	}
	if !decoded.Created.Equal(rec.Created) || !decoded.Updated.Equal(rec.Updated) {
		t.Fatalf("timestamps did not round trip: %v vs %v", decoded.Created, rec.Created)
	}
	if len(decoded.Sentences) != 2 {
		t.Fatalf("sentence count = %d", len(decoded.Sentences))
	}
	got := decoded.Sentences[1]
	if !got.WasPresent || got.StartWordIndex == nil || *got.StartWordIndex != 4 || got.EndWordIndex == nil || *got.EndWordIndex != 5 {
		t.Fatalf("match fields did not round trip: %+v", got)
	}
	if decoded.Sentences[0].StartWordIndex != nil {
		t.Fatal("unmatched sentence gained indices")
	}
}

func TestDecodeRejectsCorruptFields(t *testing.T) {
	rec := request.New("https://example.com/call.mp3", []string{"x"}, request.FileTypeMP3)
	valid, err := request.Encode(rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*request.Encoded)
		field  string
	}{
		{"bad id", func(e *request.Encoded) { e.RequestID = "nope" }, "request_id"},
		{"bad file type", func(e *request.Encoded) { e.FileType = "ogg" }, "file_type"},
		{"bad status", func(e *request.Encoded) { e.Status = "exploded" }, "status"},
		{"bad created", func(e *request.Encoded) { e.Created = "yesterday" }, "created"},
		{"bad updated", func(e *request.Encoded) { e.Updated = "12345" }, "updated"},
		{"bad sentences", func(e *request.Encoded) { e.SentencesJSON = "{not json" }, "sentences"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enc := valid
			tc.mutate(&enc)
			_, err := request.Decode(enc)
			if err == nil {
				t.Fatal("expected decode error")
			}
			var decodeErr *request.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %T: %v", err, err)
			}
			if decodeErr.Field != tc.field {
				t.Fatalf("field = %q, want %q", decodeErr.Field, tc.field)
			}
		})
	}
}
