package transcribe

import (
	"testing"
)

func TestBuildDocumentSeparatesPunctuation(t *testing.T) {
	doc := buildDocument("Hello, world.", []string{"Hello,", "world."})

	words := doc.Words()
	if len(words) != 2 {
		t.Fatalf("word count = %d, want 2", len(words))
	}
	if words[0].Text != "Hello" || words[1].Text != "world" {
		t.Fatalf("unexpected words: %+v", words)
	}

	// The raw item stream keeps the punctuation marks.
	if len(doc.Results.Items) != 4 {
		t.Fatalf("item count = %d, want 4", len(doc.Results.Items))
	}
	if doc.Results.Items[1].Type != "punctuation" || doc.Results.Items[1].Alternatives[0].Content != "," {
		t.Fatalf("unexpected item: %+v", doc.Results.Items[1])
	}
	if doc.Results.Transcripts[0].Transcript != "Hello, world." {
		t.Fatalf("transcript text lost: %+v", doc.Results.Transcripts)
	}
}

func TestSplitPunctuationKeepsInteriorMarks(t *testing.T) {
	leading, word, trailing := splitPunctuation(`"don't!"`)
	if word != "don't" {
		t.Fatalf("word = %q, want don't", word)
	}
	if len(leading) != 1 || leading[0] != `"` {
		t.Fatalf("leading = %v", leading)
	}
	if len(trailing) != 2 || trailing[0] != "!" || trailing[1] != `"` {
		t.Fatalf("trailing = %v", trailing)
	}
}

func TestBaseLanguage(t *testing.T) {
	cases := map[string]string{
		"en-US": "en",
		"en":    "en",
		"nl-NL": "nl",
		"":      "",
	}
	for input, want := range cases {
		if got := baseLanguage(input); got != want {
			t.Fatalf("baseLanguage(%q) = %q, want %q", input, got, want)
		}
	}
}
