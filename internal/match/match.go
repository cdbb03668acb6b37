package match

import (
	"strings"

	"callcheck/internal/request"
)

// Word is a single recognized token from a transcript, in stream order.
type Word struct {
	Text       string
	Confidence float64
}

// Run performs a single streaming pass over the transcript words and updates
// each sentence's match outcome in place.
//
// One progress counter is kept per sentence. A counter advances when the
// current word equals the sentence's next expected word (case-insensitive)
// and is never reset on a mismatch, so progress persists across unrelated
// intervening words. When a counter consumes the full phrase, the trailing
// window of the transcript is checked against the phrase: only a genuinely
// contiguous occurrence is recorded. Either way the counter resets to zero,
// which means a phrase occurring more than once keeps only the last
// occurrence's span.
//
// The pass is pure with respect to its inputs, so replaying it over the same
// transcript yields identical output.
func Run(words []Word, sentences []request.Sentence) {
	counters := make([]int, len(sentences))
	targets := make([][]string, len(sentences))
	for i, sentence := range sentences {
		targets[i] = strings.Split(sentence.PlainText, " ")
	}

	for idx, word := range words {
		for si := range sentences {
			target := targets[si]
			c := counters[si]
			if c < len(target) && strings.EqualFold(target[c], word.Text) {
				c++
				counters[si] = c
			}
			if c != len(target) {
				continue
			}
			counters[si] = 0
			start := idx - len(target) + 1
			if !windowEquals(words, start, target) {
				continue
			}
			end := idx
			sentences[si].WasPresent = true
			sentences[si].StartWordIndex = intPtr(start)
			sentences[si].EndWordIndex = intPtr(end)
		}
	}
}

// windowEquals reports whether the transcript words starting at start match
// the target phrase word for word.
func windowEquals(words []Word, start int, target []string) bool {
	if start < 0 || start+len(target) > len(words) {
		return false
	}
	for i, expected := range target {
		if !strings.EqualFold(words[start+i].Text, expected) {
			return false
		}
	}
	return true
}

func intPtr(v int) *int { return &v }
