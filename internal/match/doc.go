// Package match implements the sentence matching engine: a single-pass
// streaming alignment that marks, for each target sentence, whether its
// exact word sequence occurs contiguously in a transcribed word stream and
// where.
package match
