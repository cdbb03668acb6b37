// Package blob provides object storage for audio files, transcripts, and
// results, plus HMAC-signed download links.
//
// The filesystem implementation lays objects out under the configured bucket
// directory using the same slash-separated keys the rest of the system
// records in request metadata.
package blob
