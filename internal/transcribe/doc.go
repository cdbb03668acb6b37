// Package transcribe submits asynchronous transcription jobs and turns
// provider responses into the transcript document consumed by the matching
// engine. Job names act as idempotency keys so queue redelivery cannot run
// the same transcription twice concurrently.
package transcribe
