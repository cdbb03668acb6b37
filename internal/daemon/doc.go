// Package daemon assembles the stores, workflow, transcription runner, and
// HTTP API into the single-instance background process.
package daemon
