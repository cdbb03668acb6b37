// Package taskqueue implements a SQLite-backed task queue with lease-based
// at-least-once delivery.
//
// A received task is invisible to other consumers until its lease expires.
// Handlers that finish call Ack; handlers that want redelivery call Nack
// with a delay; handlers that crash simply let the lease lapse. Duplicate
// deliveries are expected and downstream processing is idempotent.
package taskqueue
