// Package workflow drives task consumption: it leases tasks from the queue,
// routes them to the stage handler registered for their kind, and keeps the
// lease alive while the handler runs.
package workflow
