// Package request defines the analysis request record, its lifecycle states,
// canonical object keys, and the primitive-field codec used for persistence.
//
// A record is the single source of truth for one submission: downstream
// stages receive only a request identifier and re-read current state from the
// metadata store. Canonical keys are derived purely from the identifier and
// file type so stages never pass payloads between each other.
package request
