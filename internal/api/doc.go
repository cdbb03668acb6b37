// Package api serves the HTTP surface: submission, result retrieval, signed
// object downloads, and daemon status.
package api
