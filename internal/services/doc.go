// Package services holds cross-cutting helpers shared by the pipeline stages:
// the error classification taxonomy and context annotation utilities.
package services
