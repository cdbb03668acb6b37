// Package intake validates incoming analysis submissions and creates the
// pending request record that drives the rest of the pipeline.
package intake
