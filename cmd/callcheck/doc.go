// Package main hosts the callcheck CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon, task queue maintenance operations, and
// configuration scaffolding. Subcommands resolve configuration lazily so
// commands that only talk to the daemon never require a config file.
package main
