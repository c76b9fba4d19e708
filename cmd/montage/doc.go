// Package main hosts the montage CLI entrypoint and command graph.
//
// The Cobra-based command tree covers project scaffolding and inspection,
// graph compilation, local and remote render submission, render queue
// maintenance, and the queue service itself. It centralizes configuration
// resolution and structured logging setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
