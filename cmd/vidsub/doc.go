// Package main hosts the vidsub CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, builds the logger,
// and wires the recognizer, translation chain, pipeline, and batch driver
// for each invocation. Subcommands cover batch subtitle generation, watch
// mode, resolution renaming, thumbnails, run history, one-shot translation,
// dependency checks, and configuration scaffolding.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
