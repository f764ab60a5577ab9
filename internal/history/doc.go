// Package history persists batch runs and per-file results in SQLite.
//
// The store lives at <state_dir>/history.db. It implements batch.Recorder so
// the batch driver can record progress as it goes, and backs the
// `vidsub history` command.
package history
