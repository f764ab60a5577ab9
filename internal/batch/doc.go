// Package batch walks a directory tree and runs every media file through the
// subtitle pipeline, one file at a time.
//
// The driver filters files by extension, skips files whose target-language
// subtitle already exists, counts outcomes into a Summary, and hands each
// result to an optional Recorder. A file lock keeps two batch runs from
// working at the same time.
package batch
