// Package srt renders transcripts as SubRip subtitle text and reads it back.
//
// Timestamps are derived by truncation, never rounding, so a cue can never
// carry a ":60," seconds field. Serialization is pure and deterministic: the
// same segments always produce byte-identical output.
package srt
