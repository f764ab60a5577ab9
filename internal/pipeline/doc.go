// Package pipeline turns one media file into SRT subtitle artifacts.
//
// Process runs recognition, optional translation into the target language,
// serialization, and atomic writes. The original-language artifact is always
// written as <base>.<detected>.srt; when the detected language differs from
// the target a second <base>.<target>.srt is written beside it. Per-file
// failures are reported through Outcome rather than returned as errors, so a
// batch driver can keep going.
package pipeline
