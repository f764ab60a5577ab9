// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties
//   - Format: container-level metadata (duration, container name)
//
// Inspect executes ffprobe and returns a parsed Result; Decode parses output
// captured elsewhere. Helper methods on Result give stream counts, video
// dimensions for resolution naming, and duration for thumbnail timing.
package ffprobe
