// Package services defines shared utilities consumed by the subtitle pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp batch run IDs, media file paths, and pipeline
//     stages for logging.
//   - Structured error markers plus the Wrap helper so failures from ffmpeg,
//     WhisperX, ffprobe, and remote providers classify consistently.
//
// Use these helpers when wiring new integrations so error handling and
// observability stay uniform across the pipeline.
package services
