// Package whisperx runs the WhisperX speech recognizer through uvx.
//
// This package handles:
//   - Audio extraction of the first audio stream (mono 16kHz WAV via ffmpeg)
//   - WhisperX invocation with language auto-detection
//   - Parsing the JSON output into a transcript with its detected language
//
// Service.Recognize is the entry point used by the subtitle pipeline.
// Configuration options (model, CUDA, VAD method) are passed via Config.
package whisperx
