// Package language provides unified language code normalization and mapping.
//
// Normalize turns whatever the speech recognizer reports into the code the
// translation providers accept, falling back to the "auto" sentinel when no
// mapping exists. The remaining helpers (ISO 639 conversions, display names,
// dictionary words) are consolidated here so the recognizer, translation
// providers, and CLI agree on one table.
package language
