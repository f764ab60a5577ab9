// Package translation turns transcript segments into a target language through
// an ordered chain of fallback providers.
//
// Chain tries each Provider in order and returns the first non-empty result.
// Providers that only accept a few source languages declare it through
// Capability; the chain substitutes their default source instead of skipping
// them. When every provider fails the original text is returned, so
// translation never blocks subtitle output.
//
// SegmentTranslator applies a Chain to every segment of a transcript. Segments
// are isolated from each other: one segment exhausting the chain keeps its
// original text and the rest continue. Timing and order are never altered.
package translation
