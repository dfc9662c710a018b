// Package references normalizes reconstructed tables and extracts their
// citation column.
//
// [ProcessCell] cleans up individual cell texts. [SplitReferences] picks the
// column with the most citation markers and moves the markers into a leading
// "References" column, leaving the remaining text in place. [Postprocess]
// runs the whole sequence, transposing tables whose citations sit in the
// header row first.
package references
