// Package classifier turns raw server feedback text into a command outcome.
//
// # Contract
//
// The Classifier:
//  1. Strips legacy formatting codes (section-sign sequences) from the text
//  2. Matches the cleaned text case-insensitively against a denial-phrase set
//  3. Returns OutcomeNoPermission on a denial match, OutcomeUnknown when the
//     text mentions an unknown command, otherwise reports "not classifying"
//
// The phrase set is data, not code: callers may supply a localized set and
// the default set is exported for reuse.
//
// ExtractText is the boundary adapter for intercepted chat packets. It
// understands only the trivial {"text":"..."} component form; any richer
// component falls back to the packet's plain string field, and any failure
// yields "" which the correlator treats as "no signal". It never fails.
package classifier
