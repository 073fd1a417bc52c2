// Package registry holds the in-flight command records the correlator races
// over.
//
// # Contract
//
// The Registry:
//  1. Arm inserts a fresh Pending record for an actor, replacing any existing
//     record (a newer command supersedes an older one still in flight)
//  2. Classify transitions a record's outcome away from Pending exactly once
//     (compare-and-set: the first classifying signal wins, later ones no-op)
//  3. Take removes a record only if the registry still holds that exact
//     record, making it safe for a deadline callback to detect that its
//     record was superseded or removed while the timer was in flight
//  4. Remove unconditionally drops an actor's record (disconnect)
//
// All operations are safe under concurrent use from the trigger, feedback,
// timer, and disconnect paths. The registry is the single source of truth for
// "is this command still live": exactly one of Take or Remove consumes each
// record, so at most one notification can follow from it.
package registry
