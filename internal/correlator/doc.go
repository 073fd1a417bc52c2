// Package correlator runs the race between server feedback and the
// post-command wait window, and resolves exactly one outcome per command.
//
// # Contract
//
// The Engine, per triggering event:
//  1. Arm — insert a Pending record for the actor (superseding any earlier
//     one) and schedule a deadline after the configured wait window
//  2. Classify — zero or more feedback signals race in; the first one the
//     classifier recognizes wins the record's single outcome slot, later
//     ones are dropped
//  3. Deadline — take the record back (no-op when it was superseded or the
//     actor disconnected); if still Pending, fall back to the known-command
//     directory: unknown label → unknown-command, missing base permission →
//     no-permission, otherwise executed; then notify exactly once
//  4. Disconnect — drop the actor's record; an already-scheduled deadline
//     observes the removal and stays silent
//
// The deadline is a non-blocking timer. Classification, directory, and
// lookup failures degrade locally (no signal / unknown command / placeholder
// strings) and never escape an event handler.
//
// # Rate Limiting
//
// Feedback signals are token-bucket limited to 100/second; excess signals
// are dropped with a metric.
package correlator
