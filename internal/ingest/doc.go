// Package ingest is the host integration layer: a line-delimited JSON TCP
// server the game-server bridge plugin connects to.
//
// # Contract
//
// Inbound message types:
//
//	hello    — replaces the known-command table (label → permission node)
//	join     — upserts an actor roster entry with its permission snapshot
//	move     — refreshes an actor's name, group, and location
//	trigger  — an actor submitted a command
//	feedback — the server produced an outbound message for an actor
//	quit     — an actor's session ended (also evicts the roster entry)
//	admin    — administrative subcommand; replies go back to the sender as
//	           {"type":"message","actorId":...,"text":...} lines
//
// The Server exposes trigger/feedback/disconnect channels (the correlator's
// Source) and backs the engine's KnownCommandDirectory and the directory's
// group/link services from the roster state the host announces.
//
// Malformed lines are logged and skipped. A full event channel drops the
// event with a warning rather than blocking the reader.
package ingest
