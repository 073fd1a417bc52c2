package types

import "context"

// ActorID is the opaque, session-stable identity of a connected player.
type ActorID string

// Outcome is the resolution state of a tracked command.
type Outcome int32

const (
	OutcomePending      Outcome = iota // no classifying signal observed yet
	OutcomeExecuted                    // command ran (or fell back to optimistic success)
	OutcomeNoPermission                // server denied the command for lack of permission
	OutcomeUnknown                     // server did not recognize the command
)

// String returns the human-readable outcome name for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeExecuted:
		return "executed"
	case OutcomeNoPermission:
		return "no-permission"
	case OutcomeUnknown:
		return "unknown-command"
	default:
		return "invalid"
	}
}

// Key returns the configuration key for a terminal outcome, used to select
// the webhook URL and message template. Pending has no key.
func (o Outcome) Key() string {
	if o == OutcomePending {
		return ""
	}
	return o.String()
}

// Terminal reports whether the outcome is a final resolution.
func (o Outcome) Terminal() bool {
	return o == OutcomeExecuted || o == OutcomeNoPermission || o == OutcomeUnknown
}

// Location is a world position, block-aligned.
type Location struct {
	World string
	X     int
	Y     int
	Z     int
}

// Actor is a connected player as seen by the correlation core.
type Actor struct {
	ID       ActorID
	Name     string
	Location Location
}

// TriggerEvent is raised once per command submission by an actor.
type TriggerEvent struct {
	Actor   Actor
	Command string // full command text, including the leading "/"
}

// DisconnectEvent is raised once when an actor's session ends.
type DisconnectEvent struct {
	Actor ActorID
}

// FeedbackSignal is raised for each outbound chat/system message the server
// would have shown the actor. Component carries the raw rich-text component
// JSON when the host intercepted one; Plain carries the legacy string field.
// Either or both may be empty.
type FeedbackSignal struct {
	Actor     ActorID
	Component string
	Plain     string
}

// PermissionCheck reports whether the actor holds a command's base permission.
type PermissionCheck func(actor ActorID) bool

// KnownCommandDirectory resolves a command's base label to its permission
// check. Supplied by the host integration layer; the correlator consults it
// only when no feedback signal classified the command before the deadline.
type KnownCommandDirectory interface {
	// Lookup returns the permission check for label (lower-case, no leading
	// slash). ok is false when the label names no registered command.
	Lookup(label string) (check PermissionCheck, ok bool)
}

// GroupService resolves an actor's primary permission group.
type GroupService interface {
	PrimaryGroup(ctx context.Context, actor ActorID) (string, error)
}

// LinkService resolves an actor's linked external chat account mention.
type LinkService interface {
	// Mention returns the mention string for the actor's linked account,
	// or "" when the actor has no link.
	Mention(ctx context.Context, actor ActorID) (string, error)
}
