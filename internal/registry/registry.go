package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cmdrelay/cmdrelay/internal/types"
)

// Record is one in-flight command awaiting resolution. The command text and
// actor snapshot are immutable after Arm; only the outcome field transitions,
// at most once, away from Pending.
type Record struct {
	Actor   types.Actor
	Command string

	// TraceID ties the trigger, classify, and finalize log lines together.
	TraceID string

	ArmedAt time.Time

	outcome atomic.Int32
}

// Outcome returns the record's current outcome.
func (r *Record) Outcome() types.Outcome {
	return types.Outcome(r.outcome.Load())
}

// classify attempts the Pending → outcome transition. Returns false when a
// previous signal already won.
func (r *Record) classify(o types.Outcome) bool {
	return r.outcome.CompareAndSwap(int32(types.OutcomePending), int32(o))
}

// Registry is a concurrent-safe store of pending records keyed by actor.
// Single slot per actor: a new Arm for the same actor replaces the old record.
type Registry struct {
	mu      sync.Mutex
	records map[types.ActorID]*Record
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{records: make(map[types.ActorID]*Record)}
}

// Arm inserts a Pending record for the actor's command, replacing any record
// already held for that actor, and returns it. The returned pointer is the
// identity a deadline callback must later present to Take.
func (g *Registry) Arm(actor types.Actor, command string) *Record {
	rec := &Record{
		Actor:   actor,
		Command: command,
		TraceID: uuid.NewString(),
		ArmedAt: time.Now(),
	}

	g.mu.Lock()
	g.records[actor.ID] = rec
	g.mu.Unlock()

	return rec
}

// Classify applies a classifying outcome to the actor's pending record.
// Returns false when the actor has no record or a previous signal already
// resolved it; the caller drops the signal in both cases.
func (g *Registry) Classify(actor types.ActorID, outcome types.Outcome) bool {
	g.mu.Lock()
	rec, exists := g.records[actor]
	g.mu.Unlock()

	if !exists {
		return false
	}
	return rec.classify(outcome)
}

// Take removes the actor's record iff it is still the exact record the caller
// armed. Returns false when the record was removed (disconnect) or replaced
// (superseding command) — the caller must then do nothing. A true return
// grants the caller exclusive ownership of the record.
func (g *Registry) Take(actor types.ActorID, rec *Record) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, exists := g.records[actor]
	if !exists || current != rec {
		return false
	}
	delete(g.records, actor)
	return true
}

// Remove unconditionally drops the actor's record. Returns whether a record
// was present.
func (g *Registry) Remove(actor types.ActorID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, exists := g.records[actor]
	if exists {
		delete(g.records, actor)
	}
	return exists
}

// Len returns the number of in-flight records.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}
