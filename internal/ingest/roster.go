package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cmdrelay/cmdrelay/internal/types"
)

// rosterEntry is one connected actor as last announced by the host.
type rosterEntry struct {
	actor   types.Actor
	group   string
	mention string
	perms   map[string]struct{}
}

// Roster is the live view of connected actors and the server's command
// table, maintained from bridge messages. It implements the host-capability
// interfaces the correlation core depends on: KnownCommandDirectory,
// GroupService, and LinkService.
type Roster struct {
	mu       sync.RWMutex
	actors   map[types.ActorID]*rosterEntry
	commands map[string]string // command label → base permission node
}

// NewRoster creates an empty Roster.
func NewRoster() *Roster {
	return &Roster{
		actors:   make(map[types.ActorID]*rosterEntry),
		commands: make(map[string]string),
	}
}

// SetCommands replaces the known-command table. Labels are case-folded.
func (r *Roster) SetCommands(commands map[string]string) {
	normalized := make(map[string]string, len(commands))
	for label, node := range commands {
		normalized[strings.ToLower(label)] = node
	}

	r.mu.Lock()
	r.commands = normalized
	r.mu.Unlock()
}

// CommandCount returns the size of the known-command table.
func (r *Roster) CommandCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Upsert records an actor with its group, mention, and permission snapshot.
func (r *Roster) Upsert(actor types.Actor, group, mention string, permissions []string) {
	perms := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		perms[p] = struct{}{}
	}

	r.mu.Lock()
	r.actors[actor.ID] = &rosterEntry{
		actor:   actor,
		group:   group,
		mention: mention,
		perms:   perms,
	}
	r.mu.Unlock()
}

// Update refreshes an actor's mutable fields without touching its permission
// snapshot. Unknown actors are ignored.
func (r *Roster) Update(actor types.Actor, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.actors[actor.ID]
	if !exists {
		return
	}
	entry.actor = actor
	if group != "" {
		entry.group = group
	}
}

// Evict removes an actor from the roster.
func (r *Roster) Evict(id types.ActorID) {
	r.mu.Lock()
	delete(r.actors, id)
	r.mu.Unlock()
}

// Actor returns the roster's view of the actor.
func (r *Roster) Actor(id types.ActorID) (types.Actor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, exists := r.actors[id]
	if !exists {
		return types.Actor{}, false
	}
	return entry.actor, true
}

// HasPermission reports whether the actor's snapshot holds the node. The
// empty node is open to everyone.
func (r *Roster) HasPermission(id types.ActorID, node string) bool {
	if node == "" {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, exists := r.actors[id]
	if !exists {
		return false
	}
	_, held := entry.perms[node]
	return held
}

// Lookup implements types.KnownCommandDirectory.
func (r *Roster) Lookup(label string) (types.PermissionCheck, bool) {
	r.mu.RLock()
	node, known := r.commands[label]
	r.mu.RUnlock()

	if !known {
		return nil, false
	}
	return func(actor types.ActorID) bool {
		return r.HasPermission(actor, node)
	}, true
}

// PrimaryGroup implements types.GroupService. An actor the host never
// announced is a lookup failure; an announced actor without a group returns
// "" for the caller's "No group" degradation.
func (r *Roster) PrimaryGroup(_ context.Context, id types.ActorID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, exists := r.actors[id]
	if !exists {
		return "", fmt.Errorf("actor %s not in roster", id)
	}
	return entry.group, nil
}

// Mention implements types.LinkService. Unknown and unlinked actors both
// yield "" (the caller renders "Not linked").
func (r *Roster) Mention(_ context.Context, id types.ActorID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, exists := r.actors[id]
	if !exists {
		return "", nil
	}
	return entry.mention, nil
}
