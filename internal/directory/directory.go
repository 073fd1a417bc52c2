// Package directory adapts the host's permission-group and account-linking
// services for notification rendering. Lookups never fail upward: errors and
// absent data degrade to documented placeholder strings so a broken lookup
// can cost at most a less informative notification.
package directory

import (
	"context"

	"go.uber.org/zap"

	"github.com/cmdrelay/cmdrelay/internal/types"
)

// Placeholder values substituted when a lookup degrades.
const (
	GroupUnavailable = "Error fetching group"
	GroupMissing     = "No group"
	NotLinked        = "Not linked"
)

// Directory is a read-only view over the group and link services.
type Directory struct {
	logger *zap.Logger
	groups types.GroupService
	links  types.LinkService
}

// New creates a Directory. Either service may be nil, in which case its
// lookups always degrade.
func New(groups types.GroupService, links types.LinkService, logger *zap.Logger) *Directory {
	return &Directory{
		logger: logger.Named("directory"),
		groups: groups,
		links:  links,
	}
}

// Group returns the actor's primary permission group, GroupMissing when the
// actor has none, or GroupUnavailable when the lookup fails.
func (d *Directory) Group(ctx context.Context, actor types.ActorID) string {
	if d.groups == nil {
		return GroupMissing
	}
	group, err := d.groups.PrimaryGroup(ctx, actor)
	if err != nil {
		d.logger.Warn("Group lookup failed",
			zap.String("actor", string(actor)),
			zap.Error(err),
		)
		return GroupUnavailable
	}
	if group == "" {
		return GroupMissing
	}
	return group
}

// Mention returns the actor's linked-account mention string, or NotLinked
// when the actor has no link or the lookup fails.
func (d *Directory) Mention(ctx context.Context, actor types.ActorID) string {
	if d.links == nil {
		return NotLinked
	}
	mention, err := d.links.Mention(ctx, actor)
	if err != nil {
		d.logger.Warn("Account link lookup failed",
			zap.String("actor", string(actor)),
			zap.Error(err),
		)
		return NotLinked
	}
	if mention == "" {
		return NotLinked
	}
	return mention
}
