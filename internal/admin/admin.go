// Package admin implements the agent's administrative command surface. The
// only runtime command is "reload", which re-reads the configuration file
// without restarting the agent.
package admin

import (
	"go.uber.org/zap"

	"github.com/cmdrelay/cmdrelay/internal/config"
)

// ReloadPermission gates the reload subcommand.
const ReloadPermission = "cmdrelay.admin.reload"

const (
	usageMessage      = "Usage: /cmdrelay reload"
	noPermissionReply = "You do not have permission to reload this agent."
	reloadOKReply     = "Configuration reloaded successfully!"
	reloadFailedReply = "Configuration reload failed; the previous configuration is still active."
	unknownSubcommand = "Unknown subcommand. " + usageMessage
)

// Issuer is whoever invoked the administrative command.
type Issuer interface {
	// Name identifies the issuer for the audit log.
	Name() string

	// HasPermission reports whether the issuer holds the permission node.
	HasPermission(node string) bool

	// Reply sends a message back to the issuer.
	Reply(text string)
}

// Command handles administrative subcommands.
type Command struct {
	logger *zap.Logger
	store  *config.Store
}

// NewCommand creates the administrative command handler.
func NewCommand(store *config.Store, logger *zap.Logger) *Command {
	return &Command{
		logger: logger.Named("admin"),
		store:  store,
	}
}

// Execute runs one administrative invocation. All failure modes reply to the
// issuer; nothing propagates.
func (c *Command) Execute(issuer Issuer, args []string) {
	if len(args) == 0 {
		issuer.Reply(usageMessage)
		return
	}

	switch args[0] {
	case "reload":
		c.reload(issuer)
	default:
		issuer.Reply(unknownSubcommand)
	}
}

func (c *Command) reload(issuer Issuer) {
	if !issuer.HasPermission(ReloadPermission) {
		issuer.Reply(noPermissionReply)
		return
	}

	if err := c.store.Reload(); err != nil {
		c.logger.Error("Configuration reload failed",
			zap.String("issuer", issuer.Name()),
			zap.Error(err),
		)
		issuer.Reply(reloadFailedReply)
		return
	}

	c.logger.Info("Configuration reloaded", zap.String("issuer", issuer.Name()))
	issuer.Reply(reloadOKReply)
}
