package notifier

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cmdrelay/cmdrelay/internal/config"
	"github.com/cmdrelay/cmdrelay/internal/types"
)

// Dispatcher renders outcome notifications and hands them to the sender.
type Dispatcher struct {
	logger *zap.Logger
	store  *config.Store
	sender Sender

	now func() time.Time
}

// NewDispatcher creates a Dispatcher reading configuration snapshots from
// store and delivering through sender.
func NewDispatcher(store *config.Store, sender Sender, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger.Named("dispatcher"),
		store:  store,
		sender: sender,
		now:    time.Now,
	}
}

// Notify renders and enqueues one notification for the outcome key. Outcomes
// with no configured webhook URL or template are skipped silently. Notify
// never blocks on delivery and never reports delivery errors to the caller.
func (d *Dispatcher) Notify(ctx context.Context, key string, actor types.Actor, command, mention, group, traceID string) {
	cfg := d.store.Snapshot()

	url := cfg.WebhookURL(key)
	if url == "" {
		notificationsSkipped.Inc()
		return
	}
	tpl, ok := cfg.TemplateFor(key)
	if !ok {
		notificationsSkipped.Inc()
		return
	}

	vars := VariablesFor(actor, command, mention, group)
	embed := d.buildEmbed(cfg, tpl, vars)

	delivery := Delivery{
		URL:      url,
		Envelope: Envelope{Embeds: []Embed{embed}},
		TraceID:  traceID,
	}
	if err := d.sender.Send(ctx, delivery); err != nil {
		d.logger.Warn("Notification enqueue failed",
			zap.String("sender", d.sender.Name()),
			zap.String("outcome", key),
			zap.String("trace_id", traceID),
			zap.Error(err),
		)
		return
	}

	d.logger.Debug("Notification dispatched",
		zap.String("outcome", key),
		zap.String("player", actor.Name),
		zap.String("command", command),
		zap.String("trace_id", traceID),
	)
}

// buildEmbed renders the template into an embed, cascading unset template
// fields to the global embed defaults.
func (d *Dispatcher) buildEmbed(cfg *config.Config, tpl config.Template, vars Variables) Embed {
	defaults := cfg.EmbedDefaults

	color := defaults.Color
	if tpl.Color != nil {
		color = *tpl.Color
	}

	embed := Embed{
		Author:      Author{Name: defaults.AuthorName},
		Title:       Render(tpl.Title, vars),
		Description: Render(tpl.Description, vars),
		Color:       color,
	}

	footerText := defaults.FooterText
	if tpl.Footer != nil {
		footerText = *tpl.Footer
	}
	if footerText = Render(footerText, vars); footerText != "" {
		embed.Footer = &Footer{Text: footerText, IconURL: defaults.FooterIconURL}
	}

	if tpl.IncludeThumbnail {
		if url := Render(tpl.ThumbnailURL, vars); url != "" {
			embed.Thumbnail = &Media{URL: url}
		}
	}
	if tpl.IncludeImage {
		if url := Render(tpl.ImageURL, vars); url != "" {
			embed.Image = &Media{URL: url}
		}
	}

	includeTimestamp := defaults.IncludeTimestamp
	if tpl.IncludeTimestamp != nil {
		includeTimestamp = *tpl.IncludeTimestamp
	}
	if includeTimestamp {
		embed.Timestamp = d.now().UTC().Format(time.RFC3339)
	}

	return embed
}
