package correlator

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cmdrelay/cmdrelay/internal/classifier"
	"github.com/cmdrelay/cmdrelay/internal/config"
	"github.com/cmdrelay/cmdrelay/internal/directory"
	"github.com/cmdrelay/cmdrelay/internal/registry"
	"github.com/cmdrelay/cmdrelay/internal/types"
)

const (
	// Rate limit: 100 feedback signals/second
	feedbackRateLimit = 100
	feedbackRateBurst = 200
)

// Dispatcher delivers one resolved outcome notification.
type Dispatcher interface {
	Notify(ctx context.Context, key string, actor types.Actor, command, mention, group, traceID string)
}

// Source supplies the host's event streams.
type Source interface {
	Triggers() <-chan types.TriggerEvent
	Feedback() <-chan types.FeedbackSignal
	Disconnects() <-chan types.DisconnectEvent
}

// Engine correlates command submissions with server feedback and resolves a
// final outcome for each.
type Engine struct {
	logger     *zap.Logger
	registry   *registry.Registry
	store      *config.Store
	commands   types.KnownCommandDirectory
	directory  *directory.Directory
	dispatcher Dispatcher
	limiter    *rate.Limiter

	// ctx is the engine lifetime, used by deadline callbacks that outlive
	// the event that armed them.
	ctx context.Context

	timerAfter func(time.Duration, func()) *time.Timer

	// classifier cache, keyed by the config snapshot it was built from.
	mu     sync.Mutex
	clsFor *config.Config
	cls    *classifier.Classifier
}

// New creates an Engine. commands may be nil, in which case fallback
// detection always resolves to unknown-command.
func New(reg *registry.Registry, store *config.Store, commands types.KnownCommandDirectory, dir *directory.Directory, dispatcher Dispatcher, logger *zap.Logger) *Engine {
	return &Engine{
		logger:     logger.Named("correlator"),
		registry:   reg,
		store:      store,
		commands:   commands,
		directory:  dir,
		dispatcher: dispatcher,
		limiter:    rate.NewLimiter(feedbackRateLimit, feedbackRateBurst),
		ctx:        context.Background(),
		timerAfter: time.AfterFunc,
	}
}

// Start consumes events from src until the context is cancelled. Deadline
// callbacks scheduled before cancellation may still resolve afterwards; the
// dispatcher's sender owns draining those deliveries.
func (e *Engine) Start(ctx context.Context, src Source) error {
	e.ctx = ctx
	e.logger.Info("Starting correlator")

	triggers := src.Triggers()
	feedback := src.Feedback()
	disconnects := src.Disconnects()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Correlator stopped")
			return nil
		case ev, ok := <-triggers:
			if !ok {
				triggers = nil
				continue
			}
			e.HandleTrigger(ev)
		case sig, ok := <-feedback:
			if !ok {
				feedback = nil
				continue
			}
			e.HandleFeedback(sig)
		case ev, ok := <-disconnects:
			if !ok {
				disconnects = nil
				continue
			}
			e.HandleDisconnect(ev)
		}
	}
}

// HandleTrigger arms a pending record for the actor's command and schedules
// its deadline. A trigger for an actor with a command already in flight
// supersedes the old record; the old deadline will observe the replacement
// and stay silent.
func (e *Engine) HandleTrigger(ev types.TriggerEvent) {
	rec := e.registry.Arm(ev.Actor, ev.Command)
	commandsTracked.Inc()

	wait := e.store.Snapshot().WaitDuration()
	e.timerAfter(wait, func() {
		e.finalize(ev.Actor.ID, rec)
	})

	e.logger.Debug("Command armed",
		zap.String("player", ev.Actor.Name),
		zap.String("command", ev.Command),
		zap.Duration("wait", wait),
		zap.String("trace_id", rec.TraceID),
	)
}

// HandleFeedback classifies one intercepted server message for the actor.
// Signals for actors with no pending record, indeterminate text, and signals
// losing the first-writer race are all dropped.
func (e *Engine) HandleFeedback(sig types.FeedbackSignal) {
	if !e.limiter.Allow() {
		feedbackSignals.WithLabelValues("rate_limited").Inc()
		e.logger.Debug("Feedback signal rate limited", zap.String("actor", string(sig.Actor)))
		return
	}

	text := classifier.ExtractText(sig.Component, sig.Plain)
	if text == "" {
		feedbackSignals.WithLabelValues("empty").Inc()
		return
	}

	outcome, ok := e.classifier().Classify(text)
	if !ok {
		feedbackSignals.WithLabelValues("indeterminate").Inc()
		return
	}

	if e.registry.Classify(sig.Actor, outcome) {
		feedbackSignals.WithLabelValues("classified").Inc()
		e.logger.Debug("Feedback classified command",
			zap.String("actor", string(sig.Actor)),
			zap.String("outcome", outcome.String()),
		)
	} else {
		feedbackSignals.WithLabelValues("ignored").Inc()
	}
}

// HandleDisconnect cancels the actor's pending correlation, if any. No
// notification is sent for a command whose actor left before resolution.
func (e *Engine) HandleDisconnect(ev types.DisconnectEvent) {
	if e.registry.Remove(ev.Actor) {
		e.logger.Debug("Pending command dropped on disconnect",
			zap.String("actor", string(ev.Actor)))
	}
}

// finalize is the deadline callback: it consumes the record, resolves the
// terminal outcome, and notifies exactly once.
func (e *Engine) finalize(actor types.ActorID, rec *registry.Record) {
	if !e.registry.Take(actor, rec) {
		// Superseded by a newer command or removed on disconnect.
		return
	}

	outcome := rec.Outcome()
	if outcome == types.OutcomePending {
		outcome = e.detect(actor, rec.Command)
	}
	commandOutcomes.WithLabelValues(outcome.String()).Inc()

	group := e.directory.Group(e.ctx, actor)
	mention := e.directory.Mention(e.ctx, actor)

	e.dispatcher.Notify(e.ctx, outcome.Key(), rec.Actor, rec.Command, mention, group, rec.TraceID)

	e.logger.Info("Command resolved",
		zap.String("player", rec.Actor.Name),
		zap.String("command", rec.Command),
		zap.String("outcome", outcome.String()),
		zap.String("trace_id", rec.TraceID),
	)
}

// detect is the synchronous fallback when no feedback signal classified the
// command: check the base label against the known-command directory. The
// executed default is deliberately optimistic; sub-permission denials are
// expected to have arrived as feedback already.
func (e *Engine) detect(actor types.ActorID, command string) types.Outcome {
	label := baseLabel(command)
	if label == "" || e.commands == nil {
		return types.OutcomeUnknown
	}

	check, known := e.commands.Lookup(label)
	if !known {
		return types.OutcomeUnknown
	}
	if check != nil && !check(actor) {
		return types.OutcomeNoPermission
	}
	return types.OutcomeExecuted
}

// classifier returns the phrase classifier for the current config snapshot,
// rebuilding it only when the snapshot changed (reload).
func (e *Engine) classifier() *classifier.Classifier {
	cfg := e.store.Snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cls == nil || e.clsFor != cfg {
		e.cls = classifier.New(cfg.DenialPhrases)
		e.clsFor = cfg
	}
	return e.cls
}

// baseLabel extracts a command's lookup label: the first whitespace-delimited
// token, leading slash stripped, case-folded.
func baseLabel(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(fields[0], "/"))
}
