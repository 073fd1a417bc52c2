package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultWebhookTimeout    = 10 * time.Second
	defaultWebhookWorkers    = 3
	defaultWebhookBufferSize = 100
	maxErrorBodyBytes        = 2048
	userAgent                = "cmdrelayd/v1"
)

// webhookWork is an internal message sent to the worker pool.
type webhookWork struct {
	ctx      context.Context
	delivery Delivery
}

// WebhookSender delivers notifications by HTTP POST. Each notification is a
// single attempt: failures are logged and dropped, never retried.
type WebhookSender struct {
	httpClient *http.Client
	logger     *zap.Logger
	sendCh     chan webhookWork
	wg         sync.WaitGroup
}

// WebhookSenderConfig holds the configuration for creating a WebhookSender.
type WebhookSenderConfig struct {
	TimeoutSeconds int
	Workers        int
}

// NewWebhookSender creates a WebhookSender.
func NewWebhookSender(logger *zap.Logger, cfg WebhookSenderConfig) *WebhookSender {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookSender{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("webhook-sender"),
		sendCh:     make(chan webhookWork, defaultWebhookBufferSize),
	}
}

// Name implements Sender.
func (ws *WebhookSender) Name() string { return "webhook" }

// Start implements Sender. Launches background workers to drain the send channel.
func (ws *WebhookSender) Start(ctx context.Context) {
	workers := defaultWebhookWorkers
	for i := 0; i < workers; i++ {
		ws.wg.Add(1)
		go ws.worker(ctx)
	}
	ws.logger.Info("Webhook sender started", zap.Int("workers", workers))
}

// Close waits for all workers to finish draining queued notifications.
// Call after the context passed to Start is cancelled.
func (ws *WebhookSender) Close() {
	ws.wg.Wait()
}

// Send implements Sender. Enqueues the delivery for async POSTing.
func (ws *WebhookSender) Send(ctx context.Context, d Delivery) error {
	if _, err := url.Parse(d.URL); err != nil {
		webhookSendTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("invalid webhook URL: %w", err)
	}

	select {
	case ws.sendCh <- webhookWork{ctx: ctx, delivery: d}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		webhookSendTotal.WithLabelValues("dropped").Inc()
		ws.logger.Warn("Webhook send buffer full, dropping notification",
			zap.String("trace_id", d.TraceID))
		return fmt.Errorf("webhook send buffer full")
	}
}

// worker drains the send channel and delivers notifications. On context
// cancellation it drains remaining buffered items before exiting.
func (ws *WebhookSender) worker(ctx context.Context) {
	defer ws.wg.Done()
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case work := <-ws.sendCh:
					drainCtx, cancel := context.WithTimeout(context.Background(), ws.httpClient.Timeout)
					ws.deliver(drainCtx, work.delivery)
					cancel()
				default:
					return
				}
			}
		case work, ok := <-ws.sendCh:
			if !ok {
				return
			}
			ws.deliver(work.ctx, work.delivery)
		}
	}
}

// deliver performs the single POST attempt and logs the result.
func (ws *WebhookSender) deliver(ctx context.Context, d Delivery) {
	body, err := json.Marshal(d.Envelope)
	if err != nil {
		webhookSendTotal.WithLabelValues("error").Inc()
		ws.logger.Error("Webhook payload marshal failed",
			zap.String("trace_id", d.TraceID),
			zap.Error(err),
		)
		return
	}

	start := time.Now()
	status, respBody, err := ws.doPost(ctx, d.URL, body)
	duration := time.Since(start).Seconds()

	switch {
	case err != nil:
		webhookSendTotal.WithLabelValues("error").Inc()
		webhookSendDuration.WithLabelValues("error").Observe(duration)
		ws.logger.Warn("Webhook send failed",
			zap.String("url", RedactURL(d.URL)),
			zap.String("trace_id", d.TraceID),
			zap.Error(err),
		)
	case status >= 400:
		webhookSendTotal.WithLabelValues("error").Inc()
		webhookSendDuration.WithLabelValues("error").Observe(duration)
		ws.logger.Warn("Webhook rejected",
			zap.String("url", RedactURL(d.URL)),
			zap.String("trace_id", d.TraceID),
			zap.Int("status", status),
			zap.String("response", respBody),
		)
	default:
		webhookSendTotal.WithLabelValues("success").Inc()
		webhookSendDuration.WithLabelValues("success").Observe(duration)
		ws.logger.Debug("Webhook sent",
			zap.String("url", RedactURL(d.URL)),
			zap.String("trace_id", d.TraceID),
			zap.Int("status", status),
		)
	}
}

// doPost executes the HTTP POST. Returns the status code and, for failure
// statuses, a bounded slice of the response body for logging.
func (ws *WebhookSender) doPost(ctx context.Context, target string, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return resp.StatusCode, string(snippet), nil
	}
	return resp.StatusCode, "", nil
}

// RedactURL masks credentials in a URL for safe logging. Webhook URLs embed
// their token in the path, so everything past the host is dropped.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.User = nil
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
