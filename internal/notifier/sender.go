package notifier

import "context"

// Delivery is one rendered notification bound for a webhook endpoint.
type Delivery struct {
	URL      string
	Envelope Envelope

	// TraceID ties delivery log lines back to the originating command.
	TraceID string
}

// Sender is the interface for notification delivery channels.
// Implementations own their async delivery and error logging.
type Sender interface {
	// Name returns the sender's identifier (e.g., "webhook").
	Name() string

	// Send enqueues a delivery. It must not block on network I/O.
	Send(ctx context.Context, d Delivery) error

	// Start begins any background workers. Non-blocking.
	Start(ctx context.Context)
}
