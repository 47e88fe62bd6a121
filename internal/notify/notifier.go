// Package notify delivers outbound notifications to the surrounding
// application. Delivery is fire-and-forget: it happens after the triggering
// transaction commits and a failure is logged, never propagated.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	platformredis "wardbook/internal/platform/redis"
	"wardbook/pkg/platform/circuit"
)

// Event is an outbound notification.
type Event struct {
	Kind       string    `json:"kind"`
	FeeTypeID  string    `json:"fee_type_id,omitempty"`
	FeeType    string    `json:"fee_type,omitempty"`
	UnitPrice  int64     `json:"unit_price,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// KindMandatoryFeeActivated announces a newly activated mandatory fee type
// so the application can notify households of the new charge.
const KindMandatoryFeeActivated = "mandatory_fee_activated"

// Notifier publishes events to the surrounding application.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// RedisNotifier publishes events on a redis channel.
type RedisNotifier struct {
	client  *platformredis.Client
	channel string
}

func NewRedisNotifier(client *platformredis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = "wardbook:notifications"
	}
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// LogNotifier logs events instead of delivering them. Used when redis is not
// configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Publish(ctx context.Context, event Event) error {
	n.logger.InfoContext(ctx, "notification",
		"kind", event.Kind,
		"fee_type_id", event.FeeTypeID,
	)
	return nil
}

// Resilient wraps a primary notifier with a circuit breaker and a fallback.
// Events that fail to reach the primary channel are delivered to the fallback
// instead, so a redis outage degrades to log delivery rather than silence.
type Resilient struct {
	primary  Notifier
	fallback Notifier
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewResilient(primary, fallback Notifier, logger *slog.Logger) *Resilient {
	return &Resilient{
		primary:  primary,
		fallback: fallback,
		breaker:  circuit.New("notify", circuit.WithFailureThreshold(3)),
		logger:   logger,
	}
}

func (n *Resilient) Publish(ctx context.Context, event Event) error {
	err := n.primary.Publish(ctx, event)
	if err != nil {
		if _, change := n.breaker.RecordFailure(); change.Opened {
			n.logger.WarnContext(ctx, "notification channel unhealthy, delivering via fallback",
				"breaker", n.breaker.Name(),
				"error", err.Error(),
			)
		}
		return n.fallback.Publish(ctx, event)
	}
	if _, change := n.breaker.RecordSuccess(); change.Closed {
		n.logger.InfoContext(ctx, "notification channel recovered", "breaker", n.breaker.Name())
	}
	return nil
}

// Capture collects events in memory for tests.
type Capture struct {
	mu     sync.Mutex
	events []Event
}

func NewCapture() *Capture {
	return &Capture{}
}

func (c *Capture) Publish(_ context.Context, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (c *Capture) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}
