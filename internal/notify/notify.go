// Package notify implements the fire-and-forget notification boundary.
//
// Match creation must never block on, or fail because of, notification
// delivery. The Dispatcher therefore hands events to a buffered queue
// consumed by a single background worker; the worker publishes through a
// Publisher (Kafka in production) and logs failures with its own logger,
// decoupled from the sweep's control flow.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MatchNotification is the payload handed to the notification collaborator
// for every created match.
type MatchNotification struct {
	MatchID     string `json:"matchId"`
	SupplierID  string `json:"supplierId"`
	RequesterID string `json:"requesterId"`
	ItemName    string `json:"itemName"`
	ItemType    string `json:"itemType"`
}

// titleCaser renders item names for human-readable headlines.
var titleCaser = cases.Title(language.English)

// Headline returns the display title for the notification, e.g.
// "New Match: Iphone 13 Battery". Downstream templates may override it;
// it is carried so plain consumers can log something readable.
func (n MatchNotification) Headline() string {
	return "New Match: " + titleCaser.String(n.ItemName)
}

// Publisher delivers a single notification to the external collaborator.
// Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, n MatchNotification) error
}

// Dispatcher queues notifications for asynchronous delivery.
type Dispatcher struct {
	pub     Publisher
	logger  zerolog.Logger
	queue   chan MatchNotification
	timeout time.Duration

	once sync.Once
	wg   sync.WaitGroup
	stop chan struct{}
}

// NewDispatcher constructs a Dispatcher with the given queue capacity.
// Call Start before enqueueing and Close on shutdown to drain the queue.
func NewDispatcher(pub Publisher, logger zerolog.Logger, capacity int) *Dispatcher {
	if capacity <= 0 {
		capacity = 64
	}
	return &Dispatcher{
		pub:     pub,
		logger:  logger,
		queue:   make(chan MatchNotification, capacity),
		timeout: 10 * time.Second,
		stop:    make(chan struct{}),
	}
}

// Start launches the delivery worker. Safe to call once.
func (d *Dispatcher) Start() {
	d.once.Do(func() {
		d.wg.Add(1)
		go d.run()
	})
}

// Enqueue hands a notification to the queue without blocking. When the
// queue is full the event is dropped and logged; delivery is best effort
// and must not back-pressure match creation.
func (d *Dispatcher) Enqueue(n MatchNotification) {
	select {
	case d.queue <- n:
	default:
		d.logger.Warn().
			Str("match_id", n.MatchID).
			Msg("notification queue full, dropping event")
	}
}

// Close stops the worker after draining already-queued events.
func (d *Dispatcher) Close() {
	close(d.stop)
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.queue:
			d.deliver(n)
		case <-d.stop:
			// Drain what is already queued, then exit.
			for {
				select {
				case n := <-d.queue:
					d.deliver(n)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(n MatchNotification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.pub.Publish(ctx, n); err != nil {
		d.logger.Error().
			Err(err).
			Str("match_id", n.MatchID).
			Str("supplier_id", n.SupplierID).
			Str("requester_id", n.RequesterID).
			Msg("match notification delivery failed")
		return
	}
	d.logger.Debug().
		Str("match_id", n.MatchID).
		Str("headline", n.Headline()).
		Msg("match notification dispatched")
}
