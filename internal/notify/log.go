package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPublisher writes notifications to the application log. It stands in for
// the Kafka publisher in environments without a broker.
type LogPublisher struct {
	Logger zerolog.Logger
}

// Publish logs the notification at info level.
func (p LogPublisher) Publish(_ context.Context, n MatchNotification) error {
	p.Logger.Info().
		Str("match_id", n.MatchID).
		Str("supplier_id", n.SupplierID).
		Str("requester_id", n.RequesterID).
		Str("headline", n.Headline()).
		Msg("match notification")
	return nil
}
