package poller

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pawsignal-hq/whistle-tracker/pkg/publishers"
)

// ActivityClient is the slice of the API facade the poller consumes.
type ActivityClient interface {
	Pets(ctx context.Context) (json.RawMessage, error)
	Dailies(ctx context.Context, petID string, startDate, endDate *time.Time) (json.RawMessage, error)
}

// EventPublisher publishes observed activity downstream. It reports how many
// sinks accepted the event alongside any aggregated error.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}
