package publishers

import (
	"fmt"
	"time"

	"github.com/pawsignal-hq/whistle-tracker/internal/domain"
)

// Kinds of published events.
const KindDailySummary = "daily_summary"

// Event represents the payload published downstream when the tracker observes
// new pet activity.
type Event struct {
	PetID       int64               `json:"pet_id"`
	PetName     string              `json:"pet_name"`
	Kind        string              `json:"kind"`
	Daily       domain.DailySummary `json:"daily"`
	CollectedAt time.Time           `json:"collected_at"`
}

// NewDailyEvent constructs an Event for a freshly observed daily summary.
func NewDailyEvent(pet domain.Pet, daily domain.DailySummary) Event {
	return Event{
		PetID:       pet.ID,
		PetName:     pet.Name,
		Kind:        KindDailySummary,
		Daily:       daily,
		CollectedAt: time.Now().UTC(),
	}
}

// DedupeKey identifies this observation for the seen-event ledger. UpdatedAt
// participates so a revised summary publishes again.
func (e Event) DedupeKey() string {
	return fmt.Sprintf("%s/%d/%d/%s", e.Kind, e.PetID, e.Daily.DayNumber, e.Daily.UpdatedAt)
}

// petIDAttribute is the message attribute value attached by queue sinks.
func (e Event) petIDAttribute() string {
	return fmt.Sprintf("%d", e.PetID)
}
