package domain

// Domain contains the typed views of the vendor's loose JSON payloads that
// the tracker works with. Fields not listed here are ignored on decode; the
// API facade itself stays pass-through.

// Pet is one tracked animal on the account.
type Pet struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

// DailySummary is a per-day activity record for a pet.
type DailySummary struct {
	ActivityGoal  int     `json:"activity_goal"`
	MinutesActive int     `json:"minutes_active"`
	MinutesRest   int     `json:"minutes_rest"`
	Calories      float64 `json:"calories"`
	Distance      float64 `json:"distance"`
	DayNumber     int     `json:"day_number"`
	Excluded      bool    `json:"excluded"`
	Timestamp     string  `json:"timestamp"`
	UpdatedAt     string  `json:"updated_at"`
}
