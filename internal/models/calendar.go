package models

import "time"

// CalendarEvent is a calendar entry the assistant can create and look up.
type CalendarEvent struct {
	ID          int64     `json:"id"`
	Summary     string    `json:"summary"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	ColorID     string    `json:"color_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
