package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kaichat/internal/models"
)

// Service stores and looks up assistant-managed calendar events.
type Service struct {
	db *sql.DB
}

// ErrEventNotFound reports a find miss.
var ErrEventNotFound = errors.New("event not found")

const defaultWindow = 30 * 24 * time.Hour

// NewService builds a calendar service on the relay store.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// AddEvent inserts an event and returns the stored record. Annual leave
// entries get the green color id unless the caller chose one.
func (s *Service) AddEvent(ctx context.Context, ev models.CalendarEvent) (*models.CalendarEvent, error) {
	ev.Summary = strings.TrimSpace(ev.Summary)
	if ev.Summary == "" {
		return nil, errors.New("summary is required")
	}
	if ev.StartsAt.IsZero() {
		return nil, errors.New("start time is required")
	}
	if ev.EndsAt.IsZero() || !ev.EndsAt.After(ev.StartsAt) {
		ev.EndsAt = ev.StartsAt.Add(time.Hour)
	}
	if ev.ColorID == "" && strings.Contains(strings.ToLower(ev.Summary), "annual leave") {
		ev.ColorID = "10"
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO calendar_events (summary, location, description, starts_at, ends_at, color_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.Summary, ev.Location, ev.Description, ev.StartsAt.UTC(), ev.EndsAt.UTC(), ev.ColorID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("event id: %w", err)
	}
	ev.ID = id
	ev.CreatedAt = now
	return &ev, nil
}

// UpcomingEvents lists events in the next 30 days, or within the named month
// ("October" or "2025-12").
func (s *Service) UpcomingEvents(ctx context.Context, month string) ([]models.CalendarEvent, error) {
	now := time.Now().UTC()
	start, end := now, now.Add(defaultWindow)
	if month != "" {
		var err error
		start, end, err = monthBounds(month, now)
		if err != nil {
			return nil, err
		}
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, summary, location, description, starts_at, ends_at, color_id, created_at
		 FROM calendar_events WHERE starts_at >= ? AND starts_at < ? ORDER BY starts_at ASC LIMIT 50`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.CalendarEvent
	for rows.Next() {
		var ev models.CalendarEvent
		if err := rows.Scan(&ev.ID, &ev.Summary, &ev.Location, &ev.Description,
			&ev.StartsAt, &ev.EndsAt, &ev.ColorID, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// FindEvent returns the first upcoming event whose summary contains the
// search term, case-insensitive.
func (s *Service) FindEvent(ctx context.Context, term string) (*models.CalendarEvent, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New("search term is required")
	}
	events, err := s.UpcomingEvents(ctx, "")
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(term)
	for i := range events {
		if strings.Contains(strings.ToLower(events[i].Summary), lower) {
			return &events[i], nil
		}
	}
	return nil, ErrEventNotFound
}

// FormatEventSummary renders an event for conversation output. details adds
// location and description lines.
func FormatEventSummary(ev *models.CalendarEvent, details bool) string {
	if ev == nil {
		return ""
	}
	basic := fmt.Sprintf("Event: %s\nFrom: %s\nTo: %s",
		ev.Summary,
		ev.StartsAt.Format(time.RFC3339),
		ev.EndsAt.Format(time.RFC3339),
	)
	if !details {
		return basic
	}
	location := ev.Location
	if location == "" {
		location = "No location provided"
	}
	description := ev.Description
	if description == "" {
		description = "No agenda or notes."
	}
	return fmt.Sprintf("%s\nLocation: %s\nAgenda: %s", basic, location, description)
}

// monthBounds resolves "October" (current year) or "2025-12" to its first day
// and the first day of the following month.
func monthBounds(month string, now time.Time) (time.Time, time.Time, error) {
	year := now.Year()
	parsed, err := time.Parse("January", month)
	if err != nil {
		parsed, err = time.Parse("2006-01", month)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("month must be like 'October' or '2025-12'")
		}
		year = parsed.Year()
	}
	start := time.Date(year, parsed.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}
