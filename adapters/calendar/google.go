package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/satriahrh/voxcal/domain/entities"
)

const (
	localLayout = "2006-01-02T15:04:05"

	// EventCreatedMessage is returned to the agent after a successful insert
	EventCreatedMessage = "Event created successfully"
)

// GoogleCalendar implements repositories.Calendar on the Google Calendar v3 API.
// Wall-clock inputs are placed in the calendar's own time zone, looked up on every call.
type GoogleCalendar struct {
	service    *gcal.Service
	calendarID string
	logger     *zap.Logger
}

// NewGoogleCalendar creates the calendar client. Without options it uses Application Default Credentials.
func NewGoogleCalendar(ctx context.Context, calendarID string, logger *zap.Logger, opts ...option.ClientOption) (*GoogleCalendar, error) {
	if calendarID == "" {
		calendarID = "primary"
	}

	opts = append([]option.ClientOption{option.WithScopes(gcal.CalendarScope)}, opts...)
	service, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &GoogleCalendar{
		service:    service,
		calendarID: calendarID,
		logger:     logger,
	}, nil
}

// CheckAvailability reports whether no event overlaps [start, start+duration)
func (g *GoogleCalendar) CheckAvailability(ctx context.Context, start time.Time, duration time.Duration) (bool, error) {
	loc, err := g.location(ctx)
	if err != nil {
		return false, err
	}

	from := inLocation(start, loc)
	to := from.Add(duration)

	events, err := g.list(ctx, from, to)
	if err != nil {
		return false, err
	}

	g.logger.Info("Checked calendar availability",
		zap.Time("start", from),
		zap.Duration("duration", duration),
		zap.Int("conflicts", len(events)))

	return len(events) == 0, nil
}

// ListEvents returns the events on the given date
func (g *GoogleCalendar) ListEvents(ctx context.Context, date time.Time) ([]entities.CalendarEvent, error) {
	loc, err := g.location(ctx)
	if err != nil {
		return nil, err
	}

	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	to := time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, loc)

	items, err := g.list(ctx, from, to)
	if err != nil {
		return nil, err
	}

	events := make([]entities.CalendarEvent, 0, len(items))
	for _, item := range items {
		events = append(events, entities.CalendarEvent{
			Title:     item.Summary,
			StartTime: eventTime(item.Start),
			EndTime:   eventTime(item.End),
		})
	}

	g.logger.Info("Listed calendar events",
		zap.String("date", from.Format("2006-01-02")),
		zap.Int("count", len(events)))

	return events, nil
}

// CreateEvent inserts an event and returns a confirmation message
func (g *GoogleCalendar) CreateEvent(ctx context.Context, start time.Time, duration time.Duration, title, description string) (string, error) {
	cal, err := g.service.Calendars.Get(g.calendarID).Context(ctx).Do()
	if err != nil {
		return "", err
	}

	end := start.Add(duration)
	event := &gcal.Event{
		Summary:     title,
		Description: description,
		Start: &gcal.EventDateTime{
			DateTime: start.Format(localLayout),
			TimeZone: cal.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(localLayout),
			TimeZone: cal.TimeZone,
		},
	}

	created, err := g.service.Events.Insert(g.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", err
	}

	g.logger.Info("Calendar event created",
		zap.String("title", title),
		zap.String("link", created.HtmlLink))

	return EventCreatedMessage, nil
}

func (g *GoogleCalendar) location(ctx context.Context) (*time.Location, error) {
	cal, err := g.service.Calendars.Get(g.calendarID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cal.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("unknown calendar time zone %q: %w", cal.TimeZone, err)
	}
	return loc, nil
}

func (g *GoogleCalendar) list(ctx context.Context, from, to time.Time) ([]*gcal.Event, error) {
	result, err := g.service.Events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

// inLocation keeps the wall clock of t and attaches loc
func inLocation(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

func eventTime(t *gcal.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}
