package llm

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/voxcal/domain/repositories"
)

// Tool names exposed to the model
const (
	ToolCheckAvailability = "check_calendar_availability"
	ToolEventsForDate     = "get_events_for_date"
	ToolCreateEvent       = "create_event_for_datetime"
	ToolCurrentYear       = "get_current_year"
)

const defaultDurationMinutes = 30

// Accepted date-time layouts, all read as calendar wall-clock time
var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

const dateLayout = "2006-01-02"

// CalendarTools exposes a Calendar to the model as callable functions
type CalendarTools struct {
	calendar repositories.Calendar
	now      func() time.Time
	logger   *zap.Logger
}

// NewCalendarTools creates the tool set
func NewCalendarTools(calendar repositories.Calendar, logger *zap.Logger) *CalendarTools {
	return &CalendarTools{
		calendar: calendar,
		now:      time.Now,
		logger:   logger,
	}
}

// Declarations returns the function declarations sent with every request
func (t *CalendarTools) Declarations() []*genai.FunctionDeclaration {
	dateTime := &genai.Schema{
		Type:        genai.TypeString,
		Description: "Date and time in ISO format without offset, e.g. 2025-10-11T15:30:00",
	}
	duration := &genai.Schema{
		Type:        genai.TypeInteger,
		Description: "Duration in minutes. Defaults to 30.",
	}

	return []*genai.FunctionDeclaration{
		{
			Name:        ToolCheckAvailability,
			Description: "Checks whether a time slot in the user's calendar is free. Returns available=false when it overlaps an existing event.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"date_and_time":    dateTime,
					"duration_minutes": duration,
				},
				Required: []string{"date_and_time"},
			},
		},
		{
			Name:        ToolEventsForDate,
			Description: "Lists the events in the user's calendar on a date, each with title, start_time and end_time.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"date": {
						Type:        genai.TypeString,
						Description: "Date in YYYY-MM-DD format, e.g. 2025-10-11",
					},
				},
				Required: []string{"date"},
			},
		},
		{
			Name:        ToolCreateEvent,
			Description: "Creates an event in the user's calendar.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"date_and_time": dateTime,
					"title": {
						Type:        genai.TypeString,
						Description: "Title of the event",
					},
					"description": {
						Type:        genai.TypeString,
						Description: "Short description of the event",
					},
					"duration_minutes": duration,
				},
				Required: []string{"date_and_time", "title", "description"},
			},
		},
		{
			Name:        ToolCurrentYear,
			Description: "Returns the current year, e.g. 2025.",
		},
	}
}

// Call runs the named tool. Invalid arguments are reported to the model inside the
// result; calendar failures are returned as errors.
func (t *CalendarTools) Call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	t.logger.Info("Calling tool", zap.String("tool", name), zap.Any("args", args))

	switch name {
	case ToolCheckAvailability:
		start, err := dateTimeArg(args, "date_and_time")
		if err != nil {
			return errorResult(err), nil
		}
		duration, err := durationArg(args)
		if err != nil {
			return errorResult(err), nil
		}

		available, err := t.calendar.CheckAvailability(ctx, start, duration)
		if err != nil {
			return nil, err
		}
		return map[string]any{"available": available}, nil

	case ToolEventsForDate:
		raw, err := stringArg(args, "date")
		if err != nil {
			return errorResult(err), nil
		}
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return errorResult(fmt.Errorf("date must be YYYY-MM-DD, got %q", raw)), nil
		}

		events, err := t.calendar.ListEvents(ctx, date)
		if err != nil {
			return nil, err
		}
		return map[string]any{"events": events}, nil

	case ToolCreateEvent:
		start, err := dateTimeArg(args, "date_and_time")
		if err != nil {
			return errorResult(err), nil
		}
		title, err := stringArg(args, "title")
		if err != nil {
			return errorResult(err), nil
		}
		description, _ := args["description"].(string)
		duration, err := durationArg(args)
		if err != nil {
			return errorResult(err), nil
		}

		result, err := t.calendar.CreateEvent(ctx, start, duration, title, description)
		if err != nil {
			return nil, err
		}
		return map[string]any{"result": result}, nil

	case ToolCurrentYear:
		return map[string]any{"year": t.now().UTC().Year()}, nil

	default:
		return errorResult(fmt.Errorf("unknown tool %q", name)), nil
	}
}

func errorResult(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// dateTimeArg parses a wall-clock date-time. Any offset is discarded.
func dateTimeArg(args map[string]any, key string) (time.Time, error) {
	raw, err := stringArg(args, key)
	if err != nil {
		return time.Time{}, err
	}

	for _, layout := range dateTimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%s must be ISO format like 2025-10-11T15:30:00, got %q", key, raw)
}

func durationArg(args map[string]any) (time.Duration, error) {
	minutes := defaultDurationMinutes

	switch v := args["duration_minutes"].(type) {
	case nil:
	case float64:
		minutes = int(v)
	case int:
		minutes = v
	case int32:
		minutes = int(v)
	case int64:
		minutes = int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("duration_minutes must be a number, got %q", v)
		}
		minutes = n
	default:
		return 0, fmt.Errorf("duration_minutes must be a number, got %T", v)
	}

	if minutes <= 0 {
		return 0, fmt.Errorf("duration_minutes must be positive, got %d", minutes)
	}
	return time.Duration(minutes) * time.Minute, nil
}
