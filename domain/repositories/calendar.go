package repositories

import (
	"context"
	"time"

	"github.com/satriahrh/voxcal/domain/entities"
)

// Calendar abstracts the calendar provider used by the agent tools.
// Times are wall-clock values; implementations interpret them in the calendar's own time zone.
type Calendar interface {
	CheckAvailability(ctx context.Context, start time.Time, duration time.Duration) (bool, error)
	ListEvents(ctx context.Context, date time.Time) ([]entities.CalendarEvent, error)
	CreateEvent(ctx context.Context, start time.Time, duration time.Duration, title, description string) (string, error)
}
