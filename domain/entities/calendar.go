package entities

// CalendarEvent is the summary of a calendar entry handed to the reasoning engine
type CalendarEvent struct {
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
