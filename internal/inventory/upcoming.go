package inventory

import (
	"strings"
	"time"

	"github.com/emberline/stockroom/internal/records"
)

// UpcomingEntry is one block of the upcoming events text.
type UpcomingEntry struct {
	ShowID      int64  `json:"show_id"`
	When        string `json:"when"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Upcoming turns shows into upcoming-events entries in the order given.
// Dates render in ctime layout; a missing date renders empty.
func Upcoming(shows []*records.Record) []UpcomingEntry {
	entries := make([]UpcomingEntry, 0, len(shows))
	for _, show := range shows {
		id, _ := show.ID()
		entry := UpcomingEntry{
			ShowID:      id,
			Title:       show.Lookup(records.ShowTitle).Text(),
			Description: show.Lookup(records.ShowDescription).Text(),
		}
		if when, ok := show.Lookup(records.DateTime).Timestamp(); ok {
			entry.When = when.Format(time.ANSIC)
		}
		entries = append(entries, entry)
	}
	return entries
}

// UpcomingText renders entries as date, title and description lines with a
// blank line after each block.
func UpcomingText(entries []UpcomingEntry) string {
	var text strings.Builder
	for _, entry := range entries {
		text.WriteString(entry.When)
		text.WriteString("\n")
		text.WriteString(entry.Title)
		text.WriteString("\n")
		text.WriteString(entry.Description)
		text.WriteString("\n\n")
	}
	return text.String()
}
