package service

import (
	"time"

	"github.com/sidereusnuntius/portal/internal/domain"
)

// CalendarDay is one cell of a month grid. Blank cells pad the first week; they have Day 0.
type CalendarDay struct {
	Day     int
	Entries []domain.DayOff
}

// Calendar lays a month out in weeks starting on Sunday. The first week is padded with as many blank cells as
// the weekday of the first day of the month, and every entry is attached to its day.
func Calendar(year int, month time.Month, entries []domain.DayOff) []CalendarDay {
	first := time.Date(year, month, 1, 12, 0, 0, 0, time.UTC)
	blanks := int(first.Weekday())
	days := first.AddDate(0, 1, -1).Day()

	cells := make([]CalendarDay, blanks, blanks+days)
	for d := 1; d <= days; d++ {
		cells = append(cells, CalendarDay{Day: d})
	}
	for _, e := range entries {
		if e.Day.Year() != year || e.Day.Month() != month {
			continue
		}
		i := blanks + e.Day.Day() - 1
		cells[i].Entries = append(cells[i].Entries, e)
	}
	return cells
}
