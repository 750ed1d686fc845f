// Package calendar renders the month grid for the class schedule. It is a
// pure function of its inputs: the sessions for the month, the reference
// "today", and the configured first weekday. Availability coloring is
// delegated to the occupancy package, always from the student-facing view.
package calendar

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dojohub/backend/internal/occupancy"
)

// Entry is one session feeding the grid. The caller filters to active,
// future-or-current sessions in the requested month.
type Entry struct {
	SessionID uuid.UUID
	Code      string
	Title     string
	URL       string
	StartsAt  time.Time
	Occupancy occupancy.Occupancy
}

// SessionCell is a session link inside a day cell.
type SessionCell struct {
	SessionID uuid.UUID `json:"session_id"`
	Code      string    `json:"code,omitempty"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Available bool      `json:"available"`
}

// DayCell is one grid cell. Day 0 marks a leading or trailing placeholder
// outside the month.
type DayCell struct {
	Day      int           `json:"day"`
	Today    bool          `json:"today"`
	Sessions []SessionCell `json:"sessions,omitempty"`
}

// Month is a 7-column, row-per-week grid.
type Month struct {
	Year  int          `json:"year"`
	Month time.Month   `json:"month"`
	Weeks [][7]DayCell `json:"weeks"`
}

// RenderMonth partitions the entries by start day and lays out the weeks.
// A session cell is available while student spots remain.
func RenderMonth(year int, month time.Month, entries []Entry, today time.Time, firstWeekday time.Weekday) Month {
	byDay := groupByDay(entries)

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	lead := (int(first.Weekday()) - int(firstWeekday) + 7) % 7

	isToday := func(day int) bool {
		return today.Year() == year && today.Month() == month && today.Day() == day
	}

	var weeks [][7]DayCell
	var week [7]DayCell
	col := lead
	for day := 1; day <= daysInMonth; day++ {
		cell := DayCell{Day: day, Today: isToday(day)}
		for _, e := range byDay[day] {
			cell.Sessions = append(cell.Sessions, SessionCell{
				SessionID: e.SessionID,
				Code:      e.Code,
				Title:     e.Title,
				URL:       e.URL,
				Available: e.Occupancy.HasRoom(occupancy.PerspectiveStudent),
			})
		}
		week[col] = cell
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = [7]DayCell{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}

	return Month{Year: year, Month: month, Weeks: weeks}
}

// AddMonths shifts a date by whole months, clamping the day to the target
// month's length (so Jan 31 − 1 month is Dec 31, Mar 31 − 1 is Feb 28/29).
func AddMonths(t time.Time, months int) time.Time {
	year, month := t.Year(), int(t.Month())+months
	for month < 1 {
		month += 12
		year--
	}
	for month > 12 {
		month -= 12
		year++
	}
	day := t.Day()
	if last := daysIn(year, time.Month(month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}

func groupByDay(entries []Entry) map[int][]Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartsAt.Before(sorted[j].StartsAt) })

	byDay := make(map[int][]Entry)
	for _, e := range sorted {
		byDay[e.StartsAt.Day()] = append(byDay[e.StartsAt.Day()], e)
	}
	return byDay
}
