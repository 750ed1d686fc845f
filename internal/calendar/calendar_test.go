package calendar

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dojohub/backend/internal/occupancy"
)

func findDay(m Month, day int) (DayCell, bool) {
	for _, week := range m.Weeks {
		for _, cell := range week {
			if cell.Day == day {
				return cell, true
			}
		}
	}
	return DayCell{}, false
}

func TestRenderMonthLayout(t *testing.T) {
	today := time.Date(2024, time.February, 10, 12, 0, 0, 0, time.UTC)
	m := RenderMonth(2024, time.February, nil, today, time.Sunday)

	if m.Year != 2024 || m.Month != time.February {
		t.Fatalf("month = %d-%d", m.Year, m.Month)
	}

	// Leap year: day 29 exists, day 30 does not.
	if _, ok := findDay(m, 29); !ok {
		t.Error("Feb 29 missing in a leap year")
	}
	if _, ok := findDay(m, 30); ok {
		t.Error("Feb 30 should not exist")
	}

	// Feb 1, 2024 is a Thursday: four leading placeholders in a Sunday-first
	// grid.
	first := m.Weeks[0]
	for col := 0; col < 4; col++ {
		if first[col].Day != 0 {
			t.Errorf("col %d = day %d, want placeholder", col, first[col].Day)
		}
	}
	if first[4].Day != 1 {
		t.Errorf("col 4 = day %d, want 1", first[4].Day)
	}

	cell, _ := findDay(m, 10)
	if !cell.Today {
		t.Error("Feb 10 should carry the today marker")
	}
	if cell, _ := findDay(m, 11); cell.Today {
		t.Error("Feb 11 should not carry the today marker")
	}
}

func TestRenderMonthFirstWeekday(t *testing.T) {
	today := time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)
	// May 1, 2023 is a Monday: with a Monday-first grid there is no lead.
	m := RenderMonth(2023, time.May, nil, today, time.Monday)
	if m.Weeks[0][0].Day != 1 {
		t.Errorf("first cell = day %d, want 1", m.Weeks[0][0].Day)
	}
}

func TestRenderMonthSessions(t *testing.T) {
	open := Entry{
		SessionID: uuid.New(),
		Title:     "Web Basics",
		StartsAt:  time.Date(2024, time.February, 3, 10, 0, 0, 0, time.UTC),
		Occupancy: occupancy.Occupancy{Capacity: 10, ConfirmedStudents: 2},
	}
	full := Entry{
		SessionID: uuid.New(),
		Title:     "Robotics",
		StartsAt:  time.Date(2024, time.February, 3, 14, 0, 0, 0, time.UTC),
		Occupancy: occupancy.Occupancy{Capacity: 10, ConfirmedStudents: 5},
	}
	// Listed out of order; the grid sorts by start time.
	m := RenderMonth(2024, time.February, []Entry{full, open}, time.Time{}, time.Sunday)

	cell, ok := findDay(m, 3)
	if !ok {
		t.Fatal("Feb 3 missing")
	}
	if len(cell.Sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(cell.Sessions))
	}
	if cell.Sessions[0].Title != "Web Basics" {
		t.Errorf("first session = %q, want morning class first", cell.Sessions[0].Title)
	}
	if !cell.Sessions[0].Available {
		t.Error("open session should be available")
	}
	if cell.Sessions[1].Available {
		t.Error("session with no student spots left should be unavailable")
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name   string
		in     time.Time
		months int
		want   time.Time
	}{
		{
			"forward",
			time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), 1,
			time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			"back across year",
			time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), -1,
			time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			"clamps to leap february",
			time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), -1,
			time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			"clamps forward",
			time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC), 1,
			time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddMonths(tt.in, tt.months); !got.Equal(tt.want) {
				t.Errorf("AddMonths() = %v, want %v", got, tt.want)
			}
		})
	}
}
