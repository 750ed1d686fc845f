// Package occupancy implements the capacity accounting for sessions and
// meetings. A session's capacity is split between mentor slots and student
// slots; a meeting's capacity is mentors only. All functions are pure so
// both the ledger and the calendar can share them.
package occupancy

// Perspective selects which slot pool a viewer counts against. Mentors see
// mentor slots; guardians, students, and anonymous viewers see student slots.
type Perspective int

const (
	PerspectiveStudent Perspective = iota
	PerspectiveMentor
)

// Occupancy is a snapshot of an event's capacity and confirmed membership.
type Occupancy struct {
	Capacity          int
	ConfirmedMentors  int
	ConfirmedStudents int
	// MentorOnly is true for meetings: the full capacity belongs to mentors
	// and there are no student slots.
	MentorOnly bool
}

// MentorCapacity returns the number of mentor slots: half the capacity
// (rounded down) for a session, the full capacity for a meeting.
func (o Occupancy) MentorCapacity() int {
	if o.MentorOnly {
		return o.Capacity
	}
	return o.Capacity / 2
}

// StudentCapacity returns the number of student slots. Zero for meetings.
func (o Occupancy) StudentCapacity() int {
	if o.MentorOnly {
		return 0
	}
	return o.Capacity - o.MentorCapacity()
}

// SpotsRemaining returns the open slots for the given perspective. The result
// may be negative when an event is over-enrolled by administrative override;
// callers clamp for display only, never for eligibility.
func (o Occupancy) SpotsRemaining(p Perspective) int {
	if p == PerspectiveMentor {
		return o.MentorCapacity() - o.ConfirmedMentors
	}
	return o.StudentCapacity() - o.ConfirmedStudents
}

// HasRoom reports whether a new confirmation is eligible for the perspective.
func (o Occupancy) HasRoom(p Perspective) bool {
	return o.SpotsRemaining(p) > 0
}

// PercentFull returns how full the perspective's slot pool is, in [0, 100].
// A zero-capacity pool reports 0 rather than dividing by zero.
func (o Occupancy) PercentFull(p Perspective) float64 {
	var total, used int
	if p == PerspectiveMentor {
		total, used = o.MentorCapacity(), o.ConfirmedMentors
	} else {
		total, used = o.StudentCapacity(), o.ConfirmedStudents
	}
	if total <= 0 {
		return 0
	}
	pct := float64(used) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
