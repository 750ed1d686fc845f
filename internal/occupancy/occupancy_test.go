package occupancy

import "testing"

func TestCapacitySplit(t *testing.T) {
	tests := []struct {
		name        string
		occ         Occupancy
		wantMentor  int
		wantStudent int
	}{
		{"even session", Occupancy{Capacity: 30}, 15, 15},
		{"odd session rounds mentors down", Occupancy{Capacity: 31}, 15, 16},
		{"capacity one", Occupancy{Capacity: 1}, 0, 1},
		{"zero capacity", Occupancy{Capacity: 0}, 0, 0},
		{"meeting takes full capacity", Occupancy{Capacity: 10, MentorOnly: true}, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.occ.MentorCapacity(); got != tt.wantMentor {
				t.Errorf("MentorCapacity() = %d, want %d", got, tt.wantMentor)
			}
			if got := tt.occ.StudentCapacity(); got != tt.wantStudent {
				t.Errorf("StudentCapacity() = %d, want %d", got, tt.wantStudent)
			}
		})
	}
}

func TestSpotsRemaining(t *testing.T) {
	occ := Occupancy{Capacity: 30, ConfirmedMentors: 10, ConfirmedStudents: 15}

	if got := occ.SpotsRemaining(PerspectiveMentor); got != 5 {
		t.Errorf("mentor spots = %d, want 5", got)
	}
	if got := occ.SpotsRemaining(PerspectiveStudent); got != 0 {
		t.Errorf("student spots = %d, want 0", got)
	}
	if occ.HasRoom(PerspectiveStudent) {
		t.Error("full student pool should not have room")
	}
	if !occ.HasRoom(PerspectiveMentor) {
		t.Error("mentor pool should have room")
	}
}

func TestSpotsRemainingCanGoNegative(t *testing.T) {
	// Admin overrides can over-enroll; remaining goes negative and room stays
	// closed, it never wraps back to available.
	occ := Occupancy{Capacity: 10, ConfirmedStudents: 7}
	if got := occ.SpotsRemaining(PerspectiveStudent); got != -2 {
		t.Errorf("SpotsRemaining() = %d, want -2", got)
	}
	if occ.HasRoom(PerspectiveStudent) {
		t.Error("over-enrolled pool should not have room")
	}
}

func TestPercentFull(t *testing.T) {
	tests := []struct {
		name string
		occ  Occupancy
		p    Perspective
		want float64
	}{
		{"half full", Occupancy{Capacity: 30, ConfirmedStudents: 9}, PerspectiveStudent, 60},
		{"zero capacity reports zero", Occupancy{Capacity: 0}, PerspectiveStudent, 0},
		{"capacity one has no mentor pool", Occupancy{Capacity: 1, ConfirmedMentors: 3}, PerspectiveMentor, 0},
		{"over-enrolled clamps to 100", Occupancy{Capacity: 10, ConfirmedStudents: 9}, PerspectiveStudent, 100},
		{"meeting mentors", Occupancy{Capacity: 10, ConfirmedMentors: 5, MentorOnly: true}, PerspectiveMentor, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.occ.PercentFull(tt.p); got != tt.want {
				t.Errorf("PercentFull() = %v, want %v", got, tt.want)
			}
		})
	}
}
