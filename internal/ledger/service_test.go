package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dojohub/backend/internal/clock"
	"github.com/dojohub/backend/internal/models"
	"github.com/dojohub/backend/internal/notify"
)

type fakeStore struct {
	events   map[EventRef]Event
	mentors  map[EventRef]map[uuid.UUID]bool
	orders   map[uuid.UUID]map[uuid.UUID]uuid.UUID // sessionID -> studentID -> orderID
	waitlist map[EventRef]map[ActorKind]map[uuid.UUID]bool
}

func newFakeStore(events ...Event) *fakeStore {
	s := &fakeStore{
		events:   make(map[EventRef]Event),
		mentors:  make(map[EventRef]map[uuid.UUID]bool),
		orders:   make(map[uuid.UUID]map[uuid.UUID]uuid.UUID),
		waitlist: make(map[EventRef]map[ActorKind]map[uuid.UUID]bool),
	}
	for _, ev := range events {
		s.events[ev.Ref] = ev
	}
	return s
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeStore) GetEvent(ctx context.Context, ref EventRef) (Event, error) {
	ev, ok := s.events[ref]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return ev, nil
}

func (s *fakeStore) GetEventForUpdate(ctx context.Context, ref EventRef) (Event, error) {
	return s.GetEvent(ctx, ref)
}

func (s *fakeStore) CountConfirmedMentors(ctx context.Context, ref EventRef) (int, error) {
	return len(s.mentors[ref]), nil
}

func (s *fakeStore) CountConfirmedStudents(ctx context.Context, sessionID uuid.UUID) (int, error) {
	return len(s.orders[sessionID]), nil
}

func (s *fakeStore) IsMentorConfirmed(ctx context.Context, ref EventRef, mentorID uuid.UUID) (bool, error) {
	return s.mentors[ref][mentorID], nil
}

func (s *fakeStore) AddConfirmedMentor(ctx context.Context, ref EventRef, mentorID uuid.UUID) error {
	if s.mentors[ref] == nil {
		s.mentors[ref] = make(map[uuid.UUID]bool)
	}
	s.mentors[ref][mentorID] = true
	return nil
}

func (s *fakeStore) RemoveConfirmedMentor(ctx context.Context, ref EventRef, mentorID uuid.UUID) (bool, error) {
	if !s.mentors[ref][mentorID] {
		return false, nil
	}
	delete(s.mentors[ref], mentorID)
	return true, nil
}

func (s *fakeStore) HasOrder(ctx context.Context, studentID, sessionID uuid.UUID) (bool, error) {
	_, ok := s.orders[sessionID][studentID]
	return ok, nil
}

func (s *fakeStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if _, exists := s.orders[order.SessionID][order.StudentID]; exists {
		return ErrDuplicateRegistration
	}
	if s.orders[order.SessionID] == nil {
		s.orders[order.SessionID] = make(map[uuid.UUID]uuid.UUID)
	}
	order.ID = uuid.New()
	s.orders[order.SessionID][order.StudentID] = order.ID
	return nil
}

func (s *fakeStore) DeleteOrder(ctx context.Context, studentID, sessionID uuid.UUID) (bool, error) {
	if _, ok := s.orders[sessionID][studentID]; !ok {
		return false, nil
	}
	delete(s.orders[sessionID], studentID)
	return true, nil
}

func (s *fakeStore) IsWaitlisted(ctx context.Context, ref EventRef, kind ActorKind, subjectID uuid.UUID) (bool, error) {
	return s.waitlist[ref][kind][subjectID], nil
}

func (s *fakeStore) AddToWaitlist(ctx context.Context, ref EventRef, kind ActorKind, subjectID uuid.UUID) error {
	if s.waitlist[ref] == nil {
		s.waitlist[ref] = make(map[ActorKind]map[uuid.UUID]bool)
	}
	if s.waitlist[ref][kind] == nil {
		s.waitlist[ref][kind] = make(map[uuid.UUID]bool)
	}
	s.waitlist[ref][kind][subjectID] = true
	return nil
}

func (s *fakeStore) RemoveFromWaitlist(ctx context.Context, ref EventRef, kind ActorKind, subjectID uuid.UUID) error {
	delete(s.waitlist[ref][kind], subjectID)
	return nil
}

type fakeNotifier struct {
	sent []notify.Message
}

func (n *fakeNotifier) Send(ctx context.Context, msg notify.Message) error {
	n.sent = append(n.sent, msg)
	return nil
}

var testNow = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func sessionEvent(capacity int) Event {
	return Event{
		Ref:      SessionRef(uuid.New()),
		Code:     "WB-101",
		Title:    "Web Basics",
		StartsAt: testNow.Add(48 * time.Hour),
		EndsAt:   testNow.Add(50 * time.Hour),
		Capacity: capacity,
		Active:   true,
	}
}

func meetingEvent(capacity int) Event {
	return Event{
		Ref:      MeetingRef(uuid.New()),
		Title:    "Planning meeting",
		StartsAt: testNow.Add(24 * time.Hour),
		EndsAt:   testNow.Add(26 * time.Hour),
		Capacity: capacity,
		Active:   true,
	}
}

func newTestService(store *fakeStore) (*Service, *fakeNotifier) {
	notifier := &fakeNotifier{}
	return NewService(store, notifier, clock.NewFixed(testNow), nil), notifier
}

func mentor() Actor {
	return MentorActor(models.Mentor{ID: uuid.New(), Email: "mentor@example.com", FirstName: "Max", LastName: "Mentor"})
}

func student() Actor {
	g := models.Guardian{ID: uuid.New(), Email: "guardian@example.com", FirstName: "Gwen", LastName: "Guardian"}
	st := models.Student{ID: uuid.New(), GuardianID: g.ID, FirstName: "Sam", LastName: "Student"}
	return StudentActor(g, st)
}

func TestSignUpMentor(t *testing.T) {
	ev := sessionEvent(10)
	store := newFakeStore(ev)
	svc, notifier := newTestService(store)
	actor := mentor()

	result, err := svc.SignUp(context.Background(), ev.Ref, actor, "1.2.3.4")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if !result.Confirmed {
		t.Error("expected a new confirmation")
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(notifier.sent))
	}
	msg := notifier.sent[0]
	if msg.Recipient != "mentor@example.com" {
		t.Errorf("recipient = %q", msg.Recipient)
	}
	if msg.Template != models.EmailTypeClassConfirmMentor {
		t.Errorf("template = %q", msg.Template)
	}
	if msg.Merge["class_start_date"] != "Sunday, March 3, 2024" {
		t.Errorf("class_start_date = %q", msg.Merge["class_start_date"])
	}

	// Repeating the sign-up is a no-op and sends nothing.
	result, err = svc.SignUp(context.Background(), ev.Ref, actor, "1.2.3.4")
	if err != nil {
		t.Fatalf("repeat SignUp() error = %v", err)
	}
	if result.Confirmed {
		t.Error("repeat sign-up should be a no-op")
	}
	if len(notifier.sent) != 1 {
		t.Errorf("sent %d emails after repeat, want 1", len(notifier.sent))
	}
}

func TestSignUpStudent(t *testing.T) {
	ev := sessionEvent(10)
	store := newFakeStore(ev)
	svc, notifier := newTestService(store)
	actor := student()

	result, err := svc.SignUp(context.Background(), ev.Ref, actor, "1.2.3.4")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if result.OrderID == uuid.Nil {
		t.Error("expected an order id")
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(notifier.sent))
	}
	msg := notifier.sent[0]
	if msg.Template != models.EmailTypeClassConfirmGuardian {
		t.Errorf("template = %q", msg.Template)
	}
	if msg.Merge["student_first_name"] != "Sam" {
		t.Errorf("student_first_name = %q", msg.Merge["student_first_name"])
	}

	// The same student cannot hold two orders for one session.
	if _, err := svc.SignUp(context.Background(), ev.Ref, actor, "1.2.3.4"); !errors.Is(err, ErrDuplicateRegistration) {
		t.Errorf("repeat SignUp() error = %v, want ErrDuplicateRegistration", err)
	}
}

func TestSignUpCapacity(t *testing.T) {
	// Capacity 4 splits into 2 mentor and 2 student slots.
	ev := sessionEvent(4)
	store := newFakeStore(ev)
	svc, notifier := newTestService(store)

	for i := 0; i < 2; i++ {
		if _, err := svc.SignUp(context.Background(), ev.Ref, student(), ""); err != nil {
			t.Fatalf("student %d SignUp() error = %v", i, err)
		}
	}
	if _, err := svc.SignUp(context.Background(), ev.Ref, student(), ""); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("over-capacity SignUp() error = %v, want ErrCapacityExceeded", err)
	}

	// Mentor slots are a separate pool, still open.
	if _, err := svc.SignUp(context.Background(), ev.Ref, mentor(), ""); err != nil {
		t.Errorf("mentor SignUp() error = %v", err)
	}

	// The failed sign-up must not have sent anything.
	if len(notifier.sent) != 3 {
		t.Errorf("sent %d emails, want 3", len(notifier.sent))
	}
}

func TestSignUpClosedEvent(t *testing.T) {
	inactive := sessionEvent(10)
	inactive.Active = false

	ended := sessionEvent(10)
	ended.StartsAt = testNow.Add(-3 * time.Hour)
	ended.EndsAt = testNow.Add(-time.Hour)

	store := newFakeStore(inactive, ended)
	svc, notifier := newTestService(store)

	if _, err := svc.SignUp(context.Background(), inactive.Ref, student(), ""); !errors.Is(err, ErrEventClosed) {
		t.Errorf("inactive event error = %v, want ErrEventClosed", err)
	}
	if _, err := svc.SignUp(context.Background(), ended.Ref, student(), ""); !errors.Is(err, ErrEventClosed) {
		t.Errorf("ended event error = %v, want ErrEventClosed", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("sent %d emails, want 0", len(notifier.sent))
	}
}

func TestSignUpUnknownEvent(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	if _, err := svc.SignUp(context.Background(), SessionRef(uuid.New()), student(), ""); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("error = %v, want ErrEventNotFound", err)
	}
}

func TestSignUpMeeting(t *testing.T) {
	ev := meetingEvent(2)
	store := newFakeStore(ev)
	svc, notifier := newTestService(store)

	if _, err := svc.SignUp(context.Background(), ev.Ref, student(), ""); !errors.Is(err, ErrMentorsOnly) {
		t.Errorf("student on meeting error = %v, want ErrMentorsOnly", err)
	}

	// Meetings give the full capacity to mentors.
	for i := 0; i < 2; i++ {
		if _, err := svc.SignUp(context.Background(), ev.Ref, mentor(), ""); err != nil {
			t.Fatalf("mentor %d SignUp() error = %v", i, err)
		}
	}
	if _, err := svc.SignUp(context.Background(), ev.Ref, mentor(), ""); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("third mentor error = %v, want ErrCapacityExceeded", err)
	}

	if len(notifier.sent) != 2 {
		t.Fatalf("sent %d emails, want 2", len(notifier.sent))
	}
	if notifier.sent[0].Template != models.EmailTypeMeetingConfirmMentor {
		t.Errorf("template = %q", notifier.sent[0].Template)
	}
}

func TestWithdraw(t *testing.T) {
	ev := sessionEvent(10)
	store := newFakeStore(ev)
	svc, notifier := newTestService(store)

	m := mentor()
	st := student()

	if _, err := svc.SignUp(context.Background(), ev.Ref, m, ""); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if _, err := svc.SignUp(context.Background(), ev.Ref, st, ""); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	sentBefore := len(notifier.sent)

	if err := svc.Withdraw(context.Background(), ev.Ref, m); err != nil {
		t.Errorf("mentor Withdraw() error = %v", err)
	}
	if err := svc.Withdraw(context.Background(), ev.Ref, st); err != nil {
		t.Errorf("student Withdraw() error = %v", err)
	}

	// Withdrawing a mentor who never signed up is a silent no-op; a student
	// without an order is an error.
	if err := svc.Withdraw(context.Background(), ev.Ref, mentor()); err != nil {
		t.Errorf("unregistered mentor Withdraw() error = %v", err)
	}
	if err := svc.Withdraw(context.Background(), ev.Ref, student()); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("unregistered student Withdraw() error = %v, want ErrNotRegistered", err)
	}

	if len(notifier.sent) != sentBefore {
		t.Errorf("withdrawal sent email, want none")
	}

	// The freed spots are available again.
	if _, err := svc.SignUp(context.Background(), ev.Ref, st, ""); err != nil {
		t.Errorf("re-SignUp() error = %v", err)
	}
}

func TestToggleWaitlist(t *testing.T) {
	ev := sessionEvent(2) // one mentor slot, one student slot
	store := newFakeStore(ev)
	svc, _ := newTestService(store)
	ctx := context.Background()

	st := student()
	other := student()
	if _, err := svc.SignUp(ctx, ev.Ref, other, ""); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	// The session is full for students; the second one joins the waitlist.
	if _, err := svc.SignUp(ctx, ev.Ref, st, ""); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("SignUp() error = %v, want ErrCapacityExceeded", err)
	}
	if err := svc.ToggleWaitlist(ctx, ev.Ref, st, false); err != nil {
		t.Fatalf("ToggleWaitlist(add) error = %v", err)
	}
	if state, _ := svc.Status(ctx, ev.Ref, st); state != StateWaitlisted {
		t.Errorf("state = %q, want waitlisted", state)
	}

	// Adding again is idempotent; removing twice is too.
	if err := svc.ToggleWaitlist(ctx, ev.Ref, st, false); err != nil {
		t.Errorf("repeat add error = %v", err)
	}
	if err := svc.ToggleWaitlist(ctx, ev.Ref, st, true); err != nil {
		t.Errorf("remove error = %v", err)
	}
	if err := svc.ToggleWaitlist(ctx, ev.Ref, st, true); err != nil {
		t.Errorf("repeat remove error = %v", err)
	}
	if state, _ := svc.Status(ctx, ev.Ref, st); state != StateNotSignedUp {
		t.Errorf("state = %q, want not_signed_up", state)
	}

	// A confirmed actor cannot join the waitlist.
	if err := svc.ToggleWaitlist(ctx, ev.Ref, other, false); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Errorf("confirmed add error = %v, want ErrAlreadyConfirmed", err)
	}

	// Meetings have no waitlist.
	mev := meetingEvent(5)
	store.events[mev.Ref] = mev
	if err := svc.ToggleWaitlist(ctx, mev.Ref, mentor(), false); !errors.Is(err, ErrNoWaitlist) {
		t.Errorf("meeting waitlist error = %v, want ErrNoWaitlist", err)
	}
}

func TestSignUpClearsWaitlist(t *testing.T) {
	ev := sessionEvent(2)
	store := newFakeStore(ev)
	svc, _ := newTestService(store)
	ctx := context.Background()

	st := student()
	if err := svc.ToggleWaitlist(ctx, ev.Ref, st, false); err != nil {
		t.Fatalf("ToggleWaitlist() error = %v", err)
	}
	if _, err := svc.SignUp(ctx, ev.Ref, st, ""); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	state, err := svc.Status(ctx, ev.Ref, st)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if state != StateConfirmed {
		t.Errorf("state = %q, want confirmed", state)
	}
	if waitlisted, _ := store.IsWaitlisted(ctx, ev.Ref, ActorStudent, st.StudentID); waitlisted {
		t.Error("confirmed student still on waitlist")
	}
}

func TestOccupancySnapshot(t *testing.T) {
	ev := sessionEvent(10)
	store := newFakeStore(ev)
	svc, _ := newTestService(store)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, ev.Ref, mentor(), ""); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if _, err := svc.SignUp(ctx, ev.Ref, student(), ""); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	occ, err := svc.Occupancy(ctx, ev.Ref)
	if err != nil {
		t.Fatalf("Occupancy() error = %v", err)
	}
	if occ.ConfirmedMentors != 1 || occ.ConfirmedStudents != 1 {
		t.Errorf("counts = %d/%d, want 1/1", occ.ConfirmedMentors, occ.ConfirmedStudents)
	}
}
