package ledger

import "errors"

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrDuplicateRegistration = errors.New("student already registered for this session")
	ErrNotRegistered         = errors.New("no registration to withdraw")
	ErrAlreadyConfirmed      = errors.New("already holds a confirmed spot")
	ErrCapacityExceeded      = errors.New("no spots remaining")
	ErrEventClosed           = errors.New("event is inactive or has ended")
	ErrMentorsOnly           = errors.New("meetings accept mentor sign-ups only")
	ErrNoWaitlist            = errors.New("meetings have no waitlist")
)
