package apply

import (
	"errors"

	"github.com/google/uuid"

	"github.com/spigell/easy-applier/internal/answer"
	"github.com/spigell/easy-applier/internal/listing"
)

var (
	// ErrNoApply means the posting has no supported apply flow.
	ErrNoApply = errors.New("no easy apply flow available")
	// ErrValidationRejected means the form reported a validation error after a
	// step was submitted.
	ErrValidationRejected = errors.New("form rejected the answers")
	// ErrAmbiguousSubmission means nothing confirmed the closing of the flow
	// after the final submit.
	ErrAmbiguousSubmission = errors.New("submission could not be confirmed")
	// ErrTooManySteps means the flow did not reach a submit action in time.
	ErrTooManySteps = errors.New("too many steps")
)

// State is a state of the apply flow.
type State int

const (
	StateNew State = iota
	StateOpened
	StateStepPending
	StateStepSubmittedWithError
	StateSubmitted
	StateClosed
	StateAborted
)

var stateNames = map[State]string{
	StateNew:                    "new",
	StateOpened:                 "opened",
	StateStepPending:            "step-pending",
	StateStepSubmittedWithError: "step-submitted-with-error",
	StateSubmitted:              "submitted",
	StateClosed:                 "closed",
	StateAborted:                "aborted",
}

func (s State) String() string {
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateAborted
}

// Outcome is how an attempt concluded.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeSubmitted
	OutcomeNoApplyAvailable
	OutcomeApplyFailed
	OutcomeAmbiguousSubmission
)

var outcomeNames = map[Outcome]string{
	OutcomeUnknown:             "unknown",
	OutcomeSubmitted:           "submitted",
	OutcomeNoApplyAvailable:    "no-apply-available",
	OutcomeApplyFailed:         "apply-failed",
	OutcomeAmbiguousSubmission: "ambiguous-submission",
}

func (o Outcome) String() string {
	return outcomeNames[o]
}

// Session is one apply attempt. It is owned by the Machine until Apply
// returns.
type Session struct {
	ID      string
	Posting *listing.Posting
	Step    int
	State   State
	Outcome Outcome
	// Errors counts the step errors seen during the attempt.
	Errors int
	// Answers lists every question answered, in order.
	Answers []answer.Attempt
	// Contact is the profile URL of the hiring contact, if one was shown.
	Contact string
	Err     error
}

func newSession(posting *listing.Posting) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Posting: posting,
		State:   StateNew,
	}
}
