// Package apply drives the multi-step Easy Apply flow of a single posting:
// it fills every step, advances, detects validation errors and confirms the
// final submission.
package apply

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/easy-applier/internal/answer"
	"github.com/spigell/easy-applier/internal/dom"
	"github.com/spigell/easy-applier/internal/form"
	"github.com/spigell/easy-applier/internal/listing"
	"github.com/spigell/easy-applier/internal/logger"
	"github.com/spigell/easy-applier/internal/pacing"
	"github.com/spigell/easy-applier/internal/profile"
)

// DefaultMaxSteps bounds the number of form steps of one flow.
const DefaultMaxSteps = 12

var (
	startControl   = dom.Class("jobs-apply-button")
	modalContent   = dom.Class("jobs-easy-apply-modal__content")
	primaryActions = []dom.Selector{
		dom.CSS(".jobs-easy-apply-modal .artdeco-button--primary"),
		dom.Class("artdeco-button--primary"),
	}
	modalDismiss  = dom.Class("artdeco-modal__dismiss")
	discardButton = dom.Class("artdeco-modal__confirm-dialog-btn")
	// closeProbes are tried in order after the final submit; at least one must
	// be clicked for the submission to count.
	closeProbes = []dom.Selector{
		modalDismiss,
		dom.Class("artdeco-toast-item__dismiss"),
		dom.CSS(`button[data-control-name="save_application_btn"]`),
	}
	hirerLink = dom.CSS(".hirer-card__hirer-information a")
)

// Resolver answers a classified question.
type Resolver interface {
	Resolve(ctx context.Context, q *form.Question) answer.Resolution
}

// ContactSink receives hiring contacts discovered after submission.
type ContactSink interface {
	Contact(posting *listing.Posting, profileURL string) error
}

type Config struct {
	MaxSteps int
	Profile  *profile.Profile
}

type Deps struct {
	Page      dom.Page
	Resolver  Resolver
	Scheduler pacing.Scheduler
	Contacts  ContactSink
	Logger    *zap.Logger
}

// Machine runs apply sessions one at a time.
type Machine struct {
	cfg  Config
	deps Deps
}

// New creates a machine.
func New(cfg Config, deps Deps) *Machine {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Profile == nil {
		cfg.Profile = &profile.Profile{}
	}
	if deps.Scheduler == nil {
		deps.Scheduler = pacing.None{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Machine{cfg: cfg, deps: deps}
}

// Apply runs the flow for the posting currently open in the page. A posting
// without an apply flow yields OutcomeNoApplyAvailable and no error. Every
// other failure ends the session in StateAborted and is returned; it never
// concerns anything but this posting.
func (m *Machine) Apply(ctx context.Context, posting *listing.Posting) (*Session, error) {
	s := newSession(posting)
	log := logger.WithListing(m.deps.Logger, posting.URL, posting.Company, posting.Title).
		With(zap.String(logger.FieldSession, s.ID))

	start, err := m.deps.Page.FindOne(ctx, nil, startControl)
	if err != nil {
		if errors.Is(err, dom.ErrNotFound) {
			log.Info("posting has no easy apply flow")
			s.Outcome = OutcomeNoApplyAvailable
			s.Err = ErrNoApply
			m.transition(s, log, StateClosed)
			return s, nil
		}
		return m.abort(s, log, OutcomeApplyFailed, fmt.Errorf("find start control: %w", err))
	}

	if err := m.deps.Page.Click(ctx, start); err != nil {
		return m.abort(s, log, OutcomeApplyFailed, fmt.Errorf("open apply flow: %w", err))
	}
	m.transition(s, log, StateOpened)
	if err := m.deps.Scheduler.AfterAction(ctx); err != nil {
		return m.abort(s, log, OutcomeApplyFailed, err)
	}

	for {
		if s.Step >= m.cfg.MaxSteps {
			m.discard(ctx, log)
			return m.abort(s, log, OutcomeApplyFailed, fmt.Errorf("%d steps: %w", s.Step, ErrTooManySteps))
		}
		s.Step++
		m.transition(s, log, StateStepPending)

		terminal, err := m.runStep(ctx, s, log)
		if err != nil {
			s.Errors++
			if errors.Is(err, ErrValidationRejected) {
				m.transition(s, log, StateStepSubmittedWithError)
			}
			m.discard(ctx, log)
			return m.abort(s, log, OutcomeApplyFailed, fmt.Errorf("step %d: %w", s.Step, err))
		}
		if terminal {
			break
		}
	}

	m.transition(s, log, StateSubmitted)
	if err := m.confirm(ctx, s, log); err != nil {
		return m.abort(s, log, OutcomeAmbiguousSubmission, err)
	}

	s.Outcome = OutcomeSubmitted
	m.transition(s, log, StateClosed)
	log.Info("application submitted", zap.Int("steps", s.Step))
	return s, nil
}

// runStep fills the current step and invokes its primary action. It reports
// whether that action was the final submit.
func (m *Machine) runStep(ctx context.Context, s *Session, log *zap.Logger) (terminal bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing step: %v", r)
		}
	}()

	log = log.With(zap.Int("step", s.Step))

	if err := dom.RetryStale(ctx, func(ctx context.Context) error {
		return m.fillStep(ctx, s, log)
	}); err != nil {
		return false, fmt.Errorf("fill step: %w", err)
	}

	action, _, err := dom.Probe(ctx, m.deps.Page, nil, primaryActions...)
	if err != nil {
		return false, fmt.Errorf("find primary action: %w", err)
	}
	label, err := m.deps.Page.Text(ctx, action)
	if err != nil {
		return false, fmt.Errorf("read primary action: %w", err)
	}
	terminal = strings.Contains(strings.ToLower(label), submitActionText)

	if terminal {
		m.unfollow(ctx, log)
	}

	if err := m.deps.Scheduler.BeforeStep(ctx); err != nil {
		return false, err
	}
	if err := m.deps.Page.Click(ctx, action); err != nil {
		return false, fmt.Errorf("click %q: %w", label, err)
	}
	if err := m.deps.Scheduler.AfterStep(ctx); err != nil {
		return false, err
	}

	phrase, found, err := rejection(ctx, m.deps.Page)
	if err != nil {
		return false, fmt.Errorf("read page: %w", err)
	}
	if found {
		log.Warn("form reported a validation error", zap.String("phrase", phrase))
		return false, fmt.Errorf("%q: %w", phrase, ErrValidationRejected)
	}

	log.Debug("step submitted", zap.String("action", label))
	return terminal, nil
}

// unfollow unticks "follow the company" before the final submit. Failures are
// ignored.
func (m *Machine) unfollow(ctx context.Context, log *zap.Logger) {
	label, err := m.deps.Page.FindOne(ctx, nil, dom.Text("label", unfollowText))
	if err != nil {
		log.Debug("no follow checkbox found")
		return
	}
	if err := m.deps.Page.Click(ctx, label); err != nil {
		log.Debug("failed to unfollow company", zap.Error(err))
	}
}

// discard dismisses the modal and confirms discarding the application. It is
// the only recovery action of a failed flow.
func (m *Machine) discard(ctx context.Context, log *zap.Logger) {
	if err := m.clickIfPresent(ctx, modalDismiss); err != nil {
		log.Warn("failed to dismiss apply modal", zap.Error(err))
		return
	}
	_ = m.deps.Scheduler.AfterAction(ctx)

	if err := m.clickIfPresent(ctx, discardButton); err != nil {
		log.Warn("failed to discard application", zap.Error(err))
		return
	}
	_ = m.deps.Scheduler.AfterAction(ctx)
}

// confirm closes the post-submit notifications and looks for the hiring
// contact.
func (m *Machine) confirm(ctx context.Context, s *Session, log *zap.Logger) error {
	if err := m.deps.Scheduler.AfterStep(ctx); err != nil {
		return err
	}

	closed := false
	for _, sel := range closeProbes {
		if err := m.clickIfPresent(ctx, sel); err != nil {
			log.Debug("notification not dismissed", zap.Stringer("selector", sel), zap.Error(err))
			continue
		}
		closed = true
	}
	if !closed {
		return ErrAmbiguousSubmission
	}

	m.findContact(ctx, s, log)
	return nil
}

func (m *Machine) findContact(ctx context.Context, s *Session, log *zap.Logger) {
	link, err := m.deps.Page.FindOne(ctx, nil, hirerLink)
	if err != nil {
		return
	}
	href, ok, err := m.deps.Page.Attr(ctx, link, "href")
	if err != nil || !ok || href == "" {
		return
	}
	s.Contact = href
	log.Info("hiring contact found", zap.String("contact", href))

	if m.deps.Contacts == nil {
		return
	}
	if err := m.deps.Contacts.Contact(s.Posting, href); err != nil {
		log.Warn("failed to record contact", zap.Error(err))
	}
}

func (m *Machine) clickIfPresent(ctx context.Context, sel dom.Selector) error {
	el, err := m.deps.Page.FindOne(ctx, nil, sel)
	if err != nil {
		return err
	}
	return m.deps.Page.Click(ctx, el)
}

func (m *Machine) transition(s *Session, log *zap.Logger, to State) {
	log.Debug("state changed", zap.Stringer("from", s.State), zap.Stringer("to", to), zap.Int("step", s.Step))
	s.State = to
}

func (m *Machine) abort(s *Session, log *zap.Logger, outcome Outcome, err error) (*Session, error) {
	s.Outcome = outcome
	s.Err = err
	m.transition(s, log, StateAborted)
	log.Warn("application aborted", zap.Stringer("outcome", outcome), zap.Error(err))
	return s, err
}
