package apply

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/easy-applier/internal/answer"
	"github.com/spigell/easy-applier/internal/dom"
	"github.com/spigell/easy-applier/internal/form"
	"github.com/spigell/easy-applier/internal/logger"
)

var (
	addressGroup  = dom.Class("jobs-easy-apply-form-section__grouping")
	contactGroup  = dom.Class("form-group")
	questionGroup = form.GroupSelector
	fileInput     = dom.CSS("input[name='file']")
	phoneInput    = dom.CSS(`input[id*="phoneNumber"][id*="nationalNumber"]`)
)

// section fills one kind of step. It is picked by the step heading.
type section struct {
	name    string
	heading string
	fill    func(m *Machine, ctx context.Context, s *Session, stepForm dom.Element, log *zap.Logger) error
}

// sections are matched in order; a step matching none holds additional
// questions.
var sections = []section{
	{name: "home-address", heading: "home address", fill: (*Machine).homeAddress},
	{name: "contact-info", heading: "contact info", fill: (*Machine).contactInfo},
	{name: "resume", heading: "resume", fill: (*Machine).resume},
}

func (m *Machine) fillStep(ctx context.Context, s *Session, log *zap.Logger) error {
	modal, err := m.deps.Page.FindOne(ctx, nil, modalContent)
	if err != nil {
		log.Debug("apply modal not found", zap.Error(err))
		return nil
	}
	stepForm, err := m.deps.Page.FindOne(ctx, modal, dom.Tag("form"))
	if err != nil {
		log.Debug("step has no form", zap.Error(err))
		return nil
	}

	heading := strings.ToLower(dom.TextOf(ctx, m.deps.Page, stepForm, dom.Tag("h3")))
	for _, sec := range sections {
		if strings.Contains(heading, sec.heading) {
			log.Debug("filling section", zap.String("section", sec.name))
			return sec.fill(m, ctx, s, stepForm, log)
		}
	}
	return m.additionalQuestions(ctx, s, stepForm, log)
}

func (m *Machine) homeAddress(ctx context.Context, _ *Session, stepForm dom.Element, log *zap.Logger) error {
	groups, err := m.deps.Page.FindAll(ctx, stepForm, addressGroup)
	if err != nil {
		return err
	}

	personal := m.cfg.Profile.Personal
	for _, group := range groups {
		label := strings.ToLower(dom.TextOf(ctx, m.deps.Page, group, dom.Tag("label")))
		input, err := m.deps.Page.FindOne(ctx, group, dom.Tag("input"))
		if err != nil {
			continue
		}

		switch {
		case strings.Contains(label, "street"):
			err = m.deps.Page.Write(ctx, input, personal.Street)
		case strings.Contains(label, "city"):
			err = m.typeahead(ctx, input, personal.City)
		case strings.Contains(label, "zip"), strings.Contains(label, "postal"):
			err = m.deps.Page.Write(ctx, input, personal.Zip)
		case strings.Contains(label, "state"), strings.Contains(label, "province"):
			err = m.deps.Page.Write(ctx, input, personal.State)
		default:
			continue
		}
		if err != nil {
			if errors.Is(err, dom.ErrStale) {
				return err
			}
			log.Warn("failed to fill address field", zap.String("label", label), zap.Error(err))
		}
	}
	return nil
}

// typeahead types value and picks the first suggestion.
func (m *Machine) typeahead(ctx context.Context, input dom.Element, value string) error {
	if err := m.deps.Page.Write(ctx, input, value); err != nil {
		return err
	}
	if err := m.deps.Scheduler.AfterAction(ctx); err != nil {
		return err
	}
	if err := m.deps.Page.Press(ctx, input, dom.KeyArrowDown); err != nil {
		return err
	}
	return m.deps.Page.Press(ctx, input, dom.KeyEnter)
}

func (m *Machine) contactInfo(ctx context.Context, _ *Session, stepForm dom.Element, log *zap.Logger) error {
	groups, err := m.deps.Page.FindAll(ctx, stepForm, contactGroup)
	if err != nil {
		return err
	}

	personal := m.cfg.Profile.Personal
	write := func(group dom.Element, sel dom.Selector, value, field string) {
		el, err := m.deps.Page.FindOne(ctx, group, sel)
		if err == nil {
			err = m.deps.Page.Write(ctx, el, value)
		}
		if err != nil {
			log.Warn("could not fill contact field", zap.String("field", field), zap.Error(err))
		}
	}

	for _, group := range groups {
		label := strings.ToLower(dom.TextOf(ctx, m.deps.Page, group, dom.Tag("label")))
		switch {
		case strings.Contains(label, "first name"):
			write(group, dom.ID("first-name"), personal.FirstName, "first name")
		case strings.Contains(label, "last name"):
			write(group, dom.ID("last-name"), personal.LastName, "last name")
		case strings.Contains(label, "phone number"), strings.Contains(label, "country code"):
			picker, err := m.deps.Page.FindOne(ctx, group, dom.ID("country-code"))
			if err == nil && personal.PhoneCountryCode != "" {
				err = m.deps.Page.SelectOption(ctx, picker, personal.PhoneCountryCode)
			}
			if err != nil {
				log.Warn("could not select phone country code", zap.Error(err))
			}
			write(group, phoneInput, personal.Phone, "phone number")
		}
	}
	return nil
}

// resume uploads the resume and, when asked for, the cover letter. Without a
// configured cover letter a required cover letter input gets the resume.
func (m *Machine) resume(ctx context.Context, _ *Session, _ dom.Element, log *zap.Logger) error {
	inputs, err := m.deps.Page.FindAll(ctx, nil, fileInput)
	if err != nil {
		return err
	}

	p := m.cfg.Profile
	for _, input := range inputs {
		purpose := m.uploadPurpose(ctx, input)

		var file string
		switch {
		case strings.Contains(purpose, "resume"):
			file = p.ResumeFile
		case strings.Contains(purpose, "cover"):
			file = p.CoverLetterFile
			if file == "" && strings.Contains(purpose, "required") {
				file = p.ResumeFile
			}
		}
		if file == "" {
			continue
		}

		if err := m.deps.Page.Upload(ctx, input, file); err != nil {
			log.Warn("failed to upload file", zap.String("purpose", purpose), zap.Error(err))
			continue
		}
		log.Debug("file uploaded", zap.String("purpose", purpose), zap.String("file", file))
	}
	return nil
}

// uploadPurpose describes a file input by its label, aria label and id.
func (m *Machine) uploadPurpose(ctx context.Context, input dom.Element) string {
	var parts []string
	if id, ok, _ := m.deps.Page.Attr(ctx, input, "id"); ok && id != "" {
		if label := dom.TextOf(ctx, m.deps.Page, nil, dom.CSS(`label[for="`+id+`"]`)); label != "" {
			parts = append(parts, label)
		}
		parts = append(parts, id)
	}
	if aria, ok, _ := m.deps.Page.Attr(ctx, input, "aria-label"); ok {
		parts = append(parts, aria)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func (m *Machine) additionalQuestions(ctx context.Context, s *Session, stepForm dom.Element, log *zap.Logger) error {
	groups, err := m.deps.Page.FindAll(ctx, stepForm, questionGroup)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		log.Debug("no additional questions found in form")
		return nil
	}

	for _, group := range groups {
		q, err := form.Read(ctx, m.deps.Page, group)
		if err != nil {
			if errors.Is(err, dom.ErrStale) {
				return err
			}
			log.Warn("failed to read question", zap.Error(err))
			continue
		}

		qlog := log.With(zap.String(logger.FieldQuestionKind, q.Kind.String()), zap.String("question", q.Label))
		if q.Kind == form.KindUnknown {
			qlog.Debug("could not identify question type")
			continue
		}
		if q.Prefilled() {
			qlog.Debug("field is pre-populated, skipping", zap.String("value", q.Current))
			continue
		}

		res := m.deps.Resolver.Resolve(ctx, q)
		if !res.Resolved() {
			qlog.Debug("question left unanswered")
			continue
		}

		value := res.Value.Render(q)
		err = form.Fill(ctx, m.deps.Page, q, res.Value)
		if errors.Is(err, dom.ErrStale) {
			return err
		}
		s.Answers = append(s.Answers, answer.Attempt{
			Kind:   q.Kind,
			Label:  q.Label,
			Source: res.Source,
			Value:  value,
			OK:     err == nil,
		})
		if err != nil {
			qlog.Warn("failed to answer question", zap.Error(err))
			continue
		}
		qlog.Debug("question answered", zap.String("value", value), zap.String(logger.FieldResolutionSource, string(res.Source)))
	}
	return nil
}
