package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caselog/caselog/internal/domain/casefile"
)

// CaseCreator is the narrow downstream capability the wizard hands finished
// submissions to. The case service satisfies it.
type CaseCreator interface {
	Create(ctx context.Context, userID string, sub *casefile.CaseSubmission) (uuid.UUID, error)
}

// Service drives the three-step wizard flow: per-step validation gating,
// free back-navigation over one shared form state, and final assembly of the
// creation payload.
type Service struct {
	store   *sessionStore
	creator CaseCreator
}

func NewService(creator CaseCreator) *Service {
	return &Service{
		store:   newSessionStore(),
		creator: creator,
	}
}

// StartSession opens a fresh wizard run for the user.
func (s *Service) StartSession(ownerID string) (*Session, error) {
	if ownerID == "" {
		return nil, casefile.ErrAuthenticationRequired
	}
	sess := s.store.create(ownerID)
	copied := cloneSession(sess)
	return &copied, nil
}

// GetSession returns the caller's session by id.
func (s *Service) GetSession(ownerID string, id uuid.UUID) (*Session, error) {
	if ownerID == "" {
		return nil, casefile.ErrAuthenticationRequired
	}
	return s.store.snapshot(id, ownerID)
}

// UpdateForm replaces the session's form state. Every step writes into the
// same flat object, so a partial client keeps unchanged fields by echoing
// them back.
func (s *Service) UpdateForm(ownerID string, id uuid.UUID, form FormData) (*Session, error) {
	if ownerID == "" {
		return nil, casefile.ErrAuthenticationRequired
	}
	err := s.store.withSession(id, ownerID, func(sess *Session) error {
		sess.Form = form
		sess.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.snapshot(id, ownerID)
}

// ValidateStep runs one step's validation against the session, recording
// field errors and the accessible announcement on failure and clearing both
// on success.
func (s *Service) ValidateStep(ownerID string, id uuid.UUID, stepID string) (*Session, error) {
	if ownerID == "" {
		return nil, casefile.ErrAuthenticationRequired
	}
	var vErr *ValidationError
	err := s.store.withSession(id, ownerID, func(sess *Session) error {
		fields, err := ValidateStep(stepID, &sess.Form)
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			vErr = newValidationError(fields)
			recordValidationFailure(sess, vErr)
			return nil
		}
		clearValidation(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sess, err := s.store.snapshot(id, ownerID)
	if err != nil {
		return nil, err
	}
	if vErr != nil {
		return sess, vErr
	}
	return sess, nil
}

// SubmitOutcome reports a completed submission triggered by Advance or
// Submit.
type SubmitOutcome struct {
	CaseID uuid.UUID `json:"caseId"`
}

// Advance moves to the next step when the active step validates, staying put
// and surfacing errors when it does not. Advancing from the final step runs
// the submission instead; past the end the index is clamped.
func (s *Service) Advance(ctx context.Context, ownerID string, id uuid.UUID) (*Session, *SubmitOutcome, error) {
	if ownerID == "" {
		return nil, nil, casefile.ErrAuthenticationRequired
	}

	var (
		vErr  *ValidationError
		final bool
	)
	err := s.store.withSession(id, ownerID, func(sess *Session) error {
		fields, err := ValidateStep(StepAt(sess.StepIndex), &sess.Form)
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			vErr = newValidationError(fields)
			recordValidationFailure(sess, vErr)
			return nil
		}
		clearValidation(sess)
		if sess.StepIndex >= StepCount-1 {
			final = true
			return nil
		}
		sess.StepIndex++
		sess.Step = StepAt(sess.StepIndex)
		sess.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if vErr != nil {
		sess, serr := s.store.snapshot(id, ownerID)
		if serr != nil {
			return nil, nil, serr
		}
		return sess, nil, vErr
	}
	if final {
		caseID, err := s.Submit(ctx, ownerID, id)
		if err != nil {
			sess, serr := s.store.snapshot(id, ownerID)
			if serr != nil {
				return nil, nil, err
			}
			return sess, nil, err
		}
		return nil, &SubmitOutcome{CaseID: caseID}, nil
	}
	sess, err := s.store.snapshot(id, ownerID)
	if err != nil {
		return nil, nil, err
	}
	return sess, nil, nil
}

// Retreat steps back one step, clamped at the first. It never validates and
// never discards entered data.
func (s *Service) Retreat(ownerID string, id uuid.UUID) (*Session, error) {
	if ownerID == "" {
		return nil, casefile.ErrAuthenticationRequired
	}
	err := s.store.withSession(id, ownerID, func(sess *Session) error {
		if sess.StepIndex > 0 {
			sess.StepIndex--
			sess.Step = StepAt(sess.StepIndex)
			sess.UpdatedAt = time.Now()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.snapshot(id, ownerID)
}

// JumpToStep moves the cursor directly to any step. Every step is navigable;
// the step being left is not validated and the form is untouched.
func (s *Service) JumpToStep(ownerID string, id uuid.UUID, stepID string) (*Session, error) {
	if ownerID == "" {
		return nil, casefile.ErrAuthenticationRequired
	}
	index := StepIndexOf(stepID)
	if index < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStep, stepID)
	}
	err := s.store.withSession(id, ownerID, func(sess *Session) error {
		sess.StepIndex = index
		sess.Step = stepID
		sess.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.snapshot(id, ownerID)
}

// Submit runs full-form validation, assembles the creation payload, and
// hands it to the case creator. While a submit is pending the session
// refuses a second one. A creator failure keeps the session and its form
// intact so the user can resubmit; success removes the session.
func (s *Service) Submit(ctx context.Context, ownerID string, id uuid.UUID) (uuid.UUID, error) {
	if ownerID == "" {
		return uuid.Nil, casefile.ErrAuthenticationRequired
	}

	var (
		vErr *ValidationError
		sub  *casefile.CaseSubmission
	)
	err := s.store.withSession(id, ownerID, func(sess *Session) error {
		if sess.Status == StatusSubmitting {
			return ErrSubmitInFlight
		}
		sess.Status = StatusValidating
		fields := ValidateAll(&sess.Form)
		built, buildErr := buildSubmission(&sess.Form)
		if buildErr != nil {
			// Coerced-field failures surface as field errors, same as the
			// schema checks.
			if fields == nil {
				fields = map[string]string{}
			}
			fields["form"] = buildErr.Error()
		}
		if len(fields) > 0 {
			vErr = newValidationError(fields)
			recordValidationFailure(sess, vErr)
			sess.Status = StatusIdle
			return nil
		}
		clearValidation(sess)
		sess.Status = StatusSubmitting
		sess.UpdatedAt = time.Now()
		sub = built
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if vErr != nil {
		return uuid.Nil, vErr
	}

	// The store lock is not held across the downstream create.
	caseID, createErr := s.creator.Create(ctx, ownerID, sub)
	if createErr != nil {
		_ = s.store.withSession(id, ownerID, func(sess *Session) error {
			sess.Status = StatusError
			sess.UpdatedAt = time.Now()
			return nil
		})
		return uuid.Nil, fmt.Errorf("submit case: %w", createErr)
	}

	s.store.delete(id)
	return caseID, nil
}

func recordValidationFailure(sess *Session, vErr *ValidationError) {
	sess.Errors = vErr.Fields
	sess.Announcement = vErr.Announcement
	sess.UpdatedAt = time.Now()
}

func clearValidation(sess *Session) {
	sess.Errors = map[string]string{}
	sess.Announcement = ""
}

// buildSubmission assembles the normalized creation payload from the flat
// form state. Clinical-detail values win over their overview counterparts
// (patientHistory over medicalHistory); optional collections default to
// empty, never nil.
func buildSubmission(form *FormData) (*casefile.CaseSubmission, error) {
	age, err := parseAge(form.PatientAge)
	if err != nil {
		return nil, err
	}

	history := form.PatientHistory
	if history == "" {
		history = form.MedicalHistory
	}

	sub := &casefile.CaseSubmission{
		Patient: casefile.SubmissionPatient{
			Name:                strings.TrimSpace(form.PatientName),
			Age:                 age,
			Gender:              form.PatientSex,
			MedicalRecordNumber: form.MedicalRecordNumber,
		},
		Case: casefile.SubmissionCase{
			Title:                  strings.TrimSpace(form.CaseTitle),
			Priority:               form.Priority,
			Status:                 form.Status,
			ChiefComplaint:         form.ChiefComplaint,
			ChiefComplaintAnalysis: form.ChiefComplaintAnalysis,
			History:                history,
			PhysicalExam:           form.PhysicalExam,
			Symptoms:               form.SystemSymptoms,
			Vitals:                 form.Vitals,
			LearningPoints:         form.LearningPoints,
			UrinarySymptoms:        form.UrinarySymptoms,
			LabTests:               []casefile.SubmissionLab{},
			RadiologyStudies:       []casefile.SubmissionRadiology{},
			Diagnoses:              []casefile.SubmissionDiagnosis{},
		},
		Resources: []casefile.SubmissionResource{},
	}
	if sub.Case.Symptoms == nil {
		sub.Case.Symptoms = map[string][]string{}
	}
	if sub.Case.Vitals == nil {
		sub.Case.Vitals = map[string]string{}
	}
	if sub.Case.UrinarySymptoms == nil {
		sub.Case.UrinarySymptoms = []string{}
	}

	for _, lr := range form.LabResults {
		sub.Case.LabTests = append(sub.Case.LabTests, casefile.SubmissionLab{
			Name:           lr.Name,
			Value:          lr.Value,
			Unit:           lr.Unit,
			NormalRange:    lr.NormalRange,
			Interpretation: lr.Interpretation,
		})
	}
	for _, rs := range form.RadiologyStudies {
		sub.Case.RadiologyStudies = append(sub.Case.RadiologyStudies, casefile.SubmissionRadiology{
			Name:       rs.Name,
			Modality:   rs.Modality,
			Findings:   rs.Findings,
			Date:       rs.Date,
			Impression: rs.Impression,
		})
	}
	for _, d := range form.Diagnoses {
		sub.Case.Diagnoses = append(sub.Case.Diagnoses, casefile.SubmissionDiagnosis{
			Name:   d.Name,
			Status: d.Status,
			Notes:  d.Notes,
		})
	}
	for _, link := range form.ResourceLinks {
		title := link.Description
		if title == "" {
			title = link.URL
		}
		u := link.URL
		sub.Resources = append(sub.Resources, casefile.SubmissionResource{
			Title: title,
			Type:  "article",
			URL:   &u,
		})
	}

	for _, raw := range form.TagIDs {
		tagID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid tag id: %s", raw)
		}
		sub.TagIDs = append(sub.TagIDs, tagID)
	}

	return sub, nil
}
