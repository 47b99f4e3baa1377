package wizard

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/caselog/caselog/internal/domain/casefile"
)

type mockCreator struct {
	mu        sync.Mutex
	calls     int
	last      *casefile.CaseSubmission
	err       error
	block     chan struct{}
	started   chan struct{}
	startOnce sync.Once
	returned  uuid.UUID
}

func (m *mockCreator) Create(_ context.Context, _ string, sub *casefile.CaseSubmission) (uuid.UUID, error) {
	if m.started != nil {
		m.startOnce.Do(func() { close(m.started) })
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.last = sub
	if m.err != nil {
		return uuid.Nil, m.err
	}
	if m.returned == uuid.Nil {
		m.returned = uuid.New()
	}
	return m.returned, nil
}

func validOverview() FormData {
	return FormData{
		PatientName:    "Jane Doe",
		PatientAge:     "34",
		PatientSex:     "female",
		CaseTitle:      "Acute Appendicitis",
		ChiefComplaint: "RLQ pain",
	}
}

func startSession(t *testing.T, svc *Service) uuid.UUID {
	t.Helper()
	sess, err := svc.StartSession("user-1")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return sess.ID
}

func setForm(t *testing.T, svc *Service, id uuid.UUID, form FormData) {
	t.Helper()
	if _, err := svc.UpdateForm("user-1", id, form); err != nil {
		t.Fatalf("update form: %v", err)
	}
}

func TestValidateStep_Overview(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FormData)
		valid  bool
	}{
		{"all required present", func(*FormData) {}, true},
		{"missing patient name", func(f *FormData) { f.PatientName = "" }, false},
		{"missing age", func(f *FormData) { f.PatientAge = "" }, false},
		{"non-numeric age", func(f *FormData) { f.PatientAge = "thirty" }, false},
		{"age below range", func(f *FormData) { f.PatientAge = "-1" }, false},
		{"age above range", func(f *FormData) { f.PatientAge = "151" }, false},
		{"age at lower bound", func(f *FormData) { f.PatientAge = "0" }, true},
		{"age at upper bound", func(f *FormData) { f.PatientAge = "150" }, true},
		{"missing sex", func(f *FormData) { f.PatientSex = "" }, false},
		{"missing title", func(f *FormData) { f.CaseTitle = "" }, false},
		{"missing chief complaint", func(f *FormData) { f.ChiefComplaint = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validOverview()
			tt.mutate(&form)
			fields, err := ValidateStep(StepCaseOverview, &form)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (len(fields) == 0) != tt.valid {
				t.Errorf("expected valid=%v, got field errors %v", tt.valid, fields)
			}
		})
	}
}

func TestValidateStep_ClinicalDetailsHasNoRequiredFields(t *testing.T) {
	fields, err := ValidateStep(StepClinicalDetails, &FormData{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("expected no errors for empty clinical details, got %v", fields)
	}
}

func TestValidateStep_ResourceLinkURLs(t *testing.T) {
	form := validOverview()
	form.ResourceLinks = []ResourceLink{
		{URL: "https://a.com", Description: "A"},
		{URL: "not-a-url", Description: "B"},
	}

	fields, err := ValidateStep(StepLearningPoints, &form)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) == 0 {
		t.Fatal("expected the malformed URL to fail validation")
	}
	if _, ok := fields["resourceLinks.1.url"]; !ok {
		t.Errorf("expected a field-scoped error on entry 1, got %v", fields)
	}
	if _, ok := fields["resourceLinks.0.url"]; ok {
		t.Error("the well-formed entry must not be flagged")
	}
}

func TestValidateStep_EmptyResourceURL(t *testing.T) {
	form := FormData{ResourceLinks: []ResourceLink{{URL: "", Description: "ref"}}}
	fields, err := ValidateStep(StepLearningPoints, &form)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := fields["resourceLinks.0.url"]; !ok {
		t.Errorf("expected empty URL to be rejected, got %v", fields)
	}
}

func TestValidateStep_UnknownStep(t *testing.T) {
	_, err := ValidateStep("summary", &FormData{})
	if !errors.Is(err, ErrUnknownStep) {
		t.Errorf("expected ErrUnknownStep, got %v", err)
	}
}

func TestAdvance_BlockedByValidation(t *testing.T) {
	svc := NewService(&mockCreator{})
	id := startSession(t, svc)

	sess, outcome, err := svc.Advance(context.Background(), "user-1", id)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if outcome != nil {
		t.Error("no submission expected")
	}
	if sess.StepIndex != 0 {
		t.Errorf("step index must not change on validation failure, got %d", sess.StepIndex)
	}
	if sess.Announcement != "Please correct the errors." {
		t.Errorf("expected accessible announcement, got %q", sess.Announcement)
	}
	if len(sess.Errors) == 0 {
		t.Error("expected field-scoped errors on the session")
	}
}

func TestAdvance_MovesForwardAndClearsAnnouncement(t *testing.T) {
	svc := NewService(&mockCreator{})
	id := startSession(t, svc)

	// Fail once to raise the announcement.
	if _, _, err := svc.Advance(context.Background(), "user-1", id); err == nil {
		t.Fatal("expected validation failure on empty form")
	}

	setForm(t, svc, id, validOverview())
	sess, _, err := svc.Advance(context.Background(), "user-1", id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.StepIndex != 1 || sess.Step != StepClinicalDetails {
		t.Errorf("expected advance to clinical details, got index %d step %s", sess.StepIndex, sess.Step)
	}
	if sess.Announcement != "" {
		t.Errorf("expected announcement cleared on success, got %q", sess.Announcement)
	}
	if len(sess.Errors) != 0 {
		t.Errorf("expected errors cleared on success, got %v", sess.Errors)
	}
}

func TestAdvance_FinalStepSubmits(t *testing.T) {
	creator := &mockCreator{}
	svc := NewService(creator)
	id := startSession(t, svc)
	setForm(t, svc, id, validOverview())

	for i := 0; i < 2; i++ {
		if _, _, err := svc.Advance(context.Background(), "user-1", id); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}

	_, outcome, err := svc.Advance(context.Background(), "user-1", id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome == nil || outcome.CaseID == uuid.Nil {
		t.Fatal("expected advancing from the final step to submit")
	}
	if creator.calls != 1 {
		t.Errorf("expected one create call, got %d", creator.calls)
	}
	if _, err := svc.GetSession("user-1", id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected session removed after successful submit, got %v", err)
	}
}

func TestRetreat_NeverValidatesAndClampsAtZero(t *testing.T) {
	svc := NewService(&mockCreator{})
	id := startSession(t, svc)

	// Retreat at step 0 on an invalid (empty) form: no validation, no move.
	sess, err := svc.Retreat("user-1", id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.StepIndex != 0 {
		t.Errorf("expected clamped at 0, got %d", sess.StepIndex)
	}
	if len(sess.Errors) != 0 || sess.Announcement != "" {
		t.Error("retreat must never trigger validation")
	}

	setForm(t, svc, id, validOverview())
	if _, _, err := svc.Advance(context.Background(), "user-1", id); err != nil {
		t.Fatalf("advance: %v", err)
	}
	sess, err = svc.Retreat("user-1", id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.StepIndex != 0 {
		t.Errorf("expected retreat back to 0, got %d", sess.StepIndex)
	}
	if sess.Form.PatientName != "Jane Doe" {
		t.Error("retreat must not discard entered data")
	}
}

func TestJumpToStep_NeverMutatesForm(t *testing.T) {
	svc := NewService(&mockCreator{})
	id := startSession(t, svc)

	form := validOverview()
	form.LearningPoints = "classic presentation"
	form.ResourceLinks = []ResourceLink{{URL: "https://a.com", Description: "A"}}
	setForm(t, svc, id, form)

	before, err := svc.GetSession("user-1", id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}

	for _, step := range []string{StepLearningPoints, StepCaseOverview, StepClinicalDetails} {
		sess, err := svc.JumpToStep("user-1", id, step)
		if err != nil {
			t.Fatalf("jump to %s: %v", step, err)
		}
		if sess.Step != step || sess.StepIndex != StepIndexOf(step) {
			t.Errorf("expected cursor at %s, got %s", step, sess.Step)
		}
		if !reflect.DeepEqual(sess.Form, before.Form) {
			t.Errorf("jump to %s mutated the form state", step)
		}
	}
}

func TestJumpToStep_UnknownStep(t *testing.T) {
	svc := NewService(&mockCreator{})
	id := startSession(t, svc)

	if _, err := svc.JumpToStep("user-1", id, "review"); !errors.Is(err, ErrUnknownStep) {
		t.Errorf("expected ErrUnknownStep, got %v", err)
	}
}

func TestSubmit_AssemblesMinimalPayload(t *testing.T) {
	creator := &mockCreator{}
	svc := NewService(creator)
	id := startSession(t, svc)

	// Overview only, no clinical-detail or learning-points input.
	setForm(t, svc, id, validOverview())

	caseID, err := svc.Submit(context.Background(), "user-1", id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if caseID == uuid.Nil {
		t.Fatal("expected a case id")
	}

	sub := creator.last
	if sub == nil {
		t.Fatal("expected create to receive a submission")
	}
	if sub.Patient.Name != "Jane Doe" || sub.Patient.Age != 34 || sub.Patient.Gender != "female" {
		t.Errorf("unexpected patient: %+v", sub.Patient)
	}
	if sub.Case.Title != "Acute Appendicitis" || sub.Case.ChiefComplaint != "RLQ pain" {
		t.Errorf("unexpected case fields: %+v", sub.Case)
	}
	if sub.Case.History != "" {
		t.Errorf("expected empty history with no clinical or overview history, got %q", sub.Case.History)
	}
	if sub.Resources == nil || len(sub.Resources) != 0 {
		t.Errorf("expected empty (non-nil) resources, got %v", sub.Resources)
	}
}

func TestSubmit_HistoryPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		clinical string
		overview string
		want     string
	}{
		{"clinical wins over overview", "progressive RLQ pain over 12h", "appendectomy 2019", "progressive RLQ pain over 12h"},
		{"overview fallback", "", "appendectomy 2019", "appendectomy 2019"},
		{"both empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &mockCreator{}
			svc := NewService(creator)
			id := startSession(t, svc)

			form := validOverview()
			form.PatientHistory = tt.clinical
			form.MedicalHistory = tt.overview
			setForm(t, svc, id, form)

			if _, err := svc.Submit(context.Background(), "user-1", id); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if creator.last.Case.History != tt.want {
				t.Errorf("expected history %q, got %q", tt.want, creator.last.Case.History)
			}
		})
	}
}

func TestSubmit_BlockedByResourceLinkValidation(t *testing.T) {
	creator := &mockCreator{}
	svc := NewService(creator)
	id := startSession(t, svc)

	form := validOverview()
	form.ResourceLinks = []ResourceLink{
		{URL: "https://a.com", Description: "A"},
		{URL: "not-a-url", Description: "B"},
	}
	setForm(t, svc, id, form)

	_, err := svc.Submit(context.Background(), "user-1", id)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if creator.calls != 0 {
		t.Error("create must not be called when full-form validation fails")
	}

	// The malformed link also blocks advancing off the learning-points step.
	if _, err := svc.JumpToStep("user-1", id, StepLearningPoints); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if _, _, err := svc.Advance(context.Background(), "user-1", id); !errors.As(err, &vErr) {
		t.Errorf("expected advance off learning points to fail, got %v", err)
	}
}

func TestSubmit_CreatorFailureKeepsSession(t *testing.T) {
	creator := &mockCreator{err: errors.New("store unavailable")}
	svc := NewService(creator)
	id := startSession(t, svc)
	setForm(t, svc, id, validOverview())

	if _, err := svc.Submit(context.Background(), "user-1", id); err == nil {
		t.Fatal("expected creator failure to propagate")
	}

	sess, err := svc.GetSession("user-1", id)
	if err != nil {
		t.Fatalf("expected session preserved for retry, got %v", err)
	}
	if sess.Status != StatusError {
		t.Errorf("expected status error, got %s", sess.Status)
	}
	if sess.Form.PatientName != "Jane Doe" {
		t.Error("expected form state preserved after a failed submit")
	}

	// Re-submittable without re-entering data.
	creator.err = nil
	if _, err := svc.Submit(context.Background(), "user-1", id); err != nil {
		t.Errorf("expected resubmit to succeed, got %v", err)
	}
}

func TestSubmit_InFlightBlocked(t *testing.T) {
	creator := &mockCreator{block: make(chan struct{}), started: make(chan struct{})}
	svc := NewService(creator)
	id := startSession(t, svc)
	setForm(t, svc, id, validOverview())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), "user-1", id)
		done <- err
	}()

	// Wait until the first submit is inside the downstream create, with the
	// submitting flag set.
	<-creator.started
	if _, err := svc.Submit(context.Background(), "user-1", id); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("expected ErrSubmitInFlight, got %v", err)
	}

	close(creator.block)
	if err := <-done; err != nil {
		t.Errorf("first submit should succeed, got %v", err)
	}
	if creator.calls != 1 {
		t.Errorf("expected exactly one create call, got %d", creator.calls)
	}
}

func TestSubmit_CollectionsMapped(t *testing.T) {
	creator := &mockCreator{}
	svc := NewService(creator)
	id := startSession(t, svc)

	form := validOverview()
	form.Vitals = map[string]string{"bp": "120/80"}
	form.SystemSymptoms = map[string][]string{"gi": {"nausea"}}
	form.LabResults = []LabResult{{Name: "WBC", Value: "14.2", Unit: "x10^9/L"}}
	form.RadiologyStudies = []RadiologyEntry{{Name: "CT abdomen", Modality: "CT", Findings: "dilated appendix"}}
	form.Diagnoses = []DiagnosisEntry{{Name: "Acute appendicitis", Status: "confirmed"}}
	form.ResourceLinks = []ResourceLink{{URL: "https://pubmed.gov/1", Description: "Review"}}
	setForm(t, svc, id, form)

	if _, err := svc.Submit(context.Background(), "user-1", id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := creator.last
	if len(sub.Case.LabTests) != 1 || sub.Case.LabTests[0].Name != "WBC" {
		t.Errorf("unexpected lab tests: %v", sub.Case.LabTests)
	}
	if len(sub.Case.RadiologyStudies) != 1 || sub.Case.RadiologyStudies[0].Modality != "CT" {
		t.Errorf("unexpected radiology: %v", sub.Case.RadiologyStudies)
	}
	if len(sub.Case.Diagnoses) != 1 || sub.Case.Diagnoses[0].Status != "confirmed" {
		t.Errorf("unexpected diagnoses: %v", sub.Case.Diagnoses)
	}
	if len(sub.Resources) != 1 || sub.Resources[0].Title != "Review" || sub.Resources[0].URL == nil || *sub.Resources[0].URL != "https://pubmed.gov/1" {
		t.Errorf("unexpected resources: %v", sub.Resources)
	}
	if sub.Case.Vitals["bp"] != "120/80" {
		t.Errorf("unexpected vitals: %v", sub.Case.Vitals)
	}
}

func TestSessions_OwnerScoped(t *testing.T) {
	svc := NewService(&mockCreator{})
	id := startSession(t, svc)

	if _, err := svc.GetSession("user-2", id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound for other user, got %v", err)
	}
	if _, err := svc.GetSession("", id); !errors.Is(err, casefile.ErrAuthenticationRequired) {
		t.Errorf("expected ErrAuthenticationRequired, got %v", err)
	}
}

func TestStartSession_RequiresAuthentication(t *testing.T) {
	svc := NewService(&mockCreator{})
	if _, err := svc.StartSession(""); !errors.Is(err, casefile.ErrAuthenticationRequired) {
		t.Errorf("expected ErrAuthenticationRequired, got %v", err)
	}
}
