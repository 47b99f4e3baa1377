package casefile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caselog/caselog/internal/domain/tags"
)

// DefaultListTTL bounds how long a user's cached case collection is served
// without hitting the store. Writes invalidate the entry immediately.
const DefaultListTTL = 30 * time.Second

var validGenders = map[string]bool{
	"male": true, "female": true, "other": true, "unknown": true,
}

var validDiagnosisStatuses = map[string]bool{
	"confirmed": true, "differential": true, "ruled_out": true,
}

var validResourceTypes = map[string]bool{
	"textbook": true, "article": true, "guideline": true, "video": true, "other": true,
}

var validPriorities = map[string]bool{
	"low": true, "medium": true, "high": true,
}

var validCaseStatuses = map[string]bool{
	"draft": true, "active": true, "completed": true, "archived": true,
}

// Service is the case collection accessor: the sole boundary between
// callers and the persisted store.
type Service struct {
	repo  Repository
	tags  tags.TagRepository
	cache *listCache
}

func NewService(repo Repository, tagRepo tags.TagRepository) *Service {
	return NewServiceWithTTL(repo, tagRepo, DefaultListTTL)
}

func NewServiceWithTTL(repo Repository, tagRepo tags.TagRepository, listTTL time.Duration) *Service {
	return &Service{
		repo:  repo,
		tags:  tagRepo,
		cache: newListCache(listTTL),
	}
}

// List returns the user's cases sorted by most-recently-updated, served from
// the per-user cache when fresh.
func (s *Service) List(ctx context.Context, userID string) ([]*MedicalCase, error) {
	if userID == "" {
		return nil, ErrAuthenticationRequired
	}

	if cases, ok := s.cache.Get(userID); ok {
		return cases, nil
	}

	cases, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	if cases == nil {
		cases = []*MedicalCase{}
	}
	s.cache.Set(userID, cases)
	return cases, nil
}

// GetByID returns one case owned by the user.
func (s *Service) GetByID(ctx context.Context, userID string, id uuid.UUID) (*MedicalCase, error) {
	if userID == "" {
		return nil, ErrAuthenticationRequired
	}
	mc, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("get case: %w", err)
	}
	return mc, nil
}

// Create validates the submission, writes patient + case + related rows as
// one logical unit, and invalidates the owner's cached collection before
// returning so the very next List observes the write.
func (s *Service) Create(ctx context.Context, userID string, sub *CaseSubmission) (uuid.UUID, error) {
	if userID == "" {
		return uuid.Nil, ErrAuthenticationRequired
	}
	if err := s.validateSubmission(sub); err != nil {
		return uuid.Nil, err
	}

	mc, err := s.buildCase(ctx, userID, sub)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.repo.Create(ctx, mc); err != nil {
		return uuid.Nil, fmt.Errorf("create case: %w", err)
	}

	s.cache.Invalidate(userID)
	return mc.ID, nil
}

// Update overwrites the case's own fields. Sub-collections are not touched;
// the edit flow is a field overwrite, not a graph rewrite.
func (s *Service) Update(ctx context.Context, userID string, mc *MedicalCase) error {
	if userID == "" {
		return ErrAuthenticationRequired
	}
	if mc.Priority != "" && !validPriorities[mc.Priority] {
		return fmt.Errorf("%w: invalid priority: %s", ErrInvalidSubmission, mc.Priority)
	}
	if mc.Status != "" && !validCaseStatuses[mc.Status] {
		return fmt.Errorf("%w: invalid status: %s", ErrInvalidSubmission, mc.Status)
	}
	mc.UserID = userID
	if err := s.repo.Update(ctx, mc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCaseNotFound
		}
		return fmt.Errorf("update case: %w", err)
	}
	s.cache.Invalidate(userID)
	return nil
}

// Delete removes a case and its owned rows.
func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" {
		return ErrAuthenticationRequired
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCaseNotFound
		}
		return fmt.Errorf("delete case: %w", err)
	}
	s.cache.Invalidate(userID)
	return nil
}

func (s *Service) validateSubmission(sub *CaseSubmission) error {
	if sub == nil {
		return fmt.Errorf("%w: submission is required", ErrInvalidSubmission)
	}
	if sub.Patient.Name == "" {
		return fmt.Errorf("%w: patient name is required", ErrInvalidSubmission)
	}
	if sub.Patient.Age < 0 || sub.Patient.Age > 150 {
		return fmt.Errorf("%w: patient age must be between 0 and 150, got %d", ErrInvalidSubmission, sub.Patient.Age)
	}
	if !validGenders[sub.Patient.Gender] {
		return fmt.Errorf("%w: invalid patient gender: %s", ErrInvalidSubmission, sub.Patient.Gender)
	}
	if sub.Case.Title == "" {
		return fmt.Errorf("%w: case title is required", ErrInvalidSubmission)
	}
	if sub.Case.ChiefComplaint == "" {
		return fmt.Errorf("%w: chief complaint is required", ErrInvalidSubmission)
	}
	if sub.Case.Priority != "" && !validPriorities[sub.Case.Priority] {
		return fmt.Errorf("%w: invalid priority: %s", ErrInvalidSubmission, sub.Case.Priority)
	}
	if sub.Case.Status != "" && !validCaseStatuses[sub.Case.Status] {
		return fmt.Errorf("%w: invalid status: %s", ErrInvalidSubmission, sub.Case.Status)
	}
	for _, d := range sub.Case.Diagnoses {
		if d.Name == "" {
			return fmt.Errorf("%w: diagnosis name is required", ErrInvalidSubmission)
		}
		if d.Status != "" && !validDiagnosisStatuses[d.Status] {
			return fmt.Errorf("%w: invalid diagnosis status: %s", ErrInvalidSubmission, d.Status)
		}
	}
	for _, res := range sub.Resources {
		if res.Type != "" && !validResourceTypes[res.Type] {
			return fmt.Errorf("%w: invalid resource type: %s", ErrInvalidSubmission, res.Type)
		}
	}
	return nil
}

func (s *Service) buildCase(ctx context.Context, userID string, sub *CaseSubmission) (*MedicalCase, error) {
	mc := &MedicalCase{
		UserID: userID,
		Patient: &Patient{
			Name:                sub.Patient.Name,
			Age:                 sub.Patient.Age,
			Gender:              sub.Patient.Gender,
			MedicalRecordNumber: sub.Patient.MedicalRecordNumber,
		},
		Title:                  sub.Case.Title,
		Priority:               sub.Case.Priority,
		Status:                 sub.Case.Status,
		ChiefComplaint:         sub.Case.ChiefComplaint,
		ChiefComplaintAnalysis: sub.Case.ChiefComplaintAnalysis,
		History:                sub.Case.History,
		PhysicalExam:           sub.Case.PhysicalExam,
		LearningPoints:         sub.Case.LearningPoints,
		Vitals:                 sub.Case.Vitals,
		Symptoms:               sub.Case.Symptoms,
		UrinarySymptoms:        sub.Case.UrinarySymptoms,
		Diagnoses:              []Diagnosis{},
		LabTests:               []LabTest{},
		RadiologyStudies:       []RadiologyStudy{},
		Resources:              []Resource{},
	}
	if mc.Priority == "" {
		mc.Priority = "medium"
	}
	if mc.Status == "" {
		mc.Status = "active"
	}

	for _, d := range sub.Case.Diagnoses {
		status := d.Status
		if status == "" {
			status = "differential"
		}
		mc.Diagnoses = append(mc.Diagnoses, Diagnosis{Name: d.Name, Status: status, Notes: d.Notes})
	}
	for _, lt := range sub.Case.LabTests {
		mc.LabTests = append(mc.LabTests, LabTest{
			Name: lt.Name, Value: lt.Value, Unit: lt.Unit,
			NormalRange: lt.NormalRange, Interpretation: lt.Interpretation,
		})
	}
	for _, rs := range sub.Case.RadiologyStudies {
		date := rs.Date
		if date == "" {
			// Mandatory at persistence time; default when the form omitted it.
			date = time.Now().UTC().Format("2006-01-02")
		}
		mc.RadiologyStudies = append(mc.RadiologyStudies, RadiologyStudy{
			Name: rs.Name, Modality: rs.Modality, Findings: rs.Findings,
			Date: date, Impression: rs.Impression,
		})
	}
	for _, res := range sub.Resources {
		resType := res.Type
		if resType == "" {
			resType = "other"
		}
		mc.Resources = append(mc.Resources, Resource{
			Title: res.Title, Type: resType, URL: res.URL, Notes: res.Notes,
		})
	}

	mc.Tags = []tags.CaseTag{}
	for _, tagID := range sub.TagIDs {
		t, err := s.tags.GetByID(ctx, tagID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: unknown tag: %s", ErrInvalidSubmission, tagID)
			}
			return nil, fmt.Errorf("resolve tag %s: %w", tagID, err)
		}
		mc.Tags = append(mc.Tags, *t)
	}

	return mc, nil
}
