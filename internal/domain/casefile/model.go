package casefile

import (
	"time"

	"github.com/google/uuid"

	"github.com/caselog/caselog/internal/domain/tags"
)

// Patient maps to the patients table. A patient is owned by exactly one
// MedicalCase and is created together with the case in the same submission.
type Patient struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	Age                 int       `db:"age" json:"age"`
	Gender              string    `db:"gender" json:"gender"`
	MedicalRecordNumber *string   `db:"medical_record_number" json:"medical_record_number,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// Diagnosis maps to the diagnoses table. Many per case.
type Diagnosis struct {
	ID     uuid.UUID `db:"id" json:"id"`
	CaseID uuid.UUID `db:"case_id" json:"case_id"`
	Name   string    `db:"name" json:"name"`
	Status string    `db:"status" json:"status"`
	Notes  *string   `db:"notes" json:"notes,omitempty"`
}

// LabTest maps to the lab_tests table. Many per case.
type LabTest struct {
	ID             uuid.UUID `db:"id" json:"id"`
	CaseID         uuid.UUID `db:"case_id" json:"case_id"`
	Name           string    `db:"name" json:"name"`
	Value          string    `db:"value" json:"value"`
	Unit           string    `db:"unit" json:"unit"`
	NormalRange    *string   `db:"normal_range" json:"normal_range,omitempty"`
	Interpretation *string   `db:"interpretation" json:"interpretation,omitempty"`
}

// RadiologyStudy maps to the radiology_studies table. Many per case.
// Date is mandatory at persistence time; the wizard defaults it when the
// form omits it.
type RadiologyStudy struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CaseID     uuid.UUID `db:"case_id" json:"case_id"`
	Name       string    `db:"name" json:"name"`
	Modality   string    `db:"modality" json:"modality"`
	Findings   string    `db:"findings" json:"findings"`
	Date       string    `db:"study_date" json:"date"`
	Impression *string   `db:"impression" json:"impression,omitempty"`
}

// Resource maps to the case_resources table. Many per case.
type Resource struct {
	ID     uuid.UUID `db:"id" json:"id"`
	CaseID uuid.UUID `db:"case_id" json:"case_id"`
	Title  string    `db:"title" json:"title"`
	Type   string    `db:"type" json:"type"`
	URL    *string   `db:"url" json:"url,omitempty"`
	Notes  *string   `db:"notes" json:"notes,omitempty"`
}

// MedicalCase is the aggregate root: one documented patient clinical
// encounter together with its owned sub-collections and referenced tags.
type MedicalCase struct {
	ID                     uuid.UUID           `db:"id" json:"id"`
	UserID                 string              `db:"user_id" json:"user_id"`
	PatientID              uuid.UUID           `db:"patient_id" json:"patient_id"`
	Title                  string              `db:"title" json:"title"`
	Priority               string              `db:"priority" json:"priority"`
	Status                 string              `db:"status" json:"status"`
	ChiefComplaint         string              `db:"chief_complaint" json:"chief_complaint"`
	ChiefComplaintAnalysis string              `db:"chief_complaint_analysis" json:"chief_complaint_analysis"`
	History                string              `db:"history" json:"history"`
	PhysicalExam           string              `db:"physical_exam" json:"physical_exam"`
	LearningPoints         string              `db:"learning_points" json:"learning_points"`
	Vitals                 map[string]string   `db:"vitals" json:"vitals,omitempty"`
	Symptoms               map[string][]string `db:"symptoms" json:"symptoms,omitempty"`
	PastMedicalHistory     []string            `db:"past_medical_history" json:"past_medical_history,omitempty"`
	Medications            []string            `db:"medications" json:"medications,omitempty"`
	Allergies              []string            `db:"allergies" json:"allergies,omitempty"`
	UrinarySymptoms        []string            `db:"urinary_symptoms" json:"urinary_symptoms,omitempty"`
	SocialHistory          *string             `db:"social_history" json:"social_history,omitempty"`
	FamilyHistory          *string             `db:"family_history" json:"family_history,omitempty"`
	ManagementPlan         *string             `db:"management_plan" json:"management_plan,omitempty"`
	Notes                  *string             `db:"notes" json:"notes,omitempty"`
	CreatedAt              time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time           `db:"updated_at" json:"updated_at"`

	Patient          *Patient         `json:"patient,omitempty"`
	Diagnoses        []Diagnosis      `json:"diagnoses"`
	LabTests         []LabTest        `json:"lab_tests"`
	RadiologyStudies []RadiologyStudy `json:"radiology_studies"`
	Resources        []Resource       `json:"resources"`
	Tags             []tags.CaseTag   `json:"tags"`
}

// CaseSubmission is the nested creation payload assembled by the wizard and
// accepted by the create operation.
type CaseSubmission struct {
	Patient   SubmissionPatient    `json:"patient"`
	Case      SubmissionCase       `json:"case"`
	Resources []SubmissionResource `json:"resources"`
	TagIDs    []uuid.UUID          `json:"tag_ids,omitempty"`
}

type SubmissionPatient struct {
	Name                string  `json:"name"`
	Age                 int     `json:"age"`
	Gender              string  `json:"gender"`
	MedicalRecordNumber *string `json:"medical_record_number,omitempty"`
}

type SubmissionCase struct {
	Title                  string                `json:"title"`
	Priority               string                `json:"priority"`
	Status                 string                `json:"status"`
	ChiefComplaint         string                `json:"chief_complaint"`
	ChiefComplaintAnalysis string                `json:"chief_complaint_analysis"`
	History                string                `json:"history"`
	PhysicalExam           string                `json:"physical_exam"`
	Symptoms               map[string][]string   `json:"symptoms"`
	Vitals                 map[string]string     `json:"vitals"`
	LabTests               []SubmissionLab       `json:"lab_tests"`
	RadiologyStudies       []SubmissionRadiology `json:"radiology_studies"`
	LearningPoints         string                `json:"learning_points"`
	UrinarySymptoms        []string              `json:"urinary_symptoms"`
	Diagnoses              []SubmissionDiagnosis `json:"diagnoses"`
}

type SubmissionDiagnosis struct {
	Name   string  `json:"name"`
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

type SubmissionLab struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Unit           string  `json:"unit"`
	NormalRange    *string `json:"normal_range,omitempty"`
	Interpretation *string `json:"interpretation,omitempty"`
}

type SubmissionRadiology struct {
	Name       string  `json:"name"`
	Modality   string  `json:"modality"`
	Findings   string  `json:"findings"`
	Date       string  `json:"date"`
	Impression *string `json:"impression,omitempty"`
}

type SubmissionResource struct {
	Title string  `json:"title"`
	Type  string  `json:"type"`
	URL   *string `json:"url,omitempty"`
	Notes *string `json:"notes,omitempty"`
}
