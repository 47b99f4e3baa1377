package wizard

// Step identifiers for the fixed three-step flow.
const (
	StepCaseOverview    = "caseOverview"
	StepClinicalDetails = "clinicalDetails"
	StepLearningPoints  = "learningPoints"
)

// steps in flow order; StepIndex values index into this slice.
var steps = []string{StepCaseOverview, StepClinicalDetails, StepLearningPoints}

// StepCount is the number of wizard steps.
const StepCount = 3

// StepIndexOf returns the position of a step id in the flow, or -1 when the
// id is not a known step.
func StepIndexOf(stepID string) int {
	for i, s := range steps {
		if s == stepID {
			return i
		}
	}
	return -1
}

// StepAt returns the step id at a given index.
func StepAt(index int) string {
	if index < 0 || index >= len(steps) {
		return ""
	}
	return steps[index]
}

// FormData is the single flat form-state object shared by every step. All
// steps read from and write into the same struct, so free back-navigation
// never loses data. Fields a step has not visited stay at their zero value.
type FormData struct {
	// Case overview.
	PatientName            string  `json:"patientName"`
	PatientAge             string  `json:"patientAge"`
	PatientSex             string  `json:"patientSex"`
	MedicalRecordNumber    *string `json:"medicalRecordNumber,omitempty"`
	CaseTitle              string  `json:"caseTitle"`
	Priority               string  `json:"priority"`
	Status                 string  `json:"status"`
	ChiefComplaint         string  `json:"chiefComplaint"`
	ChiefComplaintAnalysis string  `json:"chiefComplaintAnalysis"`
	MedicalHistory         string  `json:"medicalHistory"`

	// Clinical details.
	PatientHistory   string              `json:"patientHistory"`
	PhysicalExam     string              `json:"physicalExam"`
	SystemSymptoms   map[string][]string `json:"systemSymptoms"`
	Vitals           map[string]string   `json:"vitals"`
	LabResults       []LabResult         `json:"labResults"`
	RadiologyStudies []RadiologyEntry    `json:"radiologyStudies"`
	UrinarySymptoms  []string            `json:"urinarySymptoms"`
	Diagnoses        []DiagnosisEntry    `json:"diagnoses"`

	// Learning points.
	LearningPoints string         `json:"learningPoints"`
	ResourceLinks  []ResourceLink `json:"resourceLinks"`

	// Shared tag assignments, picked on the overview step.
	TagIDs []string `json:"tagIds"`
}

// LabResult is one lab test row entered during the clinical-details step.
type LabResult struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Unit           string  `json:"unit"`
	NormalRange    *string `json:"normalRange,omitempty"`
	Interpretation *string `json:"interpretation,omitempty"`
}

// RadiologyEntry is one imaging study row. Date may be omitted by the form;
// submission assembly defaults it.
type RadiologyEntry struct {
	Name       string  `json:"name"`
	Modality   string  `json:"modality"`
	Findings   string  `json:"findings"`
	Date       string  `json:"date"`
	Impression *string `json:"impression,omitempty"`
}

// DiagnosisEntry is one working-diagnosis row.
type DiagnosisEntry struct {
	Name   string  `json:"name"`
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

// ResourceLink is one reference entered on the learning-points step. The URL
// is required and must be syntactically valid; the description is optional.
type ResourceLink struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}
