package wizard

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	minPatientAge = 0
	maxPatientAge = 150
)

// ValidateStep runs the field-subset validation for one step and returns a
// field-keyed error map. An empty map means the step is valid.
//
// The overview step requires the identifying fields; the clinical-details
// step has no required fields; the learning-points step validates only the
// shape of what was entered.
func ValidateStep(stepID string, form *FormData) (map[string]string, error) {
	switch stepID {
	case StepCaseOverview:
		return validateOverview(form), nil
	case StepClinicalDetails:
		return validateClinicalDetails(form), nil
	case StepLearningPoints:
		return validateLearningPoints(form), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStep, stepID)
	}
}

// ValidateAll runs every step's validation and merges the field errors, used
// by the full-form check before submission.
func ValidateAll(form *FormData) map[string]string {
	fields := validateOverview(form)
	for k, v := range validateClinicalDetails(form) {
		fields[k] = v
	}
	for k, v := range validateLearningPoints(form) {
		fields[k] = v
	}
	return fields
}

func validateOverview(form *FormData) map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(form.PatientName) == "" {
		fields["patientName"] = "patient name is required"
	}
	if _, err := parseAge(form.PatientAge); err != nil {
		fields["patientAge"] = err.Error()
	}
	if strings.TrimSpace(form.PatientSex) == "" {
		fields["patientSex"] = "patient sex is required"
	}
	if strings.TrimSpace(form.CaseTitle) == "" {
		fields["caseTitle"] = "case title is required"
	}
	if strings.TrimSpace(form.ChiefComplaint) == "" {
		fields["chiefComplaint"] = "chief complaint is required"
	}
	return fields
}

func validateClinicalDetails(_ *FormData) map[string]string {
	// Every clinical-detail field is optional.
	return make(map[string]string)
}

func validateLearningPoints(form *FormData) map[string]string {
	fields := make(map[string]string)
	for i, link := range form.ResourceLinks {
		key := fmt.Sprintf("resourceLinks.%d.url", i)
		if strings.TrimSpace(link.URL) == "" {
			fields[key] = "resource link URL is required"
			continue
		}
		if !isValidURL(link.URL) {
			fields[key] = "resource link URL is not a valid URL"
		}
	}
	return fields
}

// parseAge coerces the form's string age and enforces the 0-150 domain.
// Out-of-range values are rejected, not clamped.
func parseAge(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("patient age is required")
	}
	age, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("patient age must be a whole number")
	}
	if age < minPatientAge || age > maxPatientAge {
		return 0, fmt.Errorf("patient age must be between %d and %d", minPatientAge, maxPatientAge)
	}
	return age, nil
}

func isValidURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
