package wizard

import "errors"

var (
	// ErrSessionNotFound is returned when a session id does not exist or
	// belongs to another user.
	ErrSessionNotFound = errors.New("wizard session not found")

	// ErrSubmitInFlight is returned when a submission is already running for
	// the session. The caller should wait for the pending submit to settle.
	ErrSubmitInFlight = errors.New("submission already in progress")

	// ErrUnknownStep is returned for a step id outside the fixed flow.
	ErrUnknownStep = errors.New("unknown wizard step")
)

// correctionAnnouncement is the accessible announcement raised alongside
// field-scoped validation errors and cleared once validation passes.
const correctionAnnouncement = "Please correct the errors."

// ValidationError carries field-scoped messages plus the accessible
// announcement. It never propagates past the wizard boundary; the handler
// renders it as an unprocessable-entity response.
type ValidationError struct {
	Fields       map[string]string `json:"errors"`
	Announcement string            `json:"announcement"`
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Announcement
}

func newValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields, Announcement: correctionAnnouncement}
}
