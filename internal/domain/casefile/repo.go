package casefile

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists the MedicalCase aggregate. Create writes the full
// related-row graph (patient, case, diagnoses, labs, radiology, resources,
// tag assignments) as one logical unit: it reports success only if every
// row was written.
type Repository interface {
	Create(ctx context.Context, mc *MedicalCase) error
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*MedicalCase, error)
	ListByOwner(ctx context.Context, userID string) ([]*MedicalCase, error)
	Update(ctx context.Context, mc *MedicalCase) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}
