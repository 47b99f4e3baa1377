package tags

import (
	"context"

	"github.com/google/uuid"
)

type TagRepository interface {
	Create(ctx context.Context, t *CaseTag) error
	GetByID(ctx context.Context, id uuid.UUID) (*CaseTag, error)
	GetByName(ctx context.Context, name string) (*CaseTag, error)
	List(ctx context.Context) ([]*CaseTag, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
