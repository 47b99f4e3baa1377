package tags

import (
	"time"

	"github.com/google/uuid"
)

// CaseTag is a shared, reusable label attachable to many cases via an
// assignment relation. Tags are a shared vocabulary, not owned by any
// single case.
type CaseTag struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Color     string    `db:"color" json:"color"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
