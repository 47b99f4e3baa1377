package tags

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caselog/caselog/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type tagRepoPG struct{ pool *pgxpool.Pool }

func NewTagRepoPG(pool *pgxpool.Pool) TagRepository {
	return &tagRepoPG{pool: pool}
}

func (r *tagRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const tagCols = `id, name, color, created_at`

func (r *tagRepoPG) scanRow(row pgx.Row) (*CaseTag, error) {
	var t CaseTag
	err := row.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt)
	return &t, err
}

func (r *tagRepoPG) Create(ctx context.Context, t *CaseTag) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO case_tags (id, name, color) VALUES ($1, $2, $3)`,
		t.ID, t.Name, t.Color)
	return err
}

func (r *tagRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*CaseTag, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+tagCols+` FROM case_tags WHERE id = $1`, id))
}

func (r *tagRepoPG) GetByName(ctx context.Context, name string) (*CaseTag, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+tagCols+` FROM case_tags WHERE LOWER(name) = LOWER($1)`, name))
}

func (r *tagRepoPG) List(ctx context.Context) ([]*CaseTag, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+tagCols+` FROM case_tags ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*CaseTag
	for rows.Next() {
		t, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *tagRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	// Assignment rows go with the tag; cases referencing it keep existing.
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM case_tag_assignments WHERE tag_id = $1`, id); err != nil {
		return err
	}
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM case_tags WHERE id = $1`, id)
	return err
}
