package tags

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrTagNotFound is returned when a requested tag does not exist.
var ErrTagNotFound = errors.New("tag not found")

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type Service struct {
	repo TagRepository
}

func NewService(repo TagRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateTag(ctx context.Context, t *CaseTag) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("tag name is required")
	}
	if t.Color == "" {
		t.Color = "#6b7280"
	}
	if !hexColorPattern.MatchString(t.Color) {
		return fmt.Errorf("invalid tag color: %s", t.Color)
	}
	return s.repo.Create(ctx, t)
}

func (s *Service) GetTag(ctx context.Context, id uuid.UUID) (*CaseTag, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *Service) ListTags(ctx context.Context) ([]*CaseTag, error) {
	return s.repo.List(ctx)
}

func (s *Service) DeleteTag(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetTag(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
