package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, e *Entry) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if e.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	e.IsActive = true
	return s.repo.Create(ctx, e)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, e *Entry) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if e.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return s.repo.Update(ctx, e)
}

// Deactivate retires an entry from the active vocabulary without deleting it;
// historical treatment records keep referencing the name as free text.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	e.IsActive = false
	return s.repo.Update(ctx, e)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Entry, error) {
	return s.repo.List(ctx, activeOnly)
}

// Names returns the active procedure vocabulary.
func (s *Service) Names(ctx context.Context) ([]string, error) {
	entries, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names, nil
}
