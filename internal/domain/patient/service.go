package patient

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

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if strings.TrimSpace(p.FirstName) == "" {
		return fmt.Errorf("first_name is required")
	}
	if strings.TrimSpace(p.LastName) == "" {
		return fmt.Errorf("last_name is required")
	}
	if p.Branch == "" {
		return fmt.Errorf("branch is required")
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if strings.TrimSpace(p.FirstName) == "" {
		return fmt.Errorf("first_name is required")
	}
	if strings.TrimSpace(p.LastName) == "" {
		return fmt.Errorf("last_name is required")
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	if strings.TrimSpace(query) != "" {
		return s.repo.SearchByName(ctx, strings.TrimSpace(query), limit, offset)
	}
	return s.repo.List(ctx, limit, offset)
}
