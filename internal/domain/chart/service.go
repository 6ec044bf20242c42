package chart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetChart returns the patient's chart, or an empty one if none has been
// created yet.
func (s *Service) GetChart(ctx context.Context, patientID uuid.UUID) (*Document, error) {
	doc, err := s.repo.GetByPatient(ctx, patientID)
	if errors.Is(err, ErrNotFound) {
		return NewDocument(patientID), nil
	}
	return doc, err
}

// SaveChart persists an explicit chart edit.
func (s *Service) SaveChart(ctx context.Context, doc *Document) error {
	if doc.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if doc.Teeth == nil {
		doc.Teeth = make(map[string]ToothEntry)
	}
	return s.repo.Upsert(ctx, doc)
}

// ApplyTreatment derives a symbol from the procedure text and merges it into
// the patient's chart. Procedures that derive no symbol leave the chart
// untouched and make no persistence call. The chart document is read, merged
// and written back without optimistic locking, so two racing submissions on
// the same patient resolve last-writer-wins.
func (s *Service) ApplyTreatment(ctx context.Context, patientID uuid.UUID, toothID int, procedureText string, date time.Time) error {
	symbol := DeriveSymbol(procedureText)
	if symbol == SymbolNone {
		return nil
	}

	doc, err := s.repo.GetByPatient(ctx, patientID)
	if errors.Is(err, ErrNotFound) {
		doc = NewDocument(patientID)
	} else if err != nil {
		return fmt.Errorf("load chart: %w", err)
	}

	merged := MergeTooth(doc, toothID, symbol, procedureText, date)
	if err := s.repo.Upsert(ctx, merged); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}
