package chart

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a patient has no chart yet.
var ErrNotFound = errors.New("chart not found")

type Repository interface {
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*Document, error)
	Upsert(ctx context.Context, doc *Document) error
}
