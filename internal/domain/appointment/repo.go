package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListCompleted(ctx context.Context, patientID, dentistID uuid.UUID) ([]*Appointment, error)
}

// TreatmentRef is the slice of a treatment record the coverage check needs.
type TreatmentRef struct {
	Notes string
	Date  time.Time
}

// TreatmentSource supplies existing treatment references for a patient. The
// treatment service satisfies this through an adapter wired in main.
type TreatmentSource interface {
	ListRefs(ctx context.Context, patientID uuid.UUID) ([]TreatmentRef, error)
}
