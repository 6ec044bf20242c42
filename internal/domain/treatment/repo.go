package treatment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, t *Treatment) error
	// InsertBatch persists each record independently and returns one outcome
	// per input index; a failure at one index does not stop the rest.
	InsertBatch(ctx context.Context, ts []*Treatment) []error
	GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error)
	Update(ctx context.Context, t *Treatment) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, doctorID *uuid.UUID) ([]*Treatment, error)
}

// ChartUpdater reconciles the patient's chart after a record is saved. The
// chart service satisfies this; wiring happens in main to keep the packages
// decoupled.
type ChartUpdater interface {
	ApplyTreatment(ctx context.Context, patientID uuid.UUID, toothID int, procedureText string, date time.Time) error
}

// ProcedureVocabulary answers whether a procedure name is offered by the
// clinic. The service catalog satisfies this through an adapter; a nil
// vocabulary disables the check so free-text procedures stay accepted.
type ProcedureVocabulary interface {
	Known(ctx context.Context, name string) (bool, error)
}

// Notifier receives a best-effort signal after a submission saves at least
// one record. Implementations must not block or fail the save.
type Notifier interface {
	TreatmentSaved(ctx context.Context, patientID uuid.UUID, procedures []string, date time.Time)
}
