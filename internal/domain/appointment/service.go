package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smilecare/clinic/pkg/apptref"
)

type Service struct {
	repo       Repository
	treatments TreatmentSource
}

func NewService(repo Repository, treatments TreatmentSource) *Service {
	return &Service{repo: repo, treatments: treatments}
}

var validStatuses = map[string]bool{
	StatusPending: true, StatusApproved: true,
	StatusCompleted: true, StatusCancelled: true,
}

func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.DentistID == uuid.Nil {
		return fmt.Errorf("dentist_id is required")
	}
	if a.Branch == "" {
		return fmt.Errorf("branch is required")
	}
	if a.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if a.Time == "" {
		return fmt.Errorf("time is required")
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	if !validStatuses[a.Status] {
		return fmt.Errorf("invalid status: %s", a.Status)
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, a *Appointment) error {
	if a.Status != "" && !validStatuses[a.Status] {
		return fmt.Errorf("invalid status: %s", a.Status)
	}
	return s.repo.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListCompleted(ctx context.Context, patientID, dentistID uuid.UUID) ([]*Appointment, error) {
	return s.repo.ListCompleted(ctx, patientID, dentistID)
}

// IsCovered reports whether any of the given treatment notes carry a marker
// referencing the appointment. Only exact marker matches count; the date
// heuristic is reserved for non-suppressing suggestions.
func IsCovered(a *Appointment, notes []string) bool {
	id := a.ID.String()
	for _, n := range notes {
		if apptref.References(n, id) {
			return true
		}
	}
	return false
}

// ListAvailableForTreatment returns completed appointments that have no
// treatment record yet, judged solely by marker matching. Coverage inference
// is best-effort: it depends on the marker surviving note edits.
func (s *Service) ListAvailableForTreatment(ctx context.Context, patientID, dentistID uuid.UUID) ([]*Appointment, error) {
	completed, err := s.repo.ListCompleted(ctx, patientID, dentistID)
	if err != nil {
		return nil, err
	}
	refs, err := s.treatments.ListRefs(ctx, patientID)
	if err != nil {
		return nil, err
	}
	notes := make([]string, len(refs))
	for i, ref := range refs {
		notes[i] = ref.Notes
	}

	var available []*Appointment
	for _, a := range completed {
		if !IsCovered(a, notes) {
			available = append(available, a)
		}
	}
	return available, nil
}

// ListSuggestions returns the available appointments annotated with a weak
// same-calendar-date hint against existing treatments. The hint can false
// positive when a patient had several visits on one day, so it must only
// annotate, never suppress.
func (s *Service) ListSuggestions(ctx context.Context, patientID, dentistID uuid.UUID) ([]*Suggestion, error) {
	completed, err := s.repo.ListCompleted(ctx, patientID, dentistID)
	if err != nil {
		return nil, err
	}
	refs, err := s.treatments.ListRefs(ctx, patientID)
	if err != nil {
		return nil, err
	}
	notes := make([]string, len(refs))
	for i, ref := range refs {
		notes[i] = ref.Notes
	}

	var suggestions []*Suggestion
	for _, a := range completed {
		if IsCovered(a, notes) {
			continue
		}
		suggestions = append(suggestions, &Suggestion{
			Appointment:      a,
			SameDayTreatment: hasSameDayTreatment(a.Date, refs),
		})
	}
	return suggestions, nil
}

func hasSameDayTreatment(date time.Time, refs []TreatmentRef) bool {
	y, m, d := date.Date()
	for _, ref := range refs {
		ry, rm, rd := ref.Date.Date()
		if ry == y && rm == m && rd == d {
			return true
		}
	}
	return false
}
