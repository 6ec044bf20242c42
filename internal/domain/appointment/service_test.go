package appointment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	items map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.items[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return a, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	m.items[a.ID] = a
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.items {
		if a.PatientID == patientID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) ListCompleted(_ context.Context, patientID, dentistID uuid.UUID) ([]*Appointment, error) {
	var result []*Appointment
	for _, a := range m.items {
		if a.PatientID == patientID && a.DentistID == dentistID && a.Status == StatusCompleted {
			result = append(result, a)
		}
	}
	return result, nil
}

// -- Mock Treatment Source --

type mockTreatmentSource struct {
	refs []TreatmentRef
}

func (m *mockTreatmentSource) ListRefs(_ context.Context, _ uuid.UUID) ([]TreatmentRef, error) {
	return m.refs, nil
}

// -- Tests --

func completedAppointment(patientID, dentistID uuid.UUID, date time.Time) *Appointment {
	return &Appointment{
		PatientID: patientID,
		DentistID: dentistID,
		Branch:    "Cabugao",
		Date:      date,
		Time:      "09:00:00",
		Status:    StatusCompleted,
		Services:  []string{"Tooth Filling"},
	}
}

func TestCreate_Defaults(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockTreatmentSource{})

	a := completedAppointment(uuid.New(), uuid.New(), time.Now())
	a.Status = ""
	if err := svc.Create(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("status = %q, want pending", a.Status)
	}
}

func TestCreate_FieldRequired(t *testing.T) {
	svc := NewService(newMockRepo(), &mockTreatmentSource{})
	a := completedAppointment(uuid.New(), uuid.New(), time.Now())
	a.Branch = ""
	if err := svc.Create(context.Background(), a); err == nil {
		t.Fatal("expected error for missing branch")
	}
}

func TestCreate_InvalidStatus(t *testing.T) {
	svc := NewService(newMockRepo(), &mockTreatmentSource{})
	a := completedAppointment(uuid.New(), uuid.New(), time.Now())
	a.Status = "rescheduled"
	if err := svc.Create(context.Background(), a); err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestIsCovered_CurrentMarker(t *testing.T) {
	a := &Appointment{ID: uuid.New()}
	notes := []string{
		"patient was anxious<!--APPOINTMENT_REF:" + a.ID.String() + ":Cabugao:09:00:00-->",
	}
	if !IsCovered(a, notes) {
		t.Error("expected current-format marker to cover the appointment")
	}
}

func TestIsCovered_LegacyMarker(t *testing.T) {
	a := &Appointment{ID: uuid.New()}
	notes := []string{"From appointment ID " + a.ID.String() + ": routine"}
	if !IsCovered(a, notes) {
		t.Error("expected legacy-format marker to cover the appointment")
	}
}

func TestIsCovered_UnrelatedNotes(t *testing.T) {
	a := &Appointment{ID: uuid.New()}
	notes := []string{"no complications", "patient was anxious"}
	if IsCovered(a, notes) {
		t.Error("unrelated notes must not cover the appointment")
	}
}

func TestListAvailable_SuppressesOnlyMarkerMatches(t *testing.T) {
	repo := newMockRepo()
	patientID := uuid.New()
	dentistID := uuid.New()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	covered := completedAppointment(patientID, dentistID, day)
	uncovered := completedAppointment(patientID, dentistID, day)
	sameDay := completedAppointment(patientID, dentistID, day.AddDate(0, 0, 7))
	for _, a := range []*Appointment{covered, uncovered, sameDay} {
		if err := repo.Create(context.Background(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	source := &mockTreatmentSource{refs: []TreatmentRef{
		// Marker match for the covered appointment.
		{Notes: "done<!--APPOINTMENT_REF:" + covered.ID.String() + ":Cabugao:09:00:00-->", Date: day},
		// Same calendar date as sameDay but no marker; must not suppress.
		{Notes: "ad hoc visit", Date: day.AddDate(0, 0, 7)},
	}}
	svc := NewService(repo, source)

	available, err := svc.ListAvailableForTreatment(context.Background(), patientID, dentistID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("available = %d, want 2", len(available))
	}
	for _, a := range available {
		if a.ID == covered.ID {
			t.Error("marker-covered appointment must be suppressed")
		}
	}
}

func TestListSuggestions_SameDayAnnotatesOnly(t *testing.T) {
	repo := newMockRepo()
	patientID := uuid.New()
	dentistID := uuid.New()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	hinted := completedAppointment(patientID, dentistID, day)
	plain := completedAppointment(patientID, dentistID, day.AddDate(0, 0, 14))
	for _, a := range []*Appointment{hinted, plain} {
		if err := repo.Create(context.Background(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	source := &mockTreatmentSource{refs: []TreatmentRef{
		{Notes: "ad hoc visit", Date: day},
	}}
	svc := NewService(repo, source)

	suggestions, err := svc.ListSuggestions(context.Background(), patientID, dentistID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("suggestions = %d, want 2; the date hint must never hide an appointment", len(suggestions))
	}
	for _, s := range suggestions {
		switch s.Appointment.ID {
		case hinted.ID:
			if !s.SameDayTreatment {
				t.Error("expected same-day hint on the matching appointment")
			}
		case plain.ID:
			if s.SameDayTreatment {
				t.Error("unexpected same-day hint")
			}
		}
	}
}
