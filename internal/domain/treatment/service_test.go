package treatment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	items map[uuid.UUID]*Treatment
	// failAt forces Insert to fail for the Nth call (0-based).
	failAt     map[int]error
	insertHits int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		items:  make(map[uuid.UUID]*Treatment),
		failAt: make(map[int]error),
	}
}

func (m *mockRepo) Insert(_ context.Context, t *Treatment) error {
	call := m.insertHits
	m.insertHits++
	if err, ok := m.failAt[call]; ok {
		return err
	}
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	m.items[t.ID] = t
	return nil
}

func (m *mockRepo) InsertBatch(ctx context.Context, ts []*Treatment) []error {
	outcomes := make([]error, len(ts))
	for i, t := range ts {
		outcomes[i] = m.Insert(ctx, t)
	}
	return outcomes
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Treatment, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return t, nil
}

func (m *mockRepo) Update(_ context.Context, t *Treatment) error {
	m.items[t.ID] = t
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, doctorID *uuid.UUID) ([]*Treatment, error) {
	var result []*Treatment
	for _, t := range m.items {
		if t.PatientID != patientID {
			continue
		}
		if doctorID != nil && t.DoctorID != *doctorID {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

// -- Mock Chart Updater --

type chartCall struct {
	patientID uuid.UUID
	tooth     int
	procedure string
}

type mockChart struct {
	calls []chartCall
	err   error
}

func (m *mockChart) ApplyTreatment(_ context.Context, patientID uuid.UUID, toothID int, procedureText string, _ time.Time) error {
	m.calls = append(m.calls, chartCall{patientID: patientID, tooth: toothID, procedure: procedureText})
	return m.err
}

// -- Mock Notifier --

type notifyCall struct {
	patientID  uuid.UUID
	procedures []string
}

type mockNotifier struct {
	calls []notifyCall
}

func (m *mockNotifier) TreatmentSaved(_ context.Context, patientID uuid.UUID, procedures []string, _ time.Time) {
	m.calls = append(m.calls, notifyCall{patientID: patientID, procedures: procedures})
}

// -- Mock Vocabulary --

type mockVocab struct {
	known map[string]bool
	err   error
}

func (m *mockVocab) Known(_ context.Context, name string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.known[name], nil
}

// -- Tests --

func TestSave_Single(t *testing.T) {
	repo := newMockRepo()
	chart := &mockChart{}
	svc := NewService(repo, chart)

	result, err := svc.Save(context.Background(), validInput(ModeSingle))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Saved != 1 || result.Failed != 0 {
		t.Errorf("saved=%d failed=%d", result.Saved, result.Failed)
	}
	if len(repo.items) != 1 {
		t.Errorf("expected 1 persisted record, got %d", len(repo.items))
	}
	if len(chart.calls) != 1 || chart.calls[0].tooth != 14 {
		t.Errorf("chart calls = %+v", chart.calls)
	}
}

func TestSave_ValidationBlocksPersistence(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockChart{})

	in := validInput(ModeMultiTooth)
	in.Plan = ""
	_, err := svc.Save(context.Background(), in)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if repo.insertHits != 0 {
		t.Errorf("expected no persistence calls, got %d", repo.insertHits)
	}
}

func TestSave_PartialBatchFailure(t *testing.T) {
	repo := newMockRepo()
	repo.failAt[1] = fmt.Errorf("connection reset")
	chart := &mockChart{}
	svc := NewService(repo, chart)

	result, err := svc.Save(context.Background(), validInput(ModeMultiTooth))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Saved != 2 || result.Failed != 1 {
		t.Fatalf("saved=%d failed=%d, want 2/1", result.Saved, result.Failed)
	}
	if result.Outcomes[0].Err != nil || result.Outcomes[2].Err != nil {
		t.Error("outcomes 0 and 2 should have succeeded")
	}
	if result.Outcomes[1].Err == nil {
		t.Error("outcome 1 should have failed")
	}
	// Only saved records trigger chart updates.
	if len(chart.calls) != 2 {
		t.Errorf("expected 2 chart calls, got %d", len(chart.calls))
	}
}

func TestSave_ChartFailureIsWarning(t *testing.T) {
	repo := newMockRepo()
	chart := &mockChart{err: fmt.Errorf("chart store down")}
	svc := NewService(repo, chart)

	result, err := svc.Save(context.Background(), validInput(ModeSingle))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Saved != 1 {
		t.Fatalf("saved=%d, want 1; the treatment itself must still save", result.Saved)
	}
	if result.Outcomes[0].ChartWarning == "" {
		t.Error("expected a chart warning on the outcome")
	}
	if !strings.Contains(result.Outcomes[0].ChartWarning, "stale") {
		t.Errorf("warning = %q", result.Outcomes[0].ChartWarning)
	}
}

func TestSave_CleaningStillCallsChartUpdater(t *testing.T) {
	// The updater itself decides that cleaning derives no symbol; the
	// service hands every saved record over.
	repo := newMockRepo()
	chart := &mockChart{}
	svc := NewService(repo, chart)

	in := validInput(ModeSingle)
	in.Procedure = "Routine Cleaning"
	if _, err := svc.Save(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chart.calls) != 1 {
		t.Errorf("expected 1 chart call, got %d", len(chart.calls))
	}
}

func TestSave_UnknownProcedureRejected(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockChart{})
	svc.SetVocabulary(&mockVocab{known: map[string]bool{"Extraction": true}})

	_, err := svc.Save(context.Background(), validInput(ModeSingle))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "procedure" {
		t.Fatalf("expected procedure validation error, got %v", err)
	}
	if repo.insertHits != 0 {
		t.Errorf("expected no persistence calls, got %d", repo.insertHits)
	}
}

func TestSave_KnownProcedurePasses(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockChart{})
	svc.SetVocabulary(&mockVocab{known: map[string]bool{"Tooth Filling": true, "Routine Cleaning": true}})

	result, err := svc.Save(context.Background(), validInput(ModeMultiProcedure))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Saved != 2 {
		t.Errorf("saved=%d, want 2", result.Saved)
	}
}

func TestSave_VocabularyLookupFailureDoesNotBlock(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockChart{})
	svc.SetVocabulary(&mockVocab{err: fmt.Errorf("catalog unavailable")})

	result, err := svc.Save(context.Background(), validInput(ModeSingle))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Saved != 1 {
		t.Errorf("saved=%d, want 1", result.Saved)
	}
}

func TestSave_NotifierSkipsFailedRecords(t *testing.T) {
	repo := newMockRepo()
	repo.failAt[1] = fmt.Errorf("connection reset")
	notifier := &mockNotifier{}
	svc := NewService(repo, &mockChart{})
	svc.SetNotifier(notifier)

	in := validInput(ModeMultiTooth)
	if _, err := svc.Save(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.calls))
	}
	if got := len(notifier.calls[0].procedures); got != 2 {
		t.Errorf("expected 2 procedures in the notification, got %d", got)
	}
}

func TestSave_NoNotificationWhenNothingSaved(t *testing.T) {
	repo := newMockRepo()
	repo.failAt[0] = fmt.Errorf("down")
	notifier := &mockNotifier{}
	svc := NewService(repo, &mockChart{})
	svc.SetNotifier(notifier)

	if _, err := svc.Save(context.Background(), validInput(ModeSingle)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Errorf("expected no notifications, got %d", len(notifier.calls))
	}
}

func TestUpdate_PreservesStoredMarker(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockChart{})

	marker := "<!--APPOINTMENT_REF:abc123:Cabugao:09:00:00-->"
	stored := &Treatment{
		ID:            uuid.New(),
		PatientID:     uuid.New(),
		DoctorID:      uuid.New(),
		Procedure:     "Tooth Filling",
		Tooth:         14,
		Plan:          "restore function",
		Notes:         "initial notes" + marker,
		TreatmentDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:     time.Now(),
	}
	repo.items[stored.ID] = stored

	in := validInput(ModeSingle)
	in.PatientID = stored.PatientID
	in.DoctorID = stored.DoctorID
	in.Notes = "follow-up needed"
	in.EditID = stored.ID

	result, err := svc.Update(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Saved != 1 {
		t.Fatalf("saved=%d", result.Saved)
	}
	got := repo.items[stored.ID].Notes
	want := "follow-up needed" + marker
	if got != want {
		t.Errorf("notes = %q, want %q", got, want)
	}
}

func TestUpdate_RequiresID(t *testing.T) {
	svc := NewService(newMockRepo(), &mockChart{})
	_, err := svc.Update(context.Background(), validInput(ModeSingle))
	if err == nil {
		t.Fatal("expected error without record id")
	}
}

func TestListByPatient_DoctorFilter(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockChart{})
	patientID := uuid.New()
	doctorA := uuid.New()
	doctorB := uuid.New()

	for _, doc := range []uuid.UUID{doctorA, doctorA, doctorB} {
		in := validInput(ModeSingle)
		in.PatientID = patientID
		in.DoctorID = doc
		if _, err := svc.Save(context.Background(), in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := svc.ListByPatient(context.Background(), patientID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}

	mine, err := svc.ListByPatient(context.Background(), patientID, &doctorA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("doctorA = %d, want 2", len(mine))
	}
}
