package chart

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	charts     map[uuid.UUID]*Document
	upsertErr  error
	upsertHits int
}

func newMockRepo() *mockRepo {
	return &mockRepo{charts: make(map[uuid.UUID]*Document)}
}

func (m *mockRepo) GetByPatient(_ context.Context, patientID uuid.UUID) (*Document, error) {
	d, ok := m.charts[patientID]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *mockRepo) Upsert(_ context.Context, doc *Document) error {
	m.upsertHits++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	m.charts[doc.PatientID] = doc
	return nil
}

// -- Symbol Derivation --

func TestDeriveSymbol(t *testing.T) {
	cases := []struct {
		procedure string
		want      Symbol
	}{
		{"Tooth Filling", SymbolFilled},
		{"Composite Restoration", SymbolFilled},
		{"Tooth Extraction", SymbolMissing},
		{"Porcelain Crown", SymbolCrown},
		{"Root Canal Therapy", SymbolFilled},
		{"Routine Cleaning", SymbolNone},
		{"Orthodontic Consultation", SymbolNone},
		{"FILLING", SymbolFilled},
		{"", SymbolNone},
	}
	for _, tc := range cases {
		if got := DeriveSymbol(tc.procedure); got != tc.want {
			t.Errorf("DeriveSymbol(%q) = %q, want %q", tc.procedure, got, tc.want)
		}
	}
}

func TestDeriveSymbol_RestorationBeforeCrown(t *testing.T) {
	// "Crown Restoration" contains both keywords; restoration is checked
	// first and must win.
	if got := DeriveSymbol("Crown Restoration"); got != SymbolFilled {
		t.Errorf("DeriveSymbol(\"Crown Restoration\") = %q, want %q", got, SymbolFilled)
	}
}

// -- Chart Merge --

func TestMergeTooth_Locality(t *testing.T) {
	doc := NewDocument(uuid.New())
	doc.Teeth["1"] = ToothEntry{Symbol: "E"}
	doc.Teeth["5"] = ToothEntry{Symbol: "B"}
	doc.Periodontal["bleeding"] = true
	original1 := doc.Teeth["1"]

	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	merged := MergeTooth(doc, 5, SymbolFilled, "Tooth Filling", date)

	if !reflect.DeepEqual(merged.Teeth["1"], original1) {
		t.Errorf("tooth 1 changed: %+v", merged.Teeth["1"])
	}
	got := merged.Teeth["5"]
	if got.Symbol != SymbolFilled || got.Procedure != "Tooth Filling" || got.TreatmentDate != "2026-03-14" {
		t.Errorf("tooth 5 = %+v", got)
	}
	if !merged.Periodontal["bleeding"] {
		t.Error("periodontal section not preserved")
	}

	// The input document must not have been mutated.
	if doc.Teeth["5"].Symbol != "B" {
		t.Errorf("input document mutated: tooth 5 = %+v", doc.Teeth["5"])
	}
}

func TestMergeTooth_NoneIsNoOp(t *testing.T) {
	doc := NewDocument(uuid.New())
	doc.Teeth["3"] = ToothEntry{Symbol: SymbolCrown}

	merged := MergeTooth(doc, 3, SymbolNone, "Routine Cleaning", time.Now())
	if merged != doc {
		t.Error("expected the same document back for SymbolNone")
	}
}

func TestMergeTooth_TemporaryToothKey(t *testing.T) {
	doc := NewDocument(uuid.New())
	merged := MergeTooth(doc, 102, SymbolMissing, "Tooth Extraction", time.Now())
	if _, ok := merged.Teeth["102"]; !ok {
		t.Errorf("expected key 102, got %v", merged.Teeth)
	}
}

// -- Service --

func TestApplyTreatment_CreatesChartLazily(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	patientID := uuid.New()

	err := svc.ApplyTreatment(context.Background(), patientID, 14, "Tooth Filling",
		time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, ok := repo.charts[patientID]
	if !ok {
		t.Fatal("expected chart to be created")
	}
	if doc.Teeth["14"].Symbol != SymbolFilled {
		t.Errorf("tooth 14 = %+v", doc.Teeth["14"])
	}
}

func TestApplyTreatment_CleaningSkipsPersistence(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	err := svc.ApplyTreatment(context.Background(), uuid.New(), 8, "Routine Cleaning", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.upsertHits != 0 {
		t.Errorf("expected no upsert for cleaning, got %d", repo.upsertHits)
	}
}

func TestApplyTreatment_MergesIntoExisting(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	patientID := uuid.New()

	existing := NewDocument(patientID)
	existing.Teeth["2"] = ToothEntry{Symbol: SymbolCrown, Procedure: "Porcelain Crown"}
	repo.charts[patientID] = existing

	err := svc.ApplyTreatment(context.Background(), patientID, 30, "Tooth Extraction",
		time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := repo.charts[patientID]
	if doc.Teeth["2"].Symbol != SymbolCrown {
		t.Errorf("existing tooth entry lost: %+v", doc.Teeth["2"])
	}
	if doc.Teeth["30"].Symbol != SymbolMissing {
		t.Errorf("tooth 30 = %+v", doc.Teeth["30"])
	}
}

func TestApplyTreatment_UpsertFailure(t *testing.T) {
	repo := newMockRepo()
	repo.upsertErr = fmt.Errorf("connection reset")
	svc := NewService(repo)

	err := svc.ApplyTreatment(context.Background(), uuid.New(), 14, "Tooth Filling", time.Now())
	if err == nil {
		t.Fatal("expected error from failed upsert")
	}
}

func TestGetChart_EmptyWhenMissing(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	patientID := uuid.New()

	doc, err := svc.GetChart(context.Background(), patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.PatientID != patientID {
		t.Errorf("patient id = %v, want %v", doc.PatientID, patientID)
	}
	if len(doc.Teeth) != 0 {
		t.Errorf("expected empty teeth map, got %v", doc.Teeth)
	}
}

func TestSaveChart_RequiresPatient(t *testing.T) {
	svc := NewService(newMockRepo())
	err := svc.SaveChart(context.Background(), &Document{})
	if err == nil {
		t.Fatal("expected error for missing patient id")
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("unexpected error type: %v", err)
	}
}
