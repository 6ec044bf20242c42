package treatment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smilecare/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const treatmentCols = `id, patient_id, doctor_id, procedure, tooth, plan, notes,
	treatment_date, created_at, updated_at`

func (r *repoPG) scanTreatment(row pgx.Row) (*Treatment, error) {
	var t Treatment
	err := row.Scan(&t.ID, &t.PatientID, &t.DoctorID, &t.Procedure, &t.Tooth,
		&t.Plan, &t.Notes, &t.TreatmentDate, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *repoPG) Insert(ctx context.Context, t *Treatment) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatments (id, patient_id, doctor_id, procedure, tooth, plan, notes, treatment_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, t.PatientID, t.DoctorID, t.Procedure, t.Tooth, t.Plan, t.Notes, t.TreatmentDate)
	return err
}

func (r *repoPG) InsertBatch(ctx context.Context, ts []*Treatment) []error {
	outcomes := make([]error, len(ts))
	for i, t := range ts {
		outcomes[i] = r.Insert(ctx, t)
	}
	return outcomes
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	return r.scanTreatment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+treatmentCols+` FROM treatments WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, t *Treatment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatments SET procedure=$2, tooth=$3, plan=$4, notes=$5,
			treatment_date=$6, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Procedure, t.Tooth, t.Plan, t.Notes, t.TreatmentDate)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM treatments WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, doctorID *uuid.UUID) ([]*Treatment, error) {
	query := `SELECT ` + treatmentCols + ` FROM treatments WHERE patient_id = $1`
	args := []interface{}{patientID}
	if doctorID != nil {
		query += ` AND doctor_id = $2`
		args = append(args, *doctorID)
	}
	query += ` ORDER BY treatment_date DESC, created_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Treatment
	for rows.Next() {
		t, err := r.scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
