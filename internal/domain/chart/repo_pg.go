package chart

import (
	"context"
	"encoding/json"

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

const chartCols = `id, patient_id, teeth, periodontal, occlusion, appliances, tmd, created_at, updated_at`

func (r *repoPG) scanChart(row pgx.Row) (*Document, error) {
	var d Document
	var teeth, periodontal, occlusion, appliances, tmd []byte
	err := row.Scan(&d.ID, &d.PatientID, &teeth, &periodontal, &occlusion, &appliances, &tmd,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(teeth, &d.Teeth); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(periodontal, &d.Periodontal); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(occlusion, &d.Occlusion); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(appliances, &d.Appliances); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tmd, &d.TMD); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Document, error) {
	d, err := r.scanChart(r.conn(ctx).QueryRow(ctx,
		`SELECT `+chartCols+` FROM charts WHERE patient_id = $1`, patientID))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *repoPG) Upsert(ctx context.Context, doc *Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	teeth, err := json.Marshal(doc.Teeth)
	if err != nil {
		return err
	}
	periodontal, err := json.Marshal(doc.Periodontal)
	if err != nil {
		return err
	}
	occlusion, err := json.Marshal(doc.Occlusion)
	if err != nil {
		return err
	}
	appliances, err := json.Marshal(doc.Appliances)
	if err != nil {
		return err
	}
	tmd, err := json.Marshal(doc.TMD)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO charts (id, patient_id, teeth, periodontal, occlusion, appliances, tmd)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (patient_id) DO UPDATE SET
			teeth=EXCLUDED.teeth, periodontal=EXCLUDED.periodontal,
			occlusion=EXCLUDED.occlusion, appliances=EXCLUDED.appliances,
			tmd=EXCLUDED.tmd, updated_at=NOW()`,
		doc.ID, doc.PatientID, teeth, periodontal, occlusion, appliances, tmd)
	return err
}
