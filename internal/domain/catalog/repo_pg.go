package catalog

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

const entryCols = `id, name, description, price, is_active, created_at, updated_at`

func (r *repoPG) scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Price, &e.IsActive,
		&e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO service_catalog (id, name, description, price, is_active)
		VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.Name, e.Description, e.Price, e.IsActive)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return r.scanEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT `+entryCols+` FROM service_catalog WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, e *Entry) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE service_catalog SET name=$2, description=$3, price=$4, is_active=$5, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.Name, e.Description, e.Price, e.IsActive)
	return err
}

func (r *repoPG) List(ctx context.Context, activeOnly bool) ([]*Entry, error) {
	query := `SELECT ` + entryCols + ` FROM service_catalog`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := r.conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Entry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
