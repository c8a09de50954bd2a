package note

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type noteRepoPG struct{ pool *pgxpool.Pool }

func NewNoteRepoPG(pool *pgxpool.Pool) Repository {
	return &noteRepoPG{pool: pool}
}

const noteCols = `id, patient_id, note, created_at, updated_at`

func (r *noteRepoPG) scanRow(row pgx.Row) (*Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.PatientID, &n.Text, &n.CreatedAt, &n.UpdatedAt)
	return &n, err
}

func (r *noteRepoPG) Insert(ctx context.Context, n *Note) error {
	n.ID = uuid.NewString()
	return r.pool.QueryRow(ctx, `
		INSERT INTO patient_note (id, patient_id, note)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		n.ID, n.PatientID, n.Text).Scan(&n.CreatedAt, &n.UpdatedAt)
}

func (r *noteRepoPG) GetByID(ctx context.Context, id string) (*Note, error) {
	n, err := r.scanRow(r.pool.QueryRow(ctx, `SELECT `+noteCols+` FROM patient_note WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *noteRepoPG) List(ctx context.Context) ([]*Note, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+noteCols+` FROM patient_note ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *noteRepoPG) ListByPatient(ctx context.Context, patientID int) ([]*Note, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+noteCols+` FROM patient_note WHERE patient_id = $1 ORDER BY created_at, id`, patientID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *noteRepoPG) Save(ctx context.Context, n *Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	var createdAt *time.Time
	if !n.CreatedAt.IsZero() {
		createdAt = &n.CreatedAt
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO patient_note (id, patient_id, note, created_at)
		VALUES ($1, $2, $3, COALESCE($4::timestamptz, NOW()))
		ON CONFLICT (id) DO UPDATE
			SET patient_id = EXCLUDED.patient_id, note = EXCLUDED.note, updated_at = NOW()
		RETURNING created_at, updated_at`,
		n.ID, n.PatientID, n.Text, createdAt).Scan(&n.CreatedAt, &n.UpdatedAt)
}

func (r *noteRepoPG) collect(rows pgx.Rows) ([]*Note, error) {
	defer rows.Close()
	items := []*Note{}
	for rows.Next() {
		n, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}
