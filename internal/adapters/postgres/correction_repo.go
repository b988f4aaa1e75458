package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
)

// CorrectionRepo implements ports.CorrectionStore on the alignment_corrections table.
type CorrectionRepo struct {
	db *DB
}

// NewCorrectionRepo creates a new CorrectionRepo.
func NewCorrectionRepo(db *DB) *CorrectionRepo {
	return &CorrectionRepo{db: db}
}

func (r *CorrectionRepo) Get(ctx context.Context, key string) (domain.AlignmentCorrection, error) {
	var raw []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT record FROM alignment_corrections WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AlignmentCorrection{}, fmt.Errorf("correction %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return domain.AlignmentCorrection{}, err
	}
	return domain.DecodeCorrection(raw)
}

func (r *CorrectionRepo) Set(ctx context.Context, key string, rec domain.AlignmentCorrection) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal correction: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO alignment_corrections (key, record, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at
	`, key, raw)
	return err
}

func (r *CorrectionRepo) Delete(ctx context.Context, key string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM alignment_corrections WHERE key = $1`, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("correction %q: %w", key, domain.ErrNotFound)
	}
	return nil
}

// List returns every stored record. Rows that no longer decode are skipped.
func (r *CorrectionRepo) List(ctx context.Context) (map[string]domain.AlignmentCorrection, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT key, record FROM alignment_corrections`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.AlignmentCorrection)
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		rec, err := domain.DecodeCorrection(raw)
		if err != nil {
			continue
		}
		out[key] = rec
	}
	return out, rows.Err()
}
