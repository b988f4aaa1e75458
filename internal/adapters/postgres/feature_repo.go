package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
)

// FeatureRepo implements ports.FeatureRepository and ports.FeatureSource with pgx.
type FeatureRepo struct {
	db *DB
}

// NewFeatureRepo creates a new FeatureRepo.
func NewFeatureRepo(db *DB) *FeatureRepo {
	return &FeatureRepo{db: db}
}

// ReplaceBody swaps the whole gazetteer of body in one transaction.
func (r *FeatureRepo) ReplaceBody(ctx context.Context, body domain.Body, features []domain.GazetteerFeature) (int, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM gazetteer_features WHERE body = $1`, body.String()); err != nil {
		return 0, fmt.Errorf("clear body %s: %w", body, err)
	}

	batch := &pgx.Batch{}
	for _, f := range features {
		batch.Queue(`
			INSERT INTO gazetteer_features (body, name, lat, lon, diameter_km, category, origin, keywords)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (body, name) DO UPDATE
			SET lat = EXCLUDED.lat, lon = EXCLUDED.lon, diameter_km = EXCLUDED.diameter_km,
			    category = EXCLUDED.category, origin = EXCLUDED.origin, keywords = EXCLUDED.keywords
		`, body.String(), f.Name, f.Lat, f.Lon, f.DiameterKm, f.Category, f.Origin, f.Keywords)
	}
	br := tx.SendBatch(ctx, batch)
	for range features {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("batch close: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(features), nil
}

// Count returns the number of stored features for body.
func (r *FeatureRepo) Count(ctx context.Context, body domain.Body) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM gazetteer_features WHERE body = $1`, body.String()).Scan(&n)
	return n, err
}

// LoadFeatures returns every feature of body ordered by name.
func (r *FeatureRepo) LoadFeatures(ctx context.Context, body domain.Body) ([]domain.GazetteerFeature, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT name, lat, lon, diameter_km, COALESCE(category, ''), COALESCE(origin, ''),
		       COALESCE(keywords, '{}')
		FROM gazetteer_features
		WHERE body = $1
		ORDER BY name
	`, body.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GazetteerFeature
	for rows.Next() {
		f := domain.GazetteerFeature{Body: body}
		if err := rows.Scan(&f.Name, &f.Lat, &f.Lon, &f.DiameterKm, &f.Category, &f.Origin, &f.Keywords); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
