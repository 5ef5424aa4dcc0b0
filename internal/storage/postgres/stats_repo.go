package postgres

import (
	"context"
	"fmt"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/dashboard"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// StatsRepository runs the dashboard reporting queries through sqlx on the
// shared pgx pool.
type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: sqlx.NewDb(stdlib.OpenDBFromPool(db.Pool), "pgx")}
}

func (r *StatsRepository) Totals(ctx context.Context) (*dashboard.Totals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM properties) AS properties,
			(SELECT COALESCE(SUM(amount), 0)::text FROM payments WHERE status = 'completed') AS revenue,
			(SELECT COUNT(*) FROM payments WHERE status = 'completed') AS transactions,
			(SELECT COUNT(*) FROM profiles WHERE role = 'landlord') AS landlords,
			(SELECT COUNT(*) FROM profiles WHERE role = 'tenant') AS tenants
	`
	var totals dashboard.Totals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	return &totals, nil
}

func (r *StatsRepository) RecentProperties(ctx context.Context, limit int) ([]api.RecentProperty, error) {
	query := `
		SELECT title, location, price::float8 AS price, created_at
		FROM properties
		ORDER BY created_at DESC
		LIMIT $1
	`
	recent := make([]api.RecentProperty, 0, limit)
	if err := r.db.SelectContext(ctx, &recent, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query recent properties: %w", err)
	}
	return recent, nil
}
