package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/jackc/pgx/v5"
)

// ProfileRepository implements accounts.Repository using PostgreSQL
type ProfileRepository struct {
	db *DB
}

func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, email, full_name, phone, role, password_hash, created_at, updated_at`

func (r *ProfileRepository) queryOne(ctx context.Context, query string, args ...any) (*api.Profile, error) {
	var p api.Profile
	var role string
	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(
		&p.Id,
		&p.Email,
		&p.FullName,
		&p.Phone,
		&role,
		&p.PasswordHash,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	p.Role = api.Role(role)
	return &p, nil
}

func (r *ProfileRepository) Create(ctx context.Context, p *api.Profile) (bool, error) {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		p.Id,
		p.Email,
		p.FullName,
		p.Phone,
		string(p.Role),
		p.PasswordHash,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert profile: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, profileID string) (*api.Profile, error) {
	if !validID(profileID) {
		return nil, nil
	}
	return r.queryOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, profileID)
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*api.Profile, error) {
	return r.queryOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1)`, email)
}

func (r *ProfileRepository) UpdateCredentials(ctx context.Context, profileID string, role api.Role, passwordHash string) error {
	query := `UPDATE profiles SET role = $2, password_hash = $3, updated_at = now() WHERE id = $1`
	if _, err := r.db.Pool.Exec(ctx, query, profileID, string(role), passwordHash); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
