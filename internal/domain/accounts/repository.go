package accounts

import (
	"context"

	"github.com/Meshack-Mesh/house-hunt-view/api"
)

type Repository interface {
	// Create inserts a profile; it returns false when the email is taken.
	Create(ctx context.Context, profile *api.Profile) (bool, error)

	GetByID(ctx context.Context, profileID string) (*api.Profile, error)

	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*api.Profile, error)

	UpdateCredentials(ctx context.Context, profileID string, role api.Role, passwordHash string) error
}
