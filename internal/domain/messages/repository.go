package messages

import (
	"context"

	"github.com/Meshack-Mesh/house-hunt-view/api"
)

type Repository interface {
	Create(ctx context.Context, msg *api.ContactMessage) error
	GetByID(ctx context.Context, messageID string) (*api.ContactMessage, error)

	// List returns messages newest first.
	List(ctx context.Context) ([]*api.ContactMessage, error)

	// MarkRead moves an unread message to read and returns the current row.
	MarkRead(ctx context.Context, messageID string) (*api.ContactMessage, error)

	SaveReply(ctx context.Context, messageID, reply string) (*api.ContactMessage, error)
}
