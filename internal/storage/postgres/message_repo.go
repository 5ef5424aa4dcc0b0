package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/jackc/pgx/v5"
)

// MessageRepository implements messages.Repository using PostgreSQL
type MessageRepository struct {
	db *DB
}

func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, name, email, message, status, admin_reply, created_at, updated_at`

func scanMessage(row pgx.Row) (*api.ContactMessage, error) {
	var m api.ContactMessage
	var status string
	err := row.Scan(
		&m.Id,
		&m.Name,
		&m.Email,
		&m.Message,
		&status,
		&m.AdminReply,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Status = api.MessageStatus(status)
	return &m, nil
}

func (r *MessageRepository) queryOne(ctx context.Context, query string, args ...any) (*api.ContactMessage, error) {
	m, err := scanMessage(r.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query message: %w", err)
	}
	return m, nil
}

func (r *MessageRepository) Create(ctx context.Context, m *api.ContactMessage) error {
	query := `INSERT INTO contact_messages (` + messageColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Pool.Exec(ctx, query,
		m.Id,
		m.Name,
		m.Email,
		m.Message,
		string(m.Status),
		m.AdminReply,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, messageID string) (*api.ContactMessage, error) {
	if !validID(messageID) {
		return nil, nil
	}
	return r.queryOne(ctx, `SELECT `+messageColumns+` FROM contact_messages WHERE id = $1`, messageID)
}

func (r *MessageRepository) List(ctx context.Context) ([]*api.ContactMessage, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+messageColumns+` FROM contact_messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]*api.ContactMessage, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return msgs, nil
}

// MarkRead only touches unread rows; read and replied messages come back as-is.
func (r *MessageRepository) MarkRead(ctx context.Context, messageID string) (*api.ContactMessage, error) {
	if !validID(messageID) {
		return nil, nil
	}
	query := `
		UPDATE contact_messages SET status = 'read', updated_at = now()
		WHERE id = $1 AND status = 'unread'
		RETURNING ` + messageColumns
	m, err := r.queryOne(ctx, query, messageID)
	if err != nil || m != nil {
		return m, err
	}
	return r.GetByID(ctx, messageID)
}

func (r *MessageRepository) SaveReply(ctx context.Context, messageID, reply string) (*api.ContactMessage, error) {
	if !validID(messageID) {
		return nil, nil
	}
	query := `
		UPDATE contact_messages SET status = 'replied', admin_reply = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + messageColumns
	return r.queryOne(ctx, query, messageID, reply)
}
