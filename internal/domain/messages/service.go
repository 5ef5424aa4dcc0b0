package messages

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/mailer"
	"github.com/google/uuid"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrInvalidMessage  = errors.New("invalid message")
	ErrInvalidReply    = errors.New("invalid reply")
	ErrDeliveryFailed  = errors.New("failed to send reply")
)

const (
	maxNameLength    = 200
	maxMessageLength = 5000
	defaultSubject   = "Re: Your message to HouseHunt Kenya"
)

type ServiceInterface interface {
	Create(ctx context.Context, req *api.ContactRequest) (*api.ContactMessage, error)
	List(ctx context.Context) ([]*api.ContactMessage, error)
	MarkRead(ctx context.Context, messageID string) (*api.ContactMessage, error)
	Reply(ctx context.Context, messageID string, req *api.ReplyRequest) (*api.ContactMessage, error)
}

type Service struct {
	repo   Repository
	mailer mailer.Mailer
	now    func() time.Time
}

func NewService(repo Repository, m mailer.Mailer) *Service {
	return &Service{
		repo:   repo,
		mailer: m,
		now:    time.Now,
	}
}

func (s *Service) Create(ctx context.Context, req *api.ContactRequest) (*api.ContactMessage, error) {
	name := strings.TrimSpace(req.Name)
	body := strings.TrimSpace(req.Message)
	if name == "" || len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidMessage)
	}
	if body == "" || len(body) > maxMessageLength {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidMessage)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidMessage)
	}

	now := s.now()
	msg := &api.ContactMessage{
		Id:        uuid.New().String(),
		Name:      name,
		Email:     addr.Address,
		Message:   body,
		Status:    api.MessageUnread,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	return msg, nil
}

func (s *Service) List(ctx context.Context) ([]*api.ContactMessage, error) {
	msgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

func (s *Service) MarkRead(ctx context.Context, messageID string) (*api.ContactMessage, error) {
	msg, err := s.repo.MarkRead(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark message read: %w", err)
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

// Reply emails the customer and only then records the reply.
func (s *Service) Reply(ctx context.Context, messageID string, req *api.ReplyRequest) (*api.ContactMessage, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidReply)
	}

	msg, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = defaultSubject
	}

	err = s.mailer.Send(ctx, &mailer.Message{
		To:      msg.Email,
		Subject: subject,
		Body:    replyBody(msg, text),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	updated, err := s.repo.SaveReply(ctx, messageID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}
	if updated == nil {
		return nil, ErrMessageNotFound
	}
	return updated, nil
}

func replyBody(msg *api.ContactMessage, reply string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", msg.Name)
	b.WriteString(reply)
	b.WriteString("\n\n---\nYour original message:\n")
	for _, line := range strings.Split(msg.Message, "\n") {
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\nHouseHunt Kenya Support\n")
	return b.String()
}
