package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/auth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidSignUp      = errors.New("invalid sign up")
)

const MinPasswordLength = 6

type ServiceInterface interface {
	SignUp(ctx context.Context, req *api.SignUpRequest) (*api.AuthResponse, error)
	Login(ctx context.Context, req *api.LoginRequest) (*api.AuthResponse, error)
	EnsureAdmin(ctx context.Context, email, password, fullName string) (*api.Profile, error)
}

type Service struct {
	repo     Repository
	tokens   auth.TokenIssuer
	hashCost int
	now      func() time.Time
}

func NewService(repo Repository, tokens auth.TokenIssuer) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (s *Service) SignUp(ctx context.Context, req *api.SignUpRequest) (*api.AuthResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidSignUp, MinPasswordLength)
	}

	role := req.Role
	if role == "" {
		role = api.RoleTenant
	}
	if role != api.RoleTenant && role != api.RoleLandlord {
		return nil, fmt.Errorf("%w: role must be tenant or landlord", ErrInvalidSignUp)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	profile := &api.Profile{
		Id:           uuid.New().String(),
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	if !created {
		return nil, ErrEmailTaken
	}

	return s.issue(profile)
}

func (s *Service) Login(ctx context.Context, req *api.LoginRequest) (*api.AuthResponse, error) {
	profile, err := s.repo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil || profile.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(profile)
}

// EnsureAdmin creates the admin account or resets an existing account to the
// admin role with the given password.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, fullName string) (*api.Profile, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidSignUp, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if existing != nil {
		if err := s.repo.UpdateCredentials(ctx, existing.Id, api.RoleAdmin, string(hash)); err != nil {
			return nil, fmt.Errorf("failed to promote admin: %w", err)
		}
		existing.Role = api.RoleAdmin
		existing.PasswordHash = string(hash)
		return existing, nil
	}

	now := s.now()
	profile := &api.Profile{
		Id:           uuid.New().String(),
		Email:        email,
		FullName:     fullName,
		Role:         api.RoleAdmin,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.repo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return profile, nil
}

func (s *Service) issue(profile *api.Profile) (*api.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(auth.Principal{
		UserID: profile.Id,
		Email:  profile.Email,
		Role:   profile.Role,
	})
	if err != nil {
		return nil, err
	}
	return &api.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Profile:   *profile,
	}, nil
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidSignUp)
	}
	return strings.ToLower(addr.Address), nil
}
