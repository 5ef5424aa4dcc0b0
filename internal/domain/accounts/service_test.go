package accounts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/auth"
	"golang.org/x/crypto/bcrypt"
)

type memoryRepository struct {
	mu       sync.Mutex
	profiles map[string]*api.Profile
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{profiles: make(map[string]*api.Profile)}
}

func (m *memoryRepository) Create(ctx context.Context, profile *api.Profile) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if strings.EqualFold(p.Email, profile.Email) {
			return false, nil
		}
	}
	cp := *profile
	m.profiles[profile.Id] = &cp
	return true, nil
}

func (m *memoryRepository) GetByID(ctx context.Context, profileID string) (*api.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[profileID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memoryRepository) GetByEmail(ctx context.Context, email string) (*api.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryRepository) UpdateCredentials(ctx context.Context, profileID string, role api.Role, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[profileID]
	if !ok {
		return errors.New("no such profile")
	}
	p.Role = role
	p.PasswordHash = passwordHash
	return nil
}

func newTestService() (*Service, *memoryRepository, *auth.Issuer) {
	repo := newMemoryRepository()
	issuer := auth.NewIssuer("secret", time.Hour)
	service := NewService(repo, issuer)
	service.hashCost = bcrypt.MinCost
	return service, repo, issuer
}

func TestService_SignUpAndLogin(t *testing.T) {
	service, _, issuer := newTestService()

	resp, err := service.SignUp(context.Background(), &api.SignUpRequest{
		Email:    "Jane@Example.com",
		Password: "secret1",
		FullName: "Jane Wanjiku",
		Phone:    "0712345678",
		Role:     api.RoleLandlord,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Profile.Email != "jane@example.com" || resp.Profile.Role != api.RoleLandlord {
		t.Errorf("Unexpected profile %+v", resp.Profile)
	}
	if resp.Profile.PasswordHash == "secret1" {
		t.Error("Expected password to be hashed")
	}

	principal, err := issuer.Parse(resp.Token)
	if err != nil {
		t.Fatalf("Expected valid token, got %v", err)
	}
	if principal.UserID != resp.Profile.Id || principal.Role != api.RoleLandlord {
		t.Errorf("Unexpected principal %+v", principal)
	}

	login, err := service.Login(context.Background(), &api.LoginRequest{Email: "jane@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Unexpected login error: %v", err)
	}
	if login.Profile.Id != resp.Profile.Id {
		t.Errorf("Expected same profile, got %s", login.Profile.Id)
	}
}

func TestService_SignUp_DefaultsToTenant(t *testing.T) {
	service, _, _ := newTestService()

	resp, err := service.SignUp(context.Background(), &api.SignUpRequest{Email: "t@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Profile.Role != api.RoleTenant {
		t.Errorf("Expected tenant, got %s", resp.Profile.Role)
	}
}

func TestService_SignUp_Validation(t *testing.T) {
	service, _, _ := newTestService()

	tests := []struct {
		name string
		req  api.SignUpRequest
	}{
		{"bad email", api.SignUpRequest{Email: "nope", Password: "secret1"}},
		{"short password", api.SignUpRequest{Email: "a@example.com", Password: "123"}},
		{"admin role", api.SignUpRequest{Email: "a@example.com", Password: "secret1", Role: api.RoleAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.SignUp(context.Background(), &tt.req); !errors.Is(err, ErrInvalidSignUp) {
				t.Errorf("Expected ErrInvalidSignUp, got %v", err)
			}
		})
	}
}

func TestService_SignUp_DuplicateEmail(t *testing.T) {
	service, _, _ := newTestService()

	req := &api.SignUpRequest{Email: "dup@example.com", Password: "secret1"}
	if _, err := service.SignUp(context.Background(), req); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	req.Email = "DUP@example.com"
	if _, err := service.SignUp(context.Background(), req); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestService_Login_WrongPassword(t *testing.T) {
	service, _, _ := newTestService()

	if _, err := service.SignUp(context.Background(), &api.SignUpRequest{Email: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := service.Login(context.Background(), &api.LoginRequest{Email: "a@example.com", Password: "wrong!"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Login(context.Background(), &api.LoginRequest{Email: "b@example.com", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestService_EnsureAdmin_Idempotent(t *testing.T) {
	service, repo, _ := newTestService()

	first, err := service.EnsureAdmin(context.Background(), "admin@househunt.co.ke", "adminpass", "Admin")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := service.EnsureAdmin(context.Background(), "admin@househunt.co.ke", "newpass1", "Admin")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if first.Id != second.Id {
		t.Errorf("Expected same admin, got %s and %s", first.Id, second.Id)
	}
	if len(repo.profiles) != 1 {
		t.Errorf("Expected 1 profile, got %d", len(repo.profiles))
	}

	login, err := service.Login(context.Background(), &api.LoginRequest{Email: "admin@househunt.co.ke", Password: "newpass1"})
	if err != nil {
		t.Fatalf("Expected login with new password, got %v", err)
	}
	if login.Profile.Role != api.RoleAdmin {
		t.Errorf("Expected admin role, got %s", login.Profile.Role)
	}
}

func TestService_EnsureAdmin_PromotesExisting(t *testing.T) {
	service, _, _ := newTestService()

	resp, err := service.SignUp(context.Background(), &api.SignUpRequest{Email: "boss@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	admin, err := service.EnsureAdmin(context.Background(), "boss@example.com", "secret2", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if admin.Id != resp.Profile.Id || admin.Role != api.RoleAdmin {
		t.Errorf("Expected promoted profile, got %+v", admin)
	}
}
