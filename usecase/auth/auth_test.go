package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/taskdeck/backend/domain"
)

type mockUserRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user := m.byID[id]
	return &user, nil
}

func (m *mockUserRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[user.Email]; exists {
		return domain.ErrDuplicateEmail
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.byID[user.ID] = *user
	m.byEmail[user.Email] = user.ID
	return nil
}

const testSecret = "test-secret-test-secret-test-1234"

func newAuthUseCase() (*UseCase, *mockUserRepo) {
	repo := newMockUserRepo()
	uc := New(repo, Config{Secret: testSecret, Issuer: "test", TTL: time.Hour}, nil)
	return uc, repo
}

func TestRegisterThenLogin(t *testing.T) {
	uc, _ := newAuthUseCase()

	user, token, err := uc.Register(context.Background(), "alice", "a@x.com", "password1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == "" || user.Username != "alice" || user.Email != "a@x.com" {
		t.Errorf("Unexpected registered user: %+v", user)
	}
	if token == "" {
		t.Error("Expected a token from register")
	}
	if user.PasswordHash == "password1" {
		t.Error("Password stored unhashed")
	}

	loggedIn, loginToken, err := uc.Login(context.Background(), "a@x.com", "password1")
	if err != nil {
		t.Fatalf("Login after register failed: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("Login returned a different user: %s vs %s", loggedIn.ID, user.ID)
	}
	if loginToken == "" {
		t.Error("Expected a token from login")
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"Missing username", "", "a@x.com", "password1"},
		{"Invalid email", "alice", "not-an-email", "password1"},
		{"Short password", "alice", "a@x.com", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _ := newAuthUseCase()
			_, _, err := uc.Register(context.Background(), tt.username, tt.email, tt.password)
			if !domain.IsDomainError(err, domain.ErrCodeValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	uc, _ := newAuthUseCase()

	if _, _, err := uc.Register(context.Background(), "alice", "a@x.com", "password1"); err != nil {
		t.Fatalf("First register failed: %v", err)
	}
	_, _, err := uc.Register(context.Background(), "alice2", "a@x.com", "password2")
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Errorf("Expected ErrDuplicateEmail, got %v", err)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	uc, _ := newAuthUseCase()

	if _, _, err := uc.Register(context.Background(), "alice", "a@x.com", "password1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Wrong password and unknown email must be the same error.
	_, _, wrongPass := uc.Login(context.Background(), "a@x.com", "nope-nope")
	_, _, unknownEmail := uc.Login(context.Background(), "b@x.com", "password1")

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for wrong password, got %v", wrongPass)
	}
	if !errors.Is(unknownEmail, domain.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown email, got %v", unknownEmail)
	}
	if wrongPass.Error() != unknownEmail.Error() {
		t.Errorf("Login failures leak which credential was wrong: %q vs %q", wrongPass, unknownEmail)
	}
}

func TestVerify(t *testing.T) {
	uc, _ := newAuthUseCase()

	_, token, err := uc.Register(context.Background(), "alice", "a@x.com", "password1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	userID, err := uc.Verify(token)
	if err != nil {
		t.Fatalf("Verify of a fresh token failed: %v", err)
	}
	if userID == "" {
		t.Error("Verify returned an empty user id")
	}
}

func TestVerifyRejections(t *testing.T) {
	uc, _ := newAuthUseCase()

	expired := signedToken(t, testSecret, jwt.MapClaims{
		"user_id": "alice",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signedToken(t, "other-secret-other-secret-other12", jwt.MapClaims{
		"user_id": "alice",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	noSubject := signedToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name  string
		token string
	}{
		{"Empty token", ""},
		{"Garbage token", "not.a.jwt"},
		{"Expired token", expired},
		{"Wrong signing key", wrongKey},
		{"Missing user claim", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := uc.Verify(tt.token); !errors.Is(err, domain.ErrUnauthenticated) {
				t.Errorf("Expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return token
}
