package auth

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/repository"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Config carries token-signing settings.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// UseCase implements registration, login and bearer-token verification.
type UseCase struct {
	users  repository.UserRepository
	cfg    Config
	logger *zap.Logger
}

func New(users repository.UserRepository, cfg Config, logger *zap.Logger) *UseCase {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		cfg:    cfg,
		logger: logger,
	}
}

// Register creates a new account and returns it with a signed token.
// A reused email surfaces as ErrDuplicateEmail.
func (uc *UseCase) Register(ctx context.Context, username, email, password string) (*domain.User, string, error) {
	if username == "" {
		return nil, "", domain.Invalid("username is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, "", domain.Invalid("invalid email")
	}
	if len(password) < minPasswordLength {
		return nil, "", domain.Invalid("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := uc.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := uc.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	uc.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, token, nil
}

// Login verifies credentials and returns the user with a fresh token. Unknown
// email and wrong password are indistinguishable to the caller.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := uc.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Verify validates a bearer token and returns the bound user id. Any failure
// (malformed, expired, bad signature, missing claim) is ErrUnauthenticated.
func (uc *UseCase) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", domain.ErrUnauthenticated
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthenticated
		}
		return []byte(uc.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", domain.ErrUnauthenticated
	}
	return userID, nil
}

// Me returns the public account for an authenticated user id.
func (uc *UseCase) Me(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

func (uc *UseCase) issueToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iss":     uc.cfg.Issuer,
		"iat":     now.Unix(),
		"exp":     now.Add(uc.cfg.TTL).Unix(),
	})
	return token.SignedString([]byte(uc.cfg.Secret))
}
