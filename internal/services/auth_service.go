package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notebook/internal/factories"
	"notebook/internal/models"
	"notebook/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MinPasswordLength is the shortest plaintext password accepted at signup
// and on password change.
const MinPasswordLength = 8

// AuthService handles signup, login and access tokens.
type AuthService struct {
	userRepo  repositories.UserRepository
	publisher EventPublisher
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

// NewAuthService creates a new AuthService. publisher may be nil.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, publisher EventPublisher, logger zerolog.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		publisher: publisher,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("service", "auth").Logger(),
	}
}

// Token is a signed access token and its expiry.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Signup registers a user and its credential. The email pre-check gives a
// clean conflict in the common case; a concurrent signup that slips past it
// is still rejected by the unique index.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*models.UserEntity, error) {
	email = normalizeEmail(email)
	if err := checkPassword("signup", password); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email '%s' already registered: %w", email, repositories.ErrConflict)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	entity, err := factories.NewUserEntity(strings.TrimSpace(name), email, password)
	if err != nil {
		return nil, err
	}

	created, err := s.userRepo.Create(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info().Str("user_id", created.ID()).Msg("user signed up")
	publish(ctx, s.publisher, s.logger, EventUserSignedUp, userEvent{UserID: created.ID(), Email: email})
	return created, nil
}

// Login verifies the password and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Token, *models.UserEntity, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.VerifyPassword(password) {
		s.logger.Info().Str("user_id", user.ID()).Msg("login rejected")
		return nil, nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID())
	if err != nil {
		return nil, nil, err
	}
	return token, user, nil
}

func (s *AuthService) issueToken(userID string) (*Token, error) {
	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	claims := jwt.StandardClaims{
		Subject:   userID,
		Id:        uuid.New().String(),
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &Token{AccessToken: signed, ExpiresAt: time.Unix(expiresAt.Unix(), 0).UTC()}, nil
}

// ValidateToken parses and validates a token and returns the user id it was
// issued for.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	var claims jwt.StandardClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.logger.Debug().Err(err).Msg("token validation failed")
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(object, password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return &models.ValidationError{
			Object: object,
			Fields: map[string]string{"password": fmt.Sprintf("must be at least %d characters", MinPasswordLength)},
		}
	}
	return nil
}
