package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAnalystExists      = errors.New("analyst already registered")
	ErrAnalystNotFound    = errors.New("analyst not found")
	ErrInvalidToken       = errors.New("invalid token")
)

// Analyst is a registered user who owns audit projects.
type Analyst struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Claims are the JWT claims issued at login.
type Claims struct {
	AnalystID string `json:"analyst_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// AnalystRepository defines the interface for analyst persistence.
type AnalystRepository interface {
	Create(ctx context.Context, analyst *Analyst) error
	GetByID(ctx context.Context, id string) (*Analyst, error)
	GetByEmail(ctx context.Context, email string) (*Analyst, error)
}

// Service authenticates analysts and issues tokens.
type Service interface {
	Register(ctx context.Context, email, password string) (*Analyst, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Config holds authentication configuration.
type Config struct {
	SecretKey     string
	TokenDuration time.Duration
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		SecretKey:     "change-me-in-production",
		TokenDuration: 24 * time.Hour,
	}
}

// JWTService implements Service with HMAC-signed JWTs and bcrypt password
// hashing.
type JWTService struct {
	config Config
	repo   AnalystRepository
}

// NewJWTService creates a new JWT-based authentication service.
func NewJWTService(config Config, repo AnalystRepository) *JWTService {
	return &JWTService{config: config, repo: repo}
}

// Register creates a new analyst with a hashed password.
func (s *JWTService) Register(ctx context.Context, email, password string) (*Analyst, error) {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrAnalystNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAnalystExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	analyst := &Analyst{
		Email:        email,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, analyst); err != nil {
		return nil, err
	}

	return analyst, nil
}

// Login authenticates an analyst and returns a signed token.
func (s *JWTService) Login(ctx context.Context, email, password string) (string, error) {
	analyst, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(analyst.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := &Claims{
		AnalystID: analyst.ID,
		Email:     analyst.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.config.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.SecretKey))
}

// ValidateToken validates a token and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
