// Package auth is the identity collaborator: registration, login and
// token handling. The card core never reads this package; it receives
// the authenticated username as an explicit argument.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovolkov/bankcards-backend/internal/domain"
)

const tokenTTL = 24 * time.Hour

// ErrInvalidCredentials is returned for any login failure. The reason
// (unknown user, bad password, disabled holder) is deliberately not
// disclosed to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Claims carried in issued tokens
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service handles registration and authentication of account holders
type Service struct {
	HolderRepo domain.HolderRepository
	Secret     []byte
	Log        *logrus.Logger
}

// NewService creates a new auth Service instance
func NewService(holderRepo domain.HolderRepository, secret string, log *logrus.Logger) *Service {
	return &Service{HolderRepo: holderRepo, Secret: []byte(secret), Log: log}
}

// Register creates a new enabled holder with the USER role
func (s *Service) Register(ctx context.Context, username, fullName, password string) (*domain.AccountHolder, error) {
	exists, err := s.HolderRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("username %s: %w", username, domain.ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	holder := &domain.AccountHolder{
		ID:           uuid.New(),
		Username:     username,
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Enabled:      true,
	}

	if err := s.HolderRepo.Create(ctx, holder); err != nil {
		return nil, err
	}

	s.Log.WithField("user", username).Info("holder registered")
	return holder, nil
}

// Login verifies credentials and returns a signed token
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	holder, err := s.HolderRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if !holder.Enabled {
		s.Log.WithField("user", username).Warn("login attempt by disabled holder")
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(holder.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: string(holder.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   holder.Username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})

	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.Log.WithField("user", username).Info("holder logged in")
	return signed, nil
}

// Verify parses a token and returns the authenticated principal
func (s *Service) Verify(tokenString string) (username string, role domain.Role, err error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidCredentials
	}

	return claims.Subject, domain.Role(claims.Role), nil
}
