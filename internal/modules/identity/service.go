package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"learnport.com/app/internal/shared/apperr"
)

const tokenTTL = 30 * 24 * time.Hour

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Login verifies the password and issues an opaque bearer token. The plain
// token is returned once; only its hash is stored.
func (s *Service) Login(ctx context.Context, email, password string) (string, User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", User{}, ErrInvalidCredentials
		}
		return "", User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", User{}, ErrInvalidCredentials
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", User{}, err
	}
	plain := "lp_" + hex.EncodeToString(raw)

	tok := APIToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		TokenHash: hashToken(plain),
		ExpiresAt: time.Now().Add(tokenTTL),
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&tok).Error; err != nil {
		return "", User{}, err
	}
	return plain, u, nil
}

// ResolveToken maps a bearer token to its user, or fails unauthorized.
func (s *Service) ResolveToken(ctx context.Context, plain string) (User, error) {
	var tok APIToken
	err := s.db.WithContext(ctx).First(&tok, "token_hash = ?", hashToken(plain)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, apperr.UnauthorizedErr("invalid token")
		}
		return User{}, err
	}
	if time.Now().After(tok.ExpiresAt) {
		return User{}, apperr.UnauthorizedErr("token expired")
	}

	var u User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", tok.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, apperr.UnauthorizedErr("invalid token")
		}
		return User{}, err
	}
	return u, nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
