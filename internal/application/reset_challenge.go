package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
	repo "github.com/oksasatya/tourguide-auth/internal/domain/repository"
)

const (
	ResetTokenBytes = 32 // 64 hex chars
	DefaultResetTTL = 10 * time.Minute
)

// ResetChallenge is a freshly minted reset secret. Token is shown to the user once; only Hash is stored.
type ResetChallenge struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
}

// ResetTokenManager mints and resolves password reset challenges.
type ResetTokenManager struct {
	users repo.UserRepository
	ttl   time.Duration
	now   func() time.Time
}

func NewResetTokenManager(users repo.UserRepository, ttl time.Duration) *ResetTokenManager {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	return &ResetTokenManager{users: users, ttl: ttl, now: time.Now}
}

// WithClock returns a copy of m that reads time from now.
func (m *ResetTokenManager) WithClock(now func() time.Time) *ResetTokenManager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *ResetTokenManager) TTL() time.Duration { return m.ttl }

func (m *ResetTokenManager) CreateChallenge() (ResetChallenge, error) {
	buf := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return ResetChallenge{}, oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}
	token := hex.EncodeToString(buf)
	return ResetChallenge{
		Token:     token,
		Hash:      HashResetToken(token),
		ExpiresAt: m.now().Add(m.ttl),
	}, nil
}

// Resolve finds the active user holding a live challenge for token.
// Unknown, expired and consumed tokens all yield ErrInvalidOrExpiredResetToken.
func (m *ResetTokenManager) Resolve(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, ErrInvalidOrExpiredResetToken
	}
	now := m.now()
	u, err := m.users.FindByResetTokenHash(ctx, HashResetToken(token), now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidOrExpiredResetToken
	}
	if err != nil {
		return nil, persistenceFailure("find by reset token", err)
	}
	if !u.HasLiveResetChallenge(now) {
		return nil, ErrInvalidOrExpiredResetToken
	}
	return u, nil
}

// HashResetToken is the sha256 hex digest stored in place of the plaintext token.
func HashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
