package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classpoint/cbt-backend/internal/config"
	"github.com/classpoint/cbt-backend/internal/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

const sessionTokenBytes = 32

// SessionService manages ephemeral exam-station sessions. Tokens live only
// in Redis; losing the cache logs every candidate out, which is accepted.
type SessionService struct {
	rdb *redis.Client
	cfg *config.Config
	log zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *SessionService {
	return &SessionService{
		rdb: rdb,
		cfg: cfg,
		log: log.With().Str("component", "session_service").Logger(),
	}
}

// CreateSession mints an opaque token bound to the redeemed identity and
// stores the snapshot under the token key for the configured lifetime.
func (s *SessionService) CreateSession(ctx context.Context, identity model.StudentIdentity, clientIP, userAgent string) (*model.SessionToken, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := time.Now()
	session := &model.SessionToken{
		Token:     token,
		Identity:  identity,
		ClientIP:  clientIP,
		UserAgent: userAgent,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.SessionLifetime),
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	if err := s.rdb.Set(ctx, config.CacheKey.SessionKey(token), raw, s.cfg.SessionLifetime).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.log.Info().
		Int("student_id", identity.StudentID).
		Str("client_ip", clientIP).
		Msg("Session created")

	return session, nil
}

// ValidateSession resolves a token to its identity snapshot. Expiry is
// checked against the stored wall-clock timestamp, not the key TTL.
func (s *SessionService) ValidateSession(ctx context.Context, token string) (*model.SessionToken, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.SessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var session model.SessionToken
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		_ = s.rdb.Del(ctx, config.CacheKey.SessionKey(token)).Err()
		return nil, ErrSessionNotFound
	}

	if session.IsExpired(time.Now()) {
		_ = s.rdb.Del(ctx, config.CacheKey.SessionKey(token)).Err()
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// RefreshSession replaces a still-valid token with a fresh one carrying the
// same identity. The old token is destroyed in the same call.
func (s *SessionService) RefreshSession(ctx context.Context, token string) (*model.SessionToken, error) {
	current, err := s.ValidateSession(ctx, token)
	if err != nil {
		return nil, err
	}

	fresh, err := s.CreateSession(ctx, current.Identity, current.ClientIP, current.UserAgent)
	if err != nil {
		return nil, err
	}

	if err := s.rdb.Del(ctx, config.CacheKey.SessionKey(token)).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Old session delete failed")
	}

	return fresh, nil
}

// TerminateSession destroys a session. Idempotent: terminating an unknown
// token returns false rather than an error.
func (s *SessionService) TerminateSession(ctx context.Context, token string) (bool, error) {
	deleted, err := s.rdb.Del(ctx, config.CacheKey.SessionKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return deleted > 0, nil
}

func generateToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
