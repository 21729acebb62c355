package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cartwisp/recovery-gateway/internal/config"
	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/pkg/redis"
)

var (
	ErrInvalidCaptureToken = errors.New("invalid or expired capture token")
)

type CartRepository interface {
	Upsert(ctx context.Context, p model.CaptureParams) (*model.AbandonedCart, error)
	MarkRecoveredBySession(ctx context.Context, sessionID string) (bool, error)
	List(ctx context.Context, f model.CartFilter) ([]*model.AbandonedCart, int64, error)
}

// CaptureService persists checkout-form snapshots. Capture calls must present
// a per-session token issued beforehand, so third parties cannot spray carts
// into the store.
type CaptureService struct {
	carts CartRepository
	cache redis.RedisAdapter
}

func NewCaptureService(carts CartRepository, cache redis.RedisAdapter) *CaptureService {
	return &CaptureService{carts: carts, cache: cache}
}

func captureTokenKey(sessionID string) string {
	return fmt.Sprintf("capture:token:%s", sessionID)
}

// IssueToken hands the storefront a short-lived anti-forgery token for the
// session. Re-issuing replaces the previous token.
func (s *CaptureService) IssueToken(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session_id is required")
	}
	token := uuid.NewString()
	if err := s.cache.Set(captureTokenKey(sessionID), []byte(token), config.Get().CaptureTokenTTL); err != nil {
		return "", err
	}
	return token, nil
}

func (s *CaptureService) checkToken(sessionID, token string) error {
	if token == "" {
		return ErrInvalidCaptureToken
	}
	stored, err := s.cache.Get(captureTokenKey(sessionID))
	if err != nil {
		if err == redis.NilError {
			return ErrInvalidCaptureToken
		}
		return err
	}
	if subtle.ConstantTimeCompare(stored, []byte(token)) != 1 {
		return ErrInvalidCaptureToken
	}
	return nil
}

// Capture validates the token and stores the snapshot under the session's
// single active cart.
func (s *CaptureService) Capture(ctx context.Context, token string, p model.CaptureParams) (*model.AbandonedCart, error) {
	if err := s.checkToken(p.SessionID, token); err != nil {
		return nil, err
	}
	return s.carts.Upsert(ctx, p)
}

// CompleteSession closes the session's active cart when its checkout went
// through the normal flow, without a recovery link.
func (s *CaptureService) CompleteSession(ctx context.Context, sessionID string) (bool, error) {
	return s.carts.MarkRecoveredBySession(ctx, sessionID)
}

func (s *CaptureService) List(ctx context.Context, f model.CartFilter) ([]*model.AbandonedCart, int64, error) {
	return s.carts.List(ctx, f)
}
