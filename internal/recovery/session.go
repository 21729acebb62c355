package recovery

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/pkg/redis"
)

// sessionTTL keeps a restored session around long enough for the shopper to
// finish checkout.
const sessionTTL = 7 * 24 * time.Hour

// SessionStore holds the live cart and billing snapshot the storefront reads
// back after a recovery link restores them.
type SessionStore struct {
	cache redis.RedisAdapter
}

func NewSessionStore(cache redis.RedisAdapter) *SessionStore {
	return &SessionStore{cache: cache}
}

func (s *SessionStore) cartKey(sessionID string) string {
	return fmt.Sprintf("session:%s:cart", sessionID)
}

func (s *SessionStore) billingKey(sessionID string) string {
	return fmt.Sprintf("session:%s:billing", sessionID)
}

func (s *SessionStore) SetCart(sessionID string, items []model.CartItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.cache.Set(s.cartKey(sessionID), payload, sessionTTL)
}

func (s *SessionStore) GetCart(sessionID string) ([]model.CartItem, error) {
	payload, err := s.cache.Get(s.cartKey(sessionID))
	if err != nil {
		if err == redis.NilError {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	var items []model.CartItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *SessionStore) SetBilling(sessionID string, billing model.BillingSnapshot) error {
	payload, err := json.Marshal(billing)
	if err != nil {
		return err
	}
	return s.cache.Set(s.billingKey(sessionID), payload, sessionTTL)
}

func (s *SessionStore) GetBilling(sessionID string) (*model.BillingSnapshot, error) {
	payload, err := s.cache.Get(s.billingKey(sessionID))
	if err != nil {
		if err == redis.NilError {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	var billing model.BillingSnapshot
	if err := json.Unmarshal(payload, &billing); err != nil {
		return nil, err
	}
	return &billing, nil
}
