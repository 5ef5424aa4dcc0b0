package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/payments"
	goredis "github.com/redis/go-redis/v9"
)

const unlockGrantTTL = 30 * 24 * time.Hour

// CheckoutIndex maps a user's in-flight checkout to its payment and caches
// unlock grants.
type CheckoutIndex struct {
	client *Client
}

func NewCheckoutIndex(client *Client) *CheckoutIndex {
	return &CheckoutIndex{client: client}
}

func keyPending(userID string, paymentType api.PaymentType, referenceID string) string {
	return fmt.Sprintf("checkout_idx:user:%s:%s:%s", userID, paymentType, referenceID)
}

func keyUnlock(userID, propertyID string) string {
	return fmt.Sprintf("unlock:user:%s:property:%s", userID, propertyID)
}

// GetPending returns the payment id of an in-flight checkout, or "" if none.
func (r *CheckoutIndex) GetPending(ctx context.Context, userID string, paymentType api.PaymentType, referenceID string) (string, error) {
	if r.client == nil || r.client.rdb == nil {
		return "", fmt.Errorf("redis client is not initialized")
	}
	paymentID, err := r.client.rdb.Get(ctx, keyPending(userID, paymentType, referenceID)).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("redis GET index failed: %w", err)
	}
	return paymentID, nil
}

// ReservePending claims the pending key for an STK push that has not returned
// yet. It reports false when the key is already held.
func (r *CheckoutIndex) ReservePending(ctx context.Context, userID string, paymentType api.PaymentType, referenceID string, ttl time.Duration) (bool, error) {
	if r.client == nil || r.client.rdb == nil {
		return false, fmt.Errorf("redis client is not initialized")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	ok, err := r.client.rdb.SetNX(ctx, keyPending(userID, paymentType, referenceID), payments.CheckoutReserved, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX index failed: %w", err)
	}
	return ok, nil
}

func (r *CheckoutIndex) SetPending(ctx context.Context, userID string, paymentType api.PaymentType, referenceID, paymentID string, ttl time.Duration) error {
	if r.client == nil || r.client.rdb == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if err := r.client.rdb.Set(ctx, keyPending(userID, paymentType, referenceID), paymentID, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET index failed: %w", err)
	}
	return nil
}

func (r *CheckoutIndex) ClearPending(ctx context.Context, userID string, paymentType api.PaymentType, referenceID string) error {
	if r.client == nil || r.client.rdb == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.client.rdb.Del(ctx, keyPending(userID, paymentType, referenceID)).Err()
}

func (r *CheckoutIndex) GrantUnlock(ctx context.Context, userID, propertyID string) error {
	if r.client == nil || r.client.rdb == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	if err := r.client.rdb.Set(ctx, keyUnlock(userID, propertyID), "1", unlockGrantTTL).Err(); err != nil {
		return fmt.Errorf("redis SET unlock failed: %w", err)
	}
	return nil
}

func (r *CheckoutIndex) HasUnlock(ctx context.Context, userID, propertyID string) (bool, error) {
	if r.client == nil || r.client.rdb == nil {
		return false, fmt.Errorf("redis client is not initialized")
	}
	n, err := r.client.rdb.Exists(ctx, keyUnlock(userID, propertyID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis EXISTS failed: %w", err)
	}
	return n > 0, nil
}
