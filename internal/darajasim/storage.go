package darajasim

import (
	"sort"
	"sync"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/internal/external"
)

// Checkout is one STK push the simulator accepted.
type Checkout struct {
	MerchantRequestID string                  `json:"merchant_request_id"`
	CheckoutRequestID string                  `json:"checkout_request_id"`
	Request           external.STKPushRequest `json:"request"`
	ResultCode        int                     `json:"result_code"`
	ResultDesc        string                  `json:"result_desc"`
	ReceiptNumber     string                  `json:"receipt_number,omitempty"`
	CallbackSent      bool                    `json:"callback_sent"`
	CallbackError     string                  `json:"callback_error,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
}

// Storage holds in-memory tokens and checkouts
type Storage struct {
	mu        sync.RWMutex
	tokens    map[string]time.Time
	checkouts map[string]*Checkout
}

// NewStorage creates a new storage instance
func NewStorage() *Storage {
	return &Storage{
		tokens:    make(map[string]time.Time),
		checkouts: make(map[string]*Checkout),
	}
}

func (s *Storage) SaveToken(token string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = expiresAt
}

// ValidToken reports whether token was issued and has not expired at now.
func (s *Storage) ValidToken(token string, now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expiresAt, ok := s.tokens[token]
	return ok && now.Before(expiresAt)
}

func (s *Storage) SaveCheckout(c *Checkout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkouts[c.CheckoutRequestID] = c
}

// GetCheckout returns a copy of the checkout
func (s *Storage) GetCheckout(id string) (Checkout, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.checkouts[id]
	if !ok {
		return Checkout{}, false
	}
	return *c, true
}

// ListCheckouts returns copies of all checkouts, oldest first
func (s *Storage) ListCheckouts() []Checkout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Checkout, 0, len(s.checkouts))
	for _, c := range s.checkouts {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (s *Storage) MarkCallback(id string, sendErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.checkouts[id]
	if !ok {
		return
	}
	c.CallbackSent = sendErr == nil
	if sendErr != nil {
		c.CallbackError = sendErr.Error()
	}
}
