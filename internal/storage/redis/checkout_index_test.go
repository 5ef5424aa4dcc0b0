package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/auth"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/payments"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/pricing"
	"github.com/Meshack-Mesh/house-hunt-view/internal/external"
)

func TestCheckoutIndex_Pending(t *testing.T) {
	s, rcli := newTestClient(t)
	index := NewCheckoutIndex(rcli)
	ctx := context.Background()

	id, err := index.GetPending(ctx, "user-1", api.PaymentPropertyUnlock, "prop-1")
	if err != nil {
		t.Fatalf("GetPending error: %v", err)
	}
	if id != "" {
		t.Fatalf("expected empty index, got %s", id)
	}

	if err := index.SetPending(ctx, "user-1", api.PaymentPropertyUnlock, "prop-1", "pay-1", 2*time.Minute); err != nil {
		t.Fatalf("SetPending error: %v", err)
	}

	id, err = index.GetPending(ctx, "user-1", api.PaymentPropertyUnlock, "prop-1")
	if err != nil {
		t.Fatalf("GetPending error: %v", err)
	}
	if id != "pay-1" {
		t.Fatalf("expected pay-1, got %s", id)
	}

	// Other references are separate.
	id, _ = index.GetPending(ctx, "user-1", api.PaymentListingSubscription, "prop-1")
	if id != "" {
		t.Errorf("expected no listing checkout, got %s", id)
	}

	s.FastForward(3 * time.Minute)
	id, _ = index.GetPending(ctx, "user-1", api.PaymentPropertyUnlock, "prop-1")
	if id != "" {
		t.Errorf("expected index to expire, got %s", id)
	}
}

func TestCheckoutIndex_ClearPending(t *testing.T) {
	_, rcli := newTestClient(t)
	index := NewCheckoutIndex(rcli)
	ctx := context.Background()

	if err := index.SetPending(ctx, "user-1", api.PaymentListingSubscription, "listing", "pay-2", time.Minute); err != nil {
		t.Fatalf("SetPending error: %v", err)
	}
	if err := index.ClearPending(ctx, "user-1", api.PaymentListingSubscription, "listing"); err != nil {
		t.Fatalf("ClearPending error: %v", err)
	}
	id, err := index.GetPending(ctx, "user-1", api.PaymentListingSubscription, "listing")
	if err != nil {
		t.Fatalf("GetPending error: %v", err)
	}
	if id != "" {
		t.Errorf("expected cleared index, got %s", id)
	}
}

func TestCheckoutIndex_UnlockGrant(t *testing.T) {
	_, rcli := newTestClient(t)
	index := NewCheckoutIndex(rcli)
	ctx := context.Background()

	ok, err := index.HasUnlock(ctx, "user-1", "prop-1")
	if err != nil {
		t.Fatalf("HasUnlock error: %v", err)
	}
	if ok {
		t.Fatal("expected no grant")
	}

	if err := index.GrantUnlock(ctx, "user-1", "prop-1"); err != nil {
		t.Fatalf("GrantUnlock error: %v", err)
	}

	ok, err = index.HasUnlock(ctx, "user-1", "prop-1")
	if err != nil {
		t.Fatalf("HasUnlock error: %v", err)
	}
	if !ok {
		t.Error("expected grant")
	}

	if ok, _ := index.HasUnlock(ctx, "user-2", "prop-1"); ok {
		t.Error("grant must be per user")
	}
}

func TestCheckoutIndex_ReservePending(t *testing.T) {
	s, rcli := newTestClient(t)
	index := NewCheckoutIndex(rcli)
	ctx := context.Background()

	ok, err := index.ReservePending(ctx, "user-1", api.PaymentPropertyUnlock, "prop-1", 30*time.Second)
	if err != nil {
		t.Fatalf("ReservePending error: %v", err)
	}
	if !ok {
		t.Fatal("expected first reservation to succeed")
	}

	ok, err = index.ReservePending(ctx, "user-1", api.PaymentPropertyUnlock, "prop-1", 30*time.Second)
	if err != nil {
		t.Fatalf("ReservePending error: %v", err)
	}
	if ok {
		t.Fatal("expected second reservation to fail")
	}

	id, _ := index.GetPending(ctx, "user-1", api.PaymentPropertyUnlock, "prop-1")
	if id != payments.CheckoutReserved {
		t.Errorf("expected reservation marker, got %s", id)
	}

	// The payment id replaces the marker with the payment timeout.
	if err := index.SetPending(ctx, "user-1", api.PaymentPropertyUnlock, "prop-1", "pay-1", 2*time.Minute); err != nil {
		t.Fatalf("SetPending error: %v", err)
	}
	if ttl := s.TTL(keyPending("user-1", api.PaymentPropertyUnlock, "prop-1")); ttl != 2*time.Minute {
		t.Errorf("expected 2m TTL, got %v", ttl)
	}

	// An abandoned reservation expires on its own.
	ok, _ = index.ReservePending(ctx, "user-2", api.PaymentPropertyUnlock, "prop-1", 30*time.Second)
	if !ok {
		t.Fatal("expected reservation for another user")
	}
	s.FastForward(31 * time.Second)
	if ok, _ := index.ReservePending(ctx, "user-2", api.PaymentPropertyUnlock, "prop-1", 30*time.Second); !ok {
		t.Error("expected expired reservation to be claimable")
	}
}

type paymentStore struct {
	mu   sync.Mutex
	rows map[string]*api.Payment
}

func (m *paymentStore) Create(ctx context.Context, payment *api.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *payment
	m.rows[payment.Id] = &cp
	return nil
}

func (m *paymentStore) GetByID(ctx context.Context, paymentID string) (*api.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[paymentID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *paymentStore) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*api.Payment, error) {
	return nil, nil
}

func (m *paymentStore) Settle(ctx context.Context, checkoutRequestID string, s *payments.Settlement) (*api.Payment, error) {
	return nil, nil
}

func (m *paymentStore) FindCompletedUnlock(ctx context.Context, userID, propertyID string) (*api.Payment, error) {
	return nil, nil
}

func (m *paymentStore) ExpirePending(ctx context.Context, olderThan time.Duration) ([]*api.Payment, error) {
	return nil, nil
}

type availableProperty struct{}

func (availableProperty) GetByID(ctx context.Context, propertyID string) (*api.Listing, error) {
	return &api.Listing{Id: propertyID, Status: api.PropertyAvailable}, nil
}

type slowPush struct {
	calls atomic.Int32
	delay time.Duration
}

func (m *slowPush) STKPush(ctx context.Context, req *external.PushRequest) (*external.STKPushResponse, error) {
	n := m.calls.Add(1)
	time.Sleep(m.delay)
	return &external.STKPushResponse{
		MerchantRequestID: fmt.Sprintf("merchant-%d", n),
		CheckoutRequestID: fmt.Sprintf("ws_CO_%d", n),
		ResponseCode:      "0",
	}, nil
}

func TestCheckoutIndex_ConcurrentUnlockSendsOnePush(t *testing.T) {
	_, rcli := newTestClient(t)
	store := &paymentStore{rows: make(map[string]*api.Payment)}
	mpesa := &slowPush{delay: 50 * time.Millisecond}
	service := payments.NewService(store, NewCheckoutIndex(rcli), availableProperty{}, mpesa,
		pricing.Output{UnlockFee: 20, ListingFee: 500}, 2*time.Minute)
	tenant := auth.Principal{UserID: "tenant-1", Role: api.RoleTenant}

	var (
		wg     sync.WaitGroup
		start  = make(chan struct{})
		result [2]*api.Payment
		errs   [2]error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			result[i], errs[i] = service.InitiateUnlock(context.Background(), tenant, "prop-1", "0712345678")
		}(i)
	}
	close(start)
	wg.Wait()

	if n := mpesa.calls.Load(); n != 1 {
		t.Fatalf("expected one STK push, got %d", n)
	}

	var winner *api.Payment
	for i := range errs {
		if errs[i] == nil {
			winner = result[i]
		}
	}
	if winner == nil {
		t.Fatalf("expected one request to succeed, got %v", errs)
	}
	for i := range errs {
		switch {
		case errs[i] == nil:
			if result[i].Id != winner.Id {
				t.Errorf("expected both requests to share payment %s, got %s", winner.Id, result[i].Id)
			}
		case !errors.Is(errs[i], payments.ErrPaymentInProgress):
			t.Errorf("expected ErrPaymentInProgress, got %v", errs[i])
		}
	}
	if len(store.rows) != 1 {
		t.Errorf("expected one payment row, got %d", len(store.rows))
	}

	// Once the push has returned, a retry gets the same payment.
	again, err := service.InitiateUnlock(context.Background(), tenant, "prop-1", "0712345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Id != winner.Id {
		t.Errorf("expected payment %s, got %s", winner.Id, again.Id)
	}
}
