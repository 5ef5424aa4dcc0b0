package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
)

type mockExpirer struct {
	expireStaleFunc func(ctx context.Context) ([]*api.Payment, error)
	calls           int32
}

func (m *mockExpirer) ExpireStale(ctx context.Context) ([]*api.Payment, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.expireStaleFunc != nil {
		return m.expireStaleFunc(ctx)
	}
	return nil, nil
}

func createTestPayment(id, checkoutID string) *api.Payment {
	userID := "user-1"
	propertyID := "prop-1"
	amount := 20.0
	return &api.Payment{
		Id:                id,
		UserId:            &userID,
		PaymentType:       api.PaymentPropertyUnlock,
		ReferenceId:       &propertyID,
		Amount:            &amount,
		CheckoutRequestId: &checkoutID,
		Status:            api.PaymentTimeout,
		CreatedAt:         time.Now().Add(-5 * time.Minute),
	}
}

func TestPaymentExpiryJob_Expire_Success(t *testing.T) {
	m := &mockExpirer{
		expireStaleFunc: func(ctx context.Context) ([]*api.Payment, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected expiry to run with a deadline")
			}
			return []*api.Payment{
				createTestPayment("pay-1", "ws_CO_1"),
				createTestPayment("pay-2", "ws_CO_2"),
			}, nil
		},
	}

	job := NewPaymentExpiryJob(m, 2*time.Minute, time.Minute)
	job.expire()

	if got := atomic.LoadInt32(&m.calls); got != 1 {
		t.Errorf("ExpireStale called %d times, want 1", got)
	}
}

func TestPaymentExpiryJob_Expire_Error(t *testing.T) {
	m := &mockExpirer{
		expireStaleFunc: func(ctx context.Context) ([]*api.Payment, error) {
			return nil, errors.New("database connection failed")
		},
	}

	job := NewPaymentExpiryJob(m, 2*time.Minute, time.Minute)
	job.expire()

	if got := atomic.LoadInt32(&m.calls); got != 1 {
		t.Errorf("ExpireStale called %d times, want 1", got)
	}
}

func TestPaymentExpiryJob_LogPayments_OrphanFields(t *testing.T) {
	job := NewPaymentExpiryJob(&mockExpirer{}, 2*time.Minute, time.Minute)

	// Payments without optional fields must not panic.
	job.logPayments([]*api.Payment{{Id: "pay-3", Status: api.PaymentTimeout}})
}

func TestPaymentExpiryJob_StartStop(t *testing.T) {
	m := &mockExpirer{}

	job := NewPaymentExpiryJob(m, 2*time.Minute, 10*time.Millisecond)
	job.Start()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&m.calls) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	job.Stop()

	if got := atomic.LoadInt32(&m.calls); got < 2 {
		t.Errorf("expected the job to tick at least twice, got %d", got)
	}

	select {
	case <-job.doneChan:
	default:
		t.Error("doneChan should be closed after Stop")
	}
}

func TestPaymentExpiryJob_NewPaymentExpiryJob(t *testing.T) {
	m := &mockExpirer{}
	timeout := 3 * time.Minute
	interval := 30 * time.Second

	job := NewPaymentExpiryJob(m, timeout, interval)

	if job == nil {
		t.Fatal("NewPaymentExpiryJob returned nil")
	}
	if job.payments != m {
		t.Error("Expirer not set correctly")
	}
	if job.timeout != timeout {
		t.Errorf("timeout not set correctly: got %v, want %v", job.timeout, timeout)
	}
	if job.interval != interval {
		t.Errorf("interval not set correctly: got %v, want %v", job.interval, interval)
	}
	if job.stopChan == nil || job.doneChan == nil {
		t.Error("channels not initialized")
	}
}
