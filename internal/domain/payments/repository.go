package payments

import (
	"context"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/shopspring/decimal"
)

// Settlement is the outcome of an STK push as reported by the callback.
type Settlement struct {
	MerchantRequestID  string
	ResultCode         int
	ResultDesc         string
	Amount             *decimal.Decimal
	MpesaReceiptNumber string
	PhoneNumber        string
	TransactionDate    string
	Status             api.PaymentStatus
}

type Repository interface {
	Create(ctx context.Context, payment *api.Payment) error

	GetByID(ctx context.Context, paymentID string) (*api.Payment, error)

	GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*api.Payment, error)

	// Settle records a callback result on a payment that is still pending or
	// timed out. It returns nil when the payment was already settled.
	Settle(ctx context.Context, checkoutRequestID string, s *Settlement) (*api.Payment, error)

	FindCompletedUnlock(ctx context.Context, userID, propertyID string) (*api.Payment, error)

	// ExpirePending marks pending payments older than olderThan as timed out
	// and returns them.
	ExpirePending(ctx context.Context, olderThan time.Duration) ([]*api.Payment, error)
}

// CheckoutIndex is a short-lived index of in-flight checkouts and a cache of
// unlock grants.
type CheckoutIndex interface {
	GetPending(ctx context.Context, userID string, paymentType api.PaymentType, referenceID string) (string, error)
	// ReservePending stores CheckoutReserved under the key unless it is already
	// set and reports whether it did.
	ReservePending(ctx context.Context, userID string, paymentType api.PaymentType, referenceID string, ttl time.Duration) (bool, error)
	SetPending(ctx context.Context, userID string, paymentType api.PaymentType, referenceID, paymentID string, ttl time.Duration) error
	ClearPending(ctx context.Context, userID string, paymentType api.PaymentType, referenceID string) error

	GrantUnlock(ctx context.Context, userID, propertyID string) error
	HasUnlock(ctx context.Context, userID, propertyID string) (bool, error)
}

// PropertyLookup is satisfied by the properties repository.
type PropertyLookup interface {
	GetByID(ctx context.Context, propertyID string) (*api.Listing, error)
}
