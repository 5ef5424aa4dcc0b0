package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/auth"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/pricing"
	"github.com/Meshack-Mesh/house-hunt-view/internal/external"
	"github.com/google/uuid"
)

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrPropertyNotFound    = errors.New("property not found")
	ErrPropertyUnavailable = errors.New("property is not available")
	ErrForbidden           = errors.New("not allowed")
	ErrInvalidPhone        = external.ErrInvalidPhone
	ErrPaymentRejected     = errors.New("payment request was not accepted")
	ErrPaymentInProgress   = errors.New("payment request already in progress")
	ErrInvalidCallback     = external.ErrInvalidCallback
)

const (
	unlockAccountReference  = "PROPERTY_UNLOCK"
	listingAccountReference = "PROPERTY_LISTING"

	// Listing fees are not tied to a property until one is created.
	listingReference = "listing"

	// CheckoutReserved is the index value held while an STK push is in flight
	// and no payment row exists yet.
	CheckoutReserved = "reserved"

	// Longer than the Daraja client timeout.
	reservationTTL = 30 * time.Second

	freeResultDesc = "No fee charged"
)

// CallbackKind tells what a webhook delivery did.
type CallbackKind string

const (
	CallbackSettled   CallbackKind = "settled"
	CallbackDuplicate CallbackKind = "duplicate"
	CallbackOrphan    CallbackKind = "orphan"
)

type CallbackOutcome struct {
	Kind              CallbackKind
	PaymentID         string
	CheckoutRequestID string
	Status            api.PaymentStatus
	ResultCode        int
}

type ServiceInterface interface {
	InitiateUnlock(ctx context.Context, actor auth.Principal, propertyID, phone string) (*api.Payment, error)
	InitiateListingFee(ctx context.Context, actor auth.Principal, phone string) (*api.Payment, error)
	HandleCallback(ctx context.Context, body []byte) (*CallbackOutcome, error)
	Get(ctx context.Context, actor auth.Principal, paymentID string) (*api.Payment, error)
	HasUnlock(ctx context.Context, userID, propertyID string) (bool, error)
	ExpireStale(ctx context.Context) ([]*api.Payment, error)
}

type Service struct {
	repo       Repository
	index      CheckoutIndex
	properties PropertyLookup
	mpesa      external.MpesaClientInterface
	fees       pricing.Output
	timeout    time.Duration
	now        func() time.Time
}

func NewService(repo Repository, index CheckoutIndex, properties PropertyLookup, mpesa external.MpesaClientInterface, fees pricing.Output, timeout time.Duration) *Service {
	return &Service{
		repo:       repo,
		index:      index,
		properties: properties,
		mpesa:      mpesa,
		fees:       fees,
		timeout:    timeout,
		now:        time.Now,
	}
}

func (s *Service) InitiateUnlock(ctx context.Context, actor auth.Principal, propertyID, phone string) (*api.Payment, error) {
	normalized, err := external.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	listing, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if listing == nil {
		return nil, ErrPropertyNotFound
	}
	if listing.Status != api.PropertyAvailable {
		return nil, ErrPropertyUnavailable
	}

	existing, err := s.repo.FindCompletedUnlock(ctx, actor.UserID, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing unlock: %w", err)
	}
	if existing != nil {
		existing.AlreadyUnlocked = true
		return existing, nil
	}

	return s.initiate(ctx, actor, api.PaymentPropertyUnlock, propertyID, normalized, &external.PushRequest{
		Phone:            normalized,
		Amount:           s.fees.UnlockFee,
		AccountReference: unlockAccountReference,
		TransactionDesc:  "Unlock property directions",
	})
}

func (s *Service) InitiateListingFee(ctx context.Context, actor auth.Principal, phone string) (*api.Payment, error) {
	if actor.Role != api.RoleLandlord && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	normalized, err := external.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	return s.initiate(ctx, actor, api.PaymentListingSubscription, listingReference, normalized, &external.PushRequest{
		Phone:            normalized,
		Amount:           s.fees.ListingFee,
		AccountReference: listingAccountReference,
		TransactionDesc:  "Property listing fee",
	})
}

// initiate reuses an in-flight checkout for the same user and reference, or
// sends a new STK push and records it as pending. A zero fee settles at once.
func (s *Service) initiate(ctx context.Context, actor auth.Principal, paymentType api.PaymentType, referenceID, phone string, push *external.PushRequest) (*api.Payment, error) {
	if push.Amount <= 0 {
		return s.settleFree(ctx, actor, paymentType, referenceID, phone)
	}

	existing, err := s.claimCheckout(ctx, actor.UserID, paymentType, referenceID)
	if err != nil || existing != nil {
		return existing, err
	}

	resp, err := s.mpesa.STKPush(ctx, push)
	if err != nil {
		s.releaseCheckout(ctx, actor.UserID, paymentType, referenceID)
		if errors.Is(err, external.ErrSTKRejected) {
			return nil, fmt.Errorf("%w: %v", ErrPaymentRejected, err)
		}
		return nil, fmt.Errorf("failed to initiate payment: %w", err)
	}

	payment := s.newPayment(actor, paymentType, referenceID, phone, float64(push.Amount))
	payment.CheckoutRequestId = &resp.CheckoutRequestID
	payment.MerchantRequestId = &resp.MerchantRequestID
	payment.Status = api.PaymentPending

	if err := s.repo.Create(ctx, payment); err != nil {
		s.releaseCheckout(ctx, actor.UserID, paymentType, referenceID)
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	if s.index != nil {
		_ = s.index.SetPending(ctx, actor.UserID, paymentType, referenceID, payment.Id, s.timeout)
	}

	return payment, nil
}

// claimCheckout reserves the checkout key before an STK push. When another
// request holds it, the caller gets that request's pending payment, or
// ErrPaymentInProgress while its push has not returned yet. A nil payment and
// nil error mean the caller owns the key. Index failures do not block payments.
func (s *Service) claimCheckout(ctx context.Context, userID string, paymentType api.PaymentType, referenceID string) (*api.Payment, error) {
	if s.index == nil {
		return nil, nil
	}

	// A second attempt covers a key left behind by a settled payment.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.index.ReservePending(ctx, userID, paymentType, referenceID, reservationTTL)
		if err != nil || ok {
			return nil, nil
		}
		pending, err := s.pendingPayment(ctx, userID, paymentType, referenceID)
		if err != nil || pending != nil {
			return pending, err
		}
	}
	return nil, ErrPaymentInProgress
}

func (s *Service) releaseCheckout(ctx context.Context, userID string, paymentType api.PaymentType, referenceID string) {
	if s.index != nil {
		_ = s.index.ClearPending(ctx, userID, paymentType, referenceID)
	}
}

// pendingPayment resolves the payment the index points at. Stale entries are
// cleared and reported as nil.
func (s *Service) pendingPayment(ctx context.Context, userID string, paymentType api.PaymentType, referenceID string) (*api.Payment, error) {
	paymentID, err := s.index.GetPending(ctx, userID, paymentType, referenceID)
	if err != nil || paymentID == "" {
		return nil, nil
	}
	if paymentID == CheckoutReserved {
		return nil, ErrPaymentInProgress
	}
	payment, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil
	}
	if payment == nil || payment.Status != api.PaymentPending {
		s.releaseCheckout(ctx, userID, paymentType, referenceID)
		return nil, nil
	}
	return payment, nil
}

// settleFree records a zero-fee checkout as completed without contacting
// M-Pesa.
func (s *Service) settleFree(ctx context.Context, actor auth.Principal, paymentType api.PaymentType, referenceID, phone string) (*api.Payment, error) {
	payment := s.newPayment(actor, paymentType, referenceID, phone, 0)
	code := 0
	desc := freeResultDesc
	payment.ResultCode = &code
	payment.ResultDesc = &desc
	payment.Status = api.PaymentCompleted

	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}
	s.afterSettle(ctx, payment)
	return payment, nil
}

func (s *Service) newPayment(actor auth.Principal, paymentType api.PaymentType, referenceID, phone string, amount float64) *api.Payment {
	now := s.now()
	userID := actor.UserID
	return &api.Payment{
		Id:          uuid.New().String(),
		UserId:      &userID,
		PaymentType: paymentType,
		ReferenceId: &referenceID,
		Amount:      &amount,
		PhoneNumber: &phone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HandleCallback applies a Daraja STK callback. Unknown checkouts are stored
// as orphan rows and repeated deliveries for a settled payment are ignored.
func (s *Service) HandleCallback(ctx context.Context, body []byte) (*CallbackOutcome, error) {
	result, err := external.ParseCallback(body)
	if err != nil {
		return nil, err
	}

	settlement := &Settlement{
		MerchantRequestID:  result.MerchantRequestID,
		ResultCode:         result.ResultCode,
		ResultDesc:         result.ResultDesc,
		Amount:             result.Amount,
		MpesaReceiptNumber: result.MpesaReceiptNumber,
		PhoneNumber:        result.PhoneNumber,
		TransactionDate:    result.TransactionDate,
		Status:             api.PaymentFailed,
	}
	if result.Succeeded() {
		settlement.Status = api.PaymentCompleted
	}

	outcome := &CallbackOutcome{
		CheckoutRequestID: result.CheckoutRequestID,
		Status:            settlement.Status,
		ResultCode:        result.ResultCode,
	}

	existing, err := s.repo.GetByCheckoutID(ctx, result.CheckoutRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if existing == nil {
		orphan := s.orphan(result.CheckoutRequestID, settlement)
		if err := s.repo.Create(ctx, orphan); err != nil {
			return nil, fmt.Errorf("failed to save orphan payment: %w", err)
		}
		outcome.Kind = CallbackOrphan
		outcome.PaymentID = orphan.Id
		return outcome, nil
	}

	settled, err := s.repo.Settle(ctx, result.CheckoutRequestID, settlement)
	if err != nil {
		return nil, fmt.Errorf("failed to settle payment: %w", err)
	}
	if settled == nil {
		outcome.Kind = CallbackDuplicate
		outcome.PaymentID = existing.Id
		outcome.Status = existing.Status
		return outcome, nil
	}

	outcome.Kind = CallbackSettled
	outcome.PaymentID = settled.Id
	s.afterSettle(ctx, settled)
	return outcome, nil
}

func (s *Service) afterSettle(ctx context.Context, p *api.Payment) {
	if s.index == nil || p.UserId == nil || p.ReferenceId == nil {
		return
	}
	_ = s.index.ClearPending(ctx, *p.UserId, p.PaymentType, *p.ReferenceId)
	if p.Status == api.PaymentCompleted && p.PaymentType == api.PaymentPropertyUnlock {
		_ = s.index.GrantUnlock(ctx, *p.UserId, *p.ReferenceId)
	}
}

func (s *Service) orphan(checkoutRequestID string, st *Settlement) *api.Payment {
	now := s.now()
	p := &api.Payment{
		Id:                uuid.New().String(),
		CheckoutRequestId: &checkoutRequestID,
		ResultCode:        &st.ResultCode,
		ResultDesc:        &st.ResultDesc,
		Status:            st.Status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if st.MerchantRequestID != "" {
		p.MerchantRequestId = &st.MerchantRequestID
	}
	if st.Amount != nil {
		amount := st.Amount.InexactFloat64()
		p.Amount = &amount
	}
	if st.MpesaReceiptNumber != "" {
		p.MpesaReceiptNumber = &st.MpesaReceiptNumber
	}
	if st.PhoneNumber != "" {
		p.PhoneNumber = &st.PhoneNumber
	}
	if st.TransactionDate != "" {
		p.TransactionDate = &st.TransactionDate
	}
	return p
}

// Get returns a payment to its owner or an admin. Clients poll it after an
// STK push until the status leaves pending.
func (s *Service) Get(ctx context.Context, actor auth.Principal, paymentID string) (*api.Payment, error) {
	payment, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if !actor.IsAdmin() && (payment.UserId == nil || *payment.UserId != actor.UserID) {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// HasUnlock checks the grant cache first and falls back to completed payments.
func (s *Service) HasUnlock(ctx context.Context, userID, propertyID string) (bool, error) {
	if s.index != nil {
		if ok, err := s.index.HasUnlock(ctx, userID, propertyID); err == nil && ok {
			return true, nil
		}
	}

	payment, err := s.repo.FindCompletedUnlock(ctx, userID, propertyID)
	if err != nil {
		return false, fmt.Errorf("failed to check unlock: %w", err)
	}
	if payment == nil {
		return false, nil
	}

	if s.index != nil {
		_ = s.index.GrantUnlock(ctx, userID, propertyID)
	}
	return true, nil
}

// ExpireStale times out pending payments that never received a callback.
func (s *Service) ExpireStale(ctx context.Context) ([]*api.Payment, error) {
	expired, err := s.repo.ExpirePending(ctx, s.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to expire payments: %w", err)
	}

	for _, p := range expired {
		if s.index != nil && p.UserId != nil && p.ReferenceId != nil {
			_ = s.index.ClearPending(ctx, *p.UserId, p.PaymentType, *p.ReferenceId)
		}
	}
	return expired, nil
}
