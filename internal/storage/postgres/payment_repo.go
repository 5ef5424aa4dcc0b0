package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/payments"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `
	id, user_id, payment_type, reference_id, amount::float8, phone_number,
	checkout_request_id, merchant_request_id, mpesa_receipt_number,
	result_code, result_desc, transaction_date, status, created_at, updated_at`

// PaymentRepository implements payments.Repository using PostgreSQL
type PaymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func scanPayment(row pgx.Row) (*api.Payment, error) {
	var p api.Payment
	var paymentType *string
	var status string

	err := row.Scan(
		&p.Id,
		&p.UserId,
		&paymentType,
		&p.ReferenceId,
		&p.Amount,
		&p.PhoneNumber,
		&p.CheckoutRequestId,
		&p.MerchantRequestId,
		&p.MpesaReceiptNumber,
		&p.ResultCode,
		&p.ResultDesc,
		&p.TransactionDate,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paymentType != nil {
		p.PaymentType = api.PaymentType(*paymentType)
	}
	p.Status = api.PaymentStatus(status)
	return &p, nil
}

func (r *PaymentRepository) queryOne(ctx context.Context, query string, args ...any) (*api.Payment, error) {
	p, err := scanPayment(r.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, p *api.Payment) error {
	query := `
		INSERT INTO payments (
			id, user_id, payment_type, reference_id, amount, phone_number,
			checkout_request_id, merchant_request_id, mpesa_receipt_number,
			result_code, result_desc, transaction_date, status, created_at, updated_at
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		p.Id,
		p.UserId,
		string(p.PaymentType),
		p.ReferenceId,
		p.Amount,
		p.PhoneNumber,
		p.CheckoutRequestId,
		p.MerchantRequestId,
		p.MpesaReceiptNumber,
		p.ResultCode,
		p.ResultDesc,
		p.TransactionDate,
		string(p.Status),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, paymentID string) (*api.Payment, error) {
	if !validID(paymentID) {
		return nil, nil
	}
	return r.queryOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID)
}

func (r *PaymentRepository) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*api.Payment, error) {
	return r.queryOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE checkout_request_id = $1`, checkoutRequestID)
}

// Settle is a conditional update so a repeated callback cannot overwrite a
// payment that already has a final status.
func (r *PaymentRepository) Settle(ctx context.Context, checkoutRequestID string, s *payments.Settlement) (*api.Payment, error) {
	query := `
		UPDATE payments SET
			status = $2,
			result_code = $3,
			result_desc = $4,
			amount = COALESCE($5::numeric, amount),
			mpesa_receipt_number = COALESCE(NULLIF($6::text, ''), mpesa_receipt_number),
			phone_number = COALESCE(NULLIF($7::text, ''), phone_number),
			transaction_date = NULLIF($8::text, ''),
			merchant_request_id = COALESCE(NULLIF($9::text, ''), merchant_request_id),
			updated_at = now()
		WHERE checkout_request_id = $1
		  AND status IN ('pending', 'timeout')
		RETURNING ` + paymentColumns

	var amount *string
	if s.Amount != nil {
		v := s.Amount.String()
		amount = &v
	}

	return r.queryOne(ctx, query,
		checkoutRequestID,
		string(s.Status),
		s.ResultCode,
		s.ResultDesc,
		amount,
		s.MpesaReceiptNumber,
		s.PhoneNumber,
		s.TransactionDate,
		s.MerchantRequestID,
	)
}

func (r *PaymentRepository) FindCompletedUnlock(ctx context.Context, userID, propertyID string) (*api.Payment, error) {
	if !validID(userID) {
		return nil, nil
	}
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1
		  AND payment_type = 'property_unlock'
		  AND reference_id = $2
		  AND status = 'completed'
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return r.queryOne(ctx, query, userID, propertyID)
}

func (r *PaymentRepository) ExpirePending(ctx context.Context, olderThan time.Duration) ([]*api.Payment, error) {
	query := `
		UPDATE payments SET
			status = 'timeout',
			result_desc = COALESCE(result_desc, 'No callback received'),
			updated_at = now()
		WHERE status = 'pending'
		  AND created_at < $1
		RETURNING ` + paymentColumns

	cutoff := time.Now().Add(-olderThan)
	rows, err := r.db.Pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to expire payments: %w", err)
	}
	defer rows.Close()

	expired := make([]*api.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		expired = append(expired, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}
	return expired, nil
}
