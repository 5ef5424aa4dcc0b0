package jobs

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/rs/zerolog"
)

var expiryLogger zerolog.Logger

func init() {
	expiryLogger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger().
		Level(zerolog.InfoLevel)
}

// PaymentExpirer is satisfied by payments.Service.
type PaymentExpirer interface {
	ExpireStale(ctx context.Context) ([]*api.Payment, error)
}

type PaymentExpiryJob struct {
	payments PaymentExpirer
	timeout  time.Duration
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewPaymentExpiryJob(payments PaymentExpirer, timeout time.Duration, interval time.Duration) *PaymentExpiryJob {
	return &PaymentExpiryJob{
		payments: payments,
		timeout:  timeout,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

func (j *PaymentExpiryJob) Start() {
	go j.run()
}

func (j *PaymentExpiryJob) Stop() {
	close(j.stopChan)
	<-j.doneChan
}

func (j *PaymentExpiryJob) run() {
	defer close(j.doneChan)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.expire()

	for {
		select {
		case <-ticker.C:
			j.expire()
		case <-j.stopChan:
			expiryLogger.Info().Msg("Payment expiry job stopped")
			return
		}
	}
}

func (j *PaymentExpiryJob) expire() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	startTime := time.Now()

	expiryLogger.Info().
		Str("event", "expiry_started").
		Dur("timeout", j.timeout).
		Msg("Starting payment expiry")

	expired, err := j.payments.ExpireStale(ctx)
	if err != nil {
		expiryLogger.Error().
			Str("event", "expiry_error").
			Err(err).
			Msg("Failed to expire pending payments")
		return
	}

	j.logPayments(expired)

	expiryLogger.Info().
		Str("event", "expiry_completed").
		Int("payments_expired", len(expired)).
		Dur("duration_ms", time.Since(startTime)).
		Msg("Payment expiry completed")
}

func (j *PaymentExpiryJob) logPayments(payments []*api.Payment) {
	for _, p := range payments {
		paymentJSON, err := json.Marshal(p)
		if err != nil {
			expiryLogger.Warn().
				Str("event", "expiry_log_error").
				Str("payment_id", p.Id).
				Err(err).
				Msg("Failed to marshal payment for logging")
			continue
		}

		event := expiryLogger.Info().
			Str("event", "payment_expired").
			Str("payment_id", p.Id).
			Str("payment_type", string(p.PaymentType))
		if p.CheckoutRequestId != nil {
			event = event.Str("checkout_request_id", *p.CheckoutRequestId)
		}
		event.RawJSON("payment_data", paymentJSON).
			Msg("Pending payment timed out")
	}
}
