package handler

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/auth"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/payments"
)

const maxCallbackBody = 64 << 10

// PaymentsHandler serves STK push initiation, polling and the Daraja webhook
type PaymentsHandler struct {
	payments payments.ServiceInterface
	// callbackToken is the secret path segment of the callback URL handed to
	// Daraja. An empty token rejects every callback.
	callbackToken string
}

func NewPaymentsHandler(paymentsService payments.ServiceInterface, callbackToken string) *PaymentsHandler {
	return &PaymentsHandler{payments: paymentsService, callbackToken: callbackToken}
}

func (h *PaymentsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, payments.ErrPropertyNotFound):
		http.Error(w, "Property not found", http.StatusNotFound)
	case errors.Is(err, payments.ErrPaymentNotFound):
		http.Error(w, "Payment not found", http.StatusNotFound)
	case errors.Is(err, payments.ErrPropertyUnavailable):
		http.Error(w, "Property is not available", http.StatusConflict)
	case errors.Is(err, payments.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, payments.ErrInvalidPhone):
		http.Error(w, "Invalid phone number", http.StatusBadRequest)
	case errors.Is(err, payments.ErrPaymentInProgress):
		http.Error(w, "A payment request is already in progress", http.StatusConflict)
	case errors.Is(err, payments.ErrPaymentRejected):
		http.Error(w, "M-Pesa did not accept the payment request", http.StatusBadGateway)
	default:
		internalError(w, r, err)
	}
}

func writePayment(w http.ResponseWriter, payment *api.Payment) {
	status := http.StatusAccepted
	if payment.AlreadyUnlocked || payment.Status != api.PaymentPending {
		status = http.StatusOK
	}
	writeJSON(w, status, payment)
}

// PostPropertyUnlock handles POST /properties/{property_id}/unlock
func (h *PaymentsHandler) PostPropertyUnlock(w http.ResponseWriter, r *http.Request, propertyId string) {
	actor, ok := auth.Require(w, r)
	if !ok {
		return
	}

	var req api.PaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Phone == "" {
		http.Error(w, "phone is required", http.StatusBadRequest)
		return
	}

	payment, err := h.payments.InitiateUnlock(r.Context(), actor, propertyId, req.Phone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writePayment(w, payment)
}

// PostListingFee handles POST /listing-fees
func (h *PaymentsHandler) PostListingFee(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.Require(w, r)
	if !ok {
		return
	}

	var req api.PaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Phone == "" {
		http.Error(w, "phone is required", http.StatusBadRequest)
		return
	}

	payment, err := h.payments.InitiateListingFee(r.Context(), actor, req.Phone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writePayment(w, payment)
}

// GetPayment handles GET /payments/{payment_id}. Clients poll it after an STK push.
func (h *PaymentsHandler) GetPayment(w http.ResponseWriter, r *http.Request, paymentId string) {
	actor, ok := auth.Require(w, r)
	if !ok {
		return
	}

	payment, err := h.payments.Get(r.Context(), actor, paymentId)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentsHandler) validCallbackToken(token string) bool {
	if h.callbackToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.callbackToken)) == 1
}

// PostPaymentCallback handles the Daraja STK webhook. It always acknowledges
// so Safaricom does not redeliver; failures are only logged.
func (h *PaymentsHandler) PostPaymentCallback(w http.ResponseWriter, r *http.Request, callbackToken string) {
	ack := api.CallbackAck{ResultCode: 0, ResultDesc: "Accepted"}

	if !h.validCallbackToken(callbackToken) {
		logger.Warn().
			Str("event", "callback_unauthorized").
			Str("remote_addr", r.RemoteAddr).
			Msg("Ignoring callback with a bad token")
		writeJSON(w, http.StatusOK, ack)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		logger.Error().
			Str("event", "callback_read_error").
			Err(err).
			Msg("Failed to read callback body")
		writeJSON(w, http.StatusOK, ack)
		return
	}

	outcome, err := h.payments.HandleCallback(r.Context(), body)
	if err != nil {
		logger.Error().
			Str("event", "callback_rejected").
			Err(err).
			Int("body_bytes", len(body)).
			Msg("Failed to process callback")
		writeJSON(w, http.StatusOK, ack)
		return
	}

	logger.Info().
		Str("event", "callback_processed").
		Str("kind", string(outcome.Kind)).
		Str("payment_id", outcome.PaymentID).
		Str("checkout_request_id", outcome.CheckoutRequestID).
		Str("status", string(outcome.Status)).
		Int("result_code", outcome.ResultCode).
		Msg("Payment callback processed")

	writeJSON(w, http.StatusOK, ack)
}
