// Package darajasim is a local stand-in for the Safaricom Daraja API. It
// accepts OAuth and STK push requests and posts a result callback to the
// request's CallBackURL after a delay.
package darajasim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/internal/external"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	logger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("component", "darajasim").
		Logger().
		Level(zerolog.InfoLevel)
}

const (
	tokenTTL = time.Hour

	ResultCancelled = 1032
)

// Options configure the simulator. Zero ResultCode means every push succeeds.
type Options struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	PassKey        string

	CallbackDelay time.Duration
	ResultCode    int
	ResultDesc    string

	HTTPClient *http.Client
	Now        func() time.Time
}

type Server struct {
	opts    Options
	storage *Storage

	wg     sync.WaitGroup
	stopCh chan struct{}
	once   sync.Once
}

func NewServer(opts Options) *Server {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		opts:    opts,
		storage: NewStorage(),
		stopCh:  make(chan struct{}),
	}
}

// Routes returns the simulator's HTTP handler.
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	router.Get("/oauth/v1/generate", s.GenerateToken)
	router.Post("/mpesa/stkpush/v1/processrequest", s.ProcessRequest)
	router.Get("/checkouts", s.ListCheckouts)
	router.Get("/checkouts/{checkout_id}", s.GetCheckout)

	return router
}

// Storage exposes accepted checkouts.
func (s *Server) Storage() *Storage {
	return s.storage
}

// Wait blocks until every scheduled callback has been delivered.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Close cancels callbacks that have not fired yet.
func (s *Server) Close() {
	s.once.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Server) GenerateToken(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("grant_type") != "client_credentials" {
		writeError(w, http.StatusBadRequest, "400.008.02", "Invalid grant type passed")
		return
	}

	key, secret, ok := r.BasicAuth()
	if !ok || key != s.opts.ConsumerKey || secret != s.opts.ConsumerSecret {
		writeError(w, http.StatusBadRequest, "400.008.01", "Invalid Authentication passed")
		return
	}

	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	s.storage.SaveToken(token, s.opts.Now().Add(tokenTTL))

	writeJSON(w, http.StatusOK, external.AccessTokenResponse{
		AccessToken: token,
		ExpiresIn:   strconv.Itoa(int(tokenTTL.Seconds()) - 1),
	})
}

func (s *Server) ProcessRequest(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !s.storage.ValidToken(token, s.opts.Now()) {
		writeError(w, http.StatusUnauthorized, "404.001.03", "Invalid Access Token")
		return
	}

	var req external.STKPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "400.002.02", "Bad Request - Invalid Body")
		return
	}

	if msg := s.validate(&req); msg != "" {
		writeError(w, http.StatusBadRequest, "400.002.02", "Bad Request - "+msg)
		return
	}

	checkout := &Checkout{
		MerchantRequestID: fmt.Sprintf("%d-%d-1", 29115+len(s.storage.ListCheckouts()), s.opts.Now().Unix()%100000000),
		CheckoutRequestID: "ws_CO_" + s.opts.Now().Format(external.TimestampLayout) + strings.ToUpper(uuid.New().String()[:8]),
		Request:           req,
		CreatedAt:         s.opts.Now(),
	}
	checkout.ResultCode, checkout.ResultDesc = s.outcome(&req)
	if checkout.ResultCode == 0 {
		checkout.ReceiptNumber = strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:10])
	}
	s.storage.SaveCheckout(checkout)

	logger.Info().
		Str("event", "stk_push_accepted").
		Str("checkout_request_id", checkout.CheckoutRequestID).
		Str("phone", req.PhoneNumber).
		Int("amount", req.Amount).
		Int("result_code", checkout.ResultCode).
		Msg("STK push accepted")

	s.scheduleCallback(*checkout)

	writeJSON(w, http.StatusOK, external.STKPushResponse{
		MerchantRequestID:   checkout.MerchantRequestID,
		CheckoutRequestID:   checkout.CheckoutRequestID,
		ResponseCode:        "0",
		ResponseDescription: "Success. Request accepted for processing",
		CustomerMessage:     "Success. Request accepted for processing",
	})
}

func (s *Server) ListCheckouts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.storage.ListCheckouts())
}

func (s *Server) GetCheckout(w http.ResponseWriter, r *http.Request) {
	checkout, ok := s.storage.GetCheckout(chi.URLParam(r, "checkout_id"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, checkout)
}

func (s *Server) validate(req *external.STKPushRequest) string {
	switch {
	case req.BusinessShortCode != s.opts.ShortCode:
		return "Invalid BusinessShortCode"
	case req.Password != external.Password(req.BusinessShortCode, s.opts.PassKey, req.Timestamp):
		return "Invalid Password"
	case req.TransactionType != "CustomerPayBillOnline":
		return "Invalid TransactionType"
	case req.Amount <= 0:
		return "Invalid Amount"
	case len(req.PhoneNumber) != 12 || !strings.HasPrefix(req.PhoneNumber, "254"):
		return "Invalid PhoneNumber"
	case req.CallBackURL == "":
		return "Invalid CallBackURL"
	}
	if _, err := time.Parse(external.TimestampLayout, req.Timestamp); err != nil {
		return "Invalid Timestamp"
	}
	return ""
}

// outcome decides the callback result. Numbers ending in 0000 always cancel so
// failures can be exercised against a simulator that otherwise succeeds.
func (s *Server) outcome(req *external.STKPushRequest) (int, string) {
	if strings.HasSuffix(req.PhoneNumber, "0000") {
		return ResultCancelled, "Request cancelled by user"
	}
	if s.opts.ResultCode != 0 {
		desc := s.opts.ResultDesc
		if desc == "" {
			desc = "The transaction could not be completed"
		}
		return s.opts.ResultCode, desc
	}
	return 0, "The service request is processed successfully."
}

func (s *Server) scheduleCallback(checkout Checkout) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if s.opts.CallbackDelay > 0 {
			timer := time.NewTimer(s.opts.CallbackDelay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-s.stopCh:
				return
			}
		}

		err := s.sendCallback(context.Background(), checkout)
		s.storage.MarkCallback(checkout.CheckoutRequestID, err)
		if err != nil {
			logger.Error().
				Err(err).
				Str("event", "callback_failed").
				Str("checkout_request_id", checkout.CheckoutRequestID).
				Msg("Failed to deliver callback")
			return
		}

		logger.Info().
			Str("event", "callback_sent").
			Str("checkout_request_id", checkout.CheckoutRequestID).
			Int("result_code", checkout.ResultCode).
			Msg("Callback delivered")
	}()
}

func (s *Server) sendCallback(ctx context.Context, checkout Checkout) error {
	payload, err := json.Marshal(callbackBody(checkout, s.opts.Now()))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, checkout.Request.CallBackURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("callback returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func callbackBody(checkout Checkout, now time.Time) external.CallbackEnvelope {
	var env external.CallbackEnvelope
	cb := &env.Body.StkCallback
	cb.MerchantRequestID = checkout.MerchantRequestID
	cb.CheckoutRequestID = checkout.CheckoutRequestID
	cb.ResultCode = json.Number(strconv.Itoa(checkout.ResultCode))
	cb.ResultDesc = checkout.ResultDesc

	if checkout.ResultCode != 0 {
		return env
	}

	cb.CallbackMetadata = &external.CallbackMetadata{
		Item: []external.CallbackItem{
			{Name: "Amount", Value: json.RawMessage(strconv.Itoa(checkout.Request.Amount) + ".00")},
			{Name: "MpesaReceiptNumber", Value: mustRaw(checkout.ReceiptNumber)},
			{Name: "Balance"},
			{Name: "TransactionDate", Value: json.RawMessage(now.Format(external.TimestampLayout))},
			{Name: "PhoneNumber", Value: json.RawMessage(checkout.Request.PhoneNumber)},
		},
	}
	return env
}

func mustRaw(s string) json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, external.ErrorResponse{
		RequestID:    uuid.New().String(),
		ErrorCode:    code,
		ErrorMessage: message,
	})
}
