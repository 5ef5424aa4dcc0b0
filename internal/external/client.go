package external

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

var ErrSTKRejected = errors.New("stk push rejected")

const (
	tokenPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"

	TimestampLayout = "20060102150405"
	transactionType = "CustomerPayBillOnline"

	// Tokens are refreshed this long before Daraja expires them.
	tokenSkew = 60 * time.Second
)

// Nairobi has no daylight saving, a fixed zone avoids depending on tzdata.
var nairobi = time.FixedZone("EAT", 3*60*60)

// MpesaClientInterface defines the interface for M-Pesa operations
type MpesaClientInterface interface {
	STKPush(ctx context.Context, req *PushRequest) (*STKPushResponse, error)
}

// Config holds Daraja credentials
type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	PassKey        string
	CallbackURL    string
}

// Client talks to the Safaricom Daraja API
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Ensure Client implements MpesaClientInterface
var _ MpesaClientInterface = (*Client)(nil)

// NewClient creates a new Daraja API client
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		now: time.Now,
	}
}

// Password is base64(shortcode + passkey + timestamp).
func Password(shortCode, passKey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
}

// STKPush prompts the customer's phone to authorise a payment.
func (c *Client) STKPush(ctx context.Context, req *PushRequest) (*STKPushResponse, error) {
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", req.Amount)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := c.now().In(nairobi).Format(TimestampLayout)
	body := &STKPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          Password(c.cfg.ShortCode, c.cfg.PassKey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   transactionType,
		Amount:            req.Amount,
		PartyA:            phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  req.AccountReference,
		TransactionDesc:   req.TransactionDesc,
	}

	resp, err := c.makeRequest(ctx, http.MethodPost, stkPushPath, body, "Bearer "+token)
	if err != nil {
		return nil, fmt.Errorf("failed to send stk push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// The cached token may have been revoked.
		if resp.StatusCode == http.StatusUnauthorized {
			c.resetToken()
		}
		return nil, fmt.Errorf("%w: %s", ErrSTKRejected, errorMessage(resp))
	}

	var stkResp STKPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&stkResp); err != nil {
		return nil, fmt.Errorf("failed to decode stk push response: %w", err)
	}
	if stkResp.ResponseCode != "0" {
		return nil, fmt.Errorf("%w: %s", ErrSTKRejected, stkResp.ResponseDescription)
	}

	return &stkResp, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	resp, err := c.makeRequest(ctx, http.MethodGet, tokenPath, nil, "Basic "+basic)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get access token: HTTP %d", resp.StatusCode)
	}

	var tokenResp AccessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode access token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("failed to get access token: empty token")
	}

	expiresIn, err := strconv.Atoi(tokenResp.ExpiresIn)
	if err != nil || expiresIn <= 0 {
		expiresIn = 3599
	}

	c.token = tokenResp.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(expiresIn)*time.Second - tokenSkew)
	return c.token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

func (c *Client) makeRequest(ctx context.Context, method, path string, body interface{}, authorization string) (*http.Response, error) {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", authorization)
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func errorMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.ErrorMessage != "" {
		return errResp.ErrorMessage
	}
	var stkResp STKPushResponse
	if err := json.Unmarshal(data, &stkResp); err == nil && stkResp.ResponseDescription != "" {
		return stkResp.ResponseDescription
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}
