package external

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidCallback = errors.New("invalid stk callback")

// CallbackResult is a flattened STK callback.
type CallbackResult struct {
	MerchantRequestID  string
	CheckoutRequestID  string
	ResultCode         int
	ResultDesc         string
	Amount             *decimal.Decimal
	MpesaReceiptNumber string
	PhoneNumber        string
	TransactionDate    string
}

func (r *CallbackResult) Succeeded() bool {
	return r.ResultCode == 0
}

// ParseCallback decodes a Daraja STK callback body. Metadata is only read for
// successful results.
func ParseCallback(body []byte) (*CallbackResult, error) {
	var envelope CallbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}

	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: missing CheckoutRequestID", ErrInvalidCallback)
	}
	code, err := cb.ResultCode.Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: bad ResultCode %q", ErrInvalidCallback, cb.ResultCode)
	}

	result := &CallbackResult{
		MerchantRequestID: cb.MerchantRequestID,
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        int(code),
		ResultDesc:        cb.ResultDesc,
	}
	if !result.Succeeded() || cb.CallbackMetadata == nil {
		return result, nil
	}

	for _, item := range cb.CallbackMetadata.Item {
		raw := rawValue(item.Value)
		switch item.Name {
		case "Amount":
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: bad Amount %q", ErrInvalidCallback, raw)
			}
			result.Amount = &amount
		case "MpesaReceiptNumber":
			result.MpesaReceiptNumber = raw
		case "PhoneNumber":
			result.PhoneNumber = raw
		case "TransactionDate":
			result.TransactionDate = raw
		}
	}
	return result, nil
}

// rawValue returns a metadata value as text whether it was sent as a JSON
// string or number.
func rawValue(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v))
}
