package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkurilenko/walletd/internal/logger"
)

const (
	CodeDeclined = "declined"
	CodeUnknown  = "unknown"
)

// DefaultBaseURL is the live Paystack API endpoint
const DefaultBaseURL = "https://api.paystack.co"

const requestTimeout = 10 * time.Second

type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("code: %s, error: %v", e.Code, e.Err)
}

func NewError(code string, err error) *Error {
	return &Error{Code: code, Err: err}
}

// Charge is the slice of the gateway response the ledger cares about
type Charge struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Client struct {
	BaseURL   string
	secretKey string

	client *http.Client
	logger logger.Logger
}

func NewClient(secretKey string, l logger.Logger) *Client {
	return &Client{
		BaseURL:   DefaultBaseURL,
		secretKey: secretKey,
		client:    &http.Client{},
		logger:    l,
	}
}

// MinorUnits converts a scale-2 decimal amount to the integer minor unit the
// gateway expects (e.g. 25.00 -> 2500). Amounts with fractional minor units
// are rejected rather than truncated.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(decimal.NewFromInt(100))
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %s has fractional minor units", amount)
	}

	return minor.IntPart(), nil
}

// InitializeCharge creates a charge for the given reference and returns the
// authorization URL the payer should be redirected to.
func (c *Client) InitializeCharge(ctx context.Context, email string, amount decimal.Decimal, reference string, callbackURL string) (Charge, error) {
	var charge Charge

	minor, err := MinorUnits(amount)
	if err != nil {
		return charge, NewError(CodeUnknown, err)
	}

	payload := map[string]any{
		"email":        email,
		"amount":       minor,
		"reference":    reference,
		"callback_url": callbackURL,
	}

	body, err := c.post(ctx, "/transaction/initialize", payload)
	if err != nil {
		return charge, err
	}

	if err := json.Unmarshal(body, &charge); err != nil {
		return charge, NewError(CodeUnknown, fmt.Errorf("failed to decode response: %w", err))
	}

	c.logger.Info("Charge initialized", "reference", reference, "amount_minor", minor)
	return charge, nil
}

// ChargeState is the gateway's view of a charge, as returned by verification
type ChargeState struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

// VerifyCharge asks the gateway for the current state of a charge.
// Read only: reconciliation is driven by webhooks, this exists for operators.
func (c *Client) VerifyCharge(ctx context.Context, reference string) (ChargeState, error) {
	var state ChargeState

	body, err := c.get(ctx, "/transaction/verify/"+reference)
	if err != nil {
		return state, err
	}

	if err := json.Unmarshal(body, &state); err != nil {
		return state, NewError(CodeUnknown, fmt.Errorf("failed to decode response: %w", err))
	}

	return state, nil
}

// envelope is the common Paystack response wrapper
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, NewError(CodeUnknown, fmt.Errorf("failed to encode payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, NewError(CodeUnknown, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, NewError(CodeUnknown, fmt.Errorf("failed to create request: %w", err))
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()
	req = req.WithContext(ctx)

	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewError(CodeUnknown, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, NewError(CodeUnknown, fmt.Errorf("failed to decode response: %w", err))
	}

	if resp.StatusCode != http.StatusOK || !env.Status {
		c.logger.Warn("Gateway request declined", "status_code", resp.StatusCode, "message", env.Message)
		return nil, NewError(CodeDeclined, fmt.Errorf("gateway declined: %s", env.Message))
	}

	return env.Data, nil
}

// VerifySignature checks the keyed HMAC-SHA512 hex digest the gateway sends
// in the x-paystack-signature header against the raw request body.
// Comparison is constant time.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(computed), []byte(signature))
}

// IsFresh reports whether an event timestamp is inside the replay window.
// parsed is false when the timestamp cannot be parsed; callers accept such
// events and log instead of rejecting, so a gateway format change cannot
// block legitimate funds.
func IsFresh(createdAt string, now time.Time, maxAge time.Duration) (fresh bool, parsed bool) {
	eventTime, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return true, false
	}

	return now.Sub(eventTime) <= maxAge, true
}
