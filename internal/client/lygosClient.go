package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"grocollect/internal/config"
)

// ProviderName is the display name for the mobile money channel.
const ProviderName = "MTN Mobile Money"

type InitiatePaymentParams struct {
	OrderID    string
	Amount     decimal.Decimal
	Currency   string
	PayerPhone string
}

type InitiatePaymentResult struct {
	PaymentURL    string
	TransactionID string
	Provider      string
}

type LygosClient interface {
	InitiatePayment(ctx context.Context, params *InitiatePaymentParams) (*InitiatePaymentResult, error)
	// VerifySignature checks the webhook HMAC over the exact raw body
	// bytes as received. Reserializing the body before calling this is
	// a correctness bug.
	VerifySignature(rawBody []byte, signatureHeader string) bool
}

type lygosClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	apiKey        string
	merchantID    string
	webhookSecret string
}

func NewLygosClient(cfg *config.Lygos) LygosClient {
	return &lygosClientImpl{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseApiURL:    cfg.BaseApiURL,
		apiKey:        cfg.ApiKey,
		merchantID:    cfg.MerchantID,
		webhookSecret: cfg.WebhookSecret,
	}
}

func (c *lygosClientImpl) InitiatePayment(ctx context.Context, params *InitiatePaymentParams) (*InitiatePaymentResult, error) {
	payload := map[string]interface{}{
		"merchantId": c.merchantID,
		"reference":  params.OrderID,
		"amount":     params.Amount.InexactFloat64(),
		"currency":   params.Currency,
		"channel":    "mtn_momo_cg",
		"payer": map[string]string{
			"phone": params.PayerPhone,
		},
		"metadata": map[string]string{
			"orderId": params.OrderID,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/transactions", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("lygos error %d: %s", resp.StatusCode, string(b))
	}

	var result struct {
		ID            string `json:"id"`
		TransactionID string `json:"transactionId"`
		CheckoutURL   string `json:"checkoutUrl"`
		PaymentURL    string `json:"paymentUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode lygos response: %w", err)
	}

	transactionID := result.TransactionID
	if transactionID == "" {
		transactionID = result.ID
	}
	paymentURL := result.CheckoutURL
	if paymentURL == "" {
		paymentURL = result.PaymentURL
	}

	return &InitiatePaymentResult{
		PaymentURL:    paymentURL,
		TransactionID: transactionID,
		Provider:      ProviderName,
	}, nil
}

func (c *lygosClientImpl) VerifySignature(rawBody []byte, signatureHeader string) bool {
	if c.webhookSecret == "" || signatureHeader == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(strings.TrimPrefix(signatureHeader, "sha256="))
	if err != nil {
		return false
	}

	return hmac.Equal(expected, provided)
}
