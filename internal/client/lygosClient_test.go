package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocollect/internal/config"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	c := NewLygosClient(&config.Lygos{WebhookSecret: "topsecret"})
	body := []byte(`{"reference":"GC-1","status":"paid"}`)
	sig := signBody("topsecret", body)

	assert.True(t, c.VerifySignature(body, sig))
	assert.True(t, c.VerifySignature(body, "sha256="+sig), "prefixed digest must verify")
}

func TestVerifySignatureRejectsReserializedBody(t *testing.T) {
	c := NewLygosClient(&config.Lygos{WebhookSecret: "topsecret"})
	body := []byte(`{"reference":"GC-1","status":"paid"}`)
	sig := signBody("topsecret", body)

	// semantically identical JSON with different whitespace must fail:
	// the HMAC covers raw bytes, not parsed structure
	reserialized := []byte(`{ "reference": "GC-1", "status": "paid" }`)
	assert.False(t, c.VerifySignature(reserialized, sig))
}

func TestVerifySignatureRejects(t *testing.T) {
	body := []byte(`{"status":"paid"}`)

	withSecret := NewLygosClient(&config.Lygos{WebhookSecret: "topsecret"})
	assert.False(t, withSecret.VerifySignature(body, ""), "missing signature")
	assert.False(t, withSecret.VerifySignature(body, "not-hex"), "undecodable signature")
	assert.False(t, withSecret.VerifySignature(body, signBody("othersecret", body)), "wrong secret")

	noSecret := NewLygosClient(&config.Lygos{})
	assert.False(t, noSecret.VerifySignature(body, signBody("topsecret", body)), "missing secret")
}

func TestInitiatePayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transactions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "order-1", payload["reference"])
		assert.Equal(t, "mtn_momo_cg", payload["channel"])
		assert.Equal(t, 5500.0, payload["amount"])

		json.NewEncoder(w).Encode(map[string]string{
			"id":          "txn-42",
			"checkoutUrl": "https://pay.example/txn-42",
		})
	}))
	defer srv.Close()

	c := NewLygosClient(&config.Lygos{
		BaseApiURL: srv.URL,
		ApiKey:     "test-key",
		MerchantID: "m-1",
	})

	result, err := c.InitiatePayment(context.Background(), &InitiatePaymentParams{
		OrderID:    "order-1",
		Amount:     decimal.NewFromInt(5500),
		Currency:   "XAF",
		PayerPhone: "+242060000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/txn-42", result.PaymentURL)
	assert.Equal(t, "txn-42", result.TransactionID)
	assert.Equal(t, ProviderName, result.Provider)
}

func TestInitiatePaymentProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewLygosClient(&config.Lygos{BaseApiURL: srv.URL, ApiKey: "k"})
	_, err := c.InitiatePayment(context.Background(), &InitiatePaymentParams{
		OrderID: "order-1",
		Amount:  decimal.NewFromInt(100),
	})
	assert.Error(t, err)
}
