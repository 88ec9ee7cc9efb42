package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"farepay/config"
	"farepay/internal/models"
	"farepay/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInitiateRouter(ledger Ledger, provider payment.Provider) *gin.Engine {
	r := gin.New()
	h := NewPaymentHandler(config.Load(), ledger, provider)
	r.POST("/initiate-payment", h.Initiate)
	return r
}

type initiateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		ExternalReference    string `json:"externalReference"`
		CheckoutRequestID    string `json:"checkoutRequestId"`
		TransactionRequestID string `json:"transactionRequestId"`
	} `json:"data"`
}

func TestInitiateMissingPhoneNeverCallsProvider(t *testing.T) {
	provider := &mockProvider{}
	ledger := &mockLedger{
		CreateFunc: func(tx *models.Transaction) error {
			t.Fatal("ledger must not be written for invalid input")
			return nil
		},
	}
	r := newInitiateRouter(ledger, provider)

	w := performRequest(r, http.MethodPost, "/initiate-payment", `{"amount":149}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, provider.calls)

	var resp initiateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Phone number is required", resp.Message)
}

func TestInitiateMalformedBodyNotBlamedOnPhone(t *testing.T) {
	provider := &mockProvider{}
	r := newInitiateRouter(&mockLedger{}, provider)

	w := performRequest(r, http.MethodPost, "/initiate-payment", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, provider.calls)

	var resp initiateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid request body", resp.Message)
}

func TestInitiateAcceptedCreatesPendingRow(t *testing.T) {
	provider := &mockProvider{resp: &payment.STKPushResponse{TransactionRequestID: "TRX900"}}
	var created *models.Transaction
	ledger := &mockLedger{
		CreateFunc: func(tx *models.Transaction) error {
			created = tx
			return nil
		},
	}
	r := newInitiateRouter(ledger, provider)

	w := performRequest(r, http.MethodPost, "/initiate-payment", `{"phoneNumber":"254712345678"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp initiateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "TRX900", resp.Data.ExternalReference)
	assert.Equal(t, "TRX900", resp.Data.CheckoutRequestID)
	assert.Equal(t, "TRX900", resp.Data.TransactionRequestID)

	require.Len(t, provider.calls, 1)
	call := provider.calls[0]
	assert.Equal(t, int64(149), call.Amount) // default applied
	assert.Equal(t, "FARE Account Activation", call.Description)
	assert.Equal(t, "254712345678", call.Phone)
	assert.True(t, strings.HasPrefix(call.Reference, "FARE-"), call.Reference)

	require.NotNil(t, created)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, call.Reference, created.Reference)
	require.NotNil(t, created.TransactionRequestID)
	assert.Equal(t, "TRX900", *created.TransactionRequestID)
	assert.Equal(t, "silverstonesolutions103@gmail.com", created.Email)
}

func TestInitiateProviderRejectedNoRow(t *testing.T) {
	provider := &mockProvider{err: &payment.RejectedError{
		Message: "Insufficient balance",
		Body:    json.RawMessage(`{"success":"402","massage":"Insufficient balance"}`),
	}}
	ledger := &mockLedger{
		CreateFunc: func(tx *models.Transaction) error {
			t.Fatal("no ledger row on provider rejection")
			return nil
		},
	}
	r := newInitiateRouter(ledger, provider)

	w := performRequest(r, http.MethodPost, "/initiate-payment", `{"phoneNumber":"254712345678"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Insufficient balance", resp["message"])
	assert.NotNil(t, resp["error"]) // provider detail passed through
}

func TestInitiateNonJSONProviderBodyIsBadGateway(t *testing.T) {
	provider := &mockProvider{err: fmt.Errorf("%w: <html>", payment.ErrInvalidResponse)}
	r := newInitiateRouter(&mockLedger{}, provider)

	w := performRequest(r, http.MethodPost, "/initiate-payment", `{"phoneNumber":"254712345678"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestInitiateTransportErrorIsServerError(t *testing.T) {
	provider := &mockProvider{err: errors.New("dial tcp: connection refused")}
	r := newInitiateRouter(&mockLedger{}, provider)

	w := performRequest(r, http.MethodPost, "/initiate-payment", `{"phoneNumber":"254712345678"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestInitiateLedgerFailureStillReportsSuccess(t *testing.T) {
	provider := &mockProvider{resp: &payment.STKPushResponse{TransactionRequestID: "TRX901"}}
	ledger := &mockLedger{
		CreateFunc: func(tx *models.Transaction) error {
			return errors.New("ledger unavailable")
		},
	}
	r := newInitiateRouter(ledger, provider)

	// The push already reached the payer's phone; storage trouble must not
	// surface as a payment failure.
	w := performRequest(r, http.MethodPost, "/initiate-payment", `{"phoneNumber":"254712345678"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp initiateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestInitiateCustomAmountAndDescription(t *testing.T) {
	provider := &mockProvider{resp: &payment.STKPushResponse{TransactionRequestID: "TRX902"}}
	r := newInitiateRouter(&mockLedger{}, provider)

	w := performRequest(r, http.MethodPost, "/initiate-payment", `{"phoneNumber":"254712345678","amount":500,"description":"Top up"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, provider.calls, 1)
	assert.Equal(t, int64(500), provider.calls[0].Amount)
	assert.Equal(t, "Top up", provider.calls[0].Description)
}
