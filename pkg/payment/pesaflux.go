package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

// PesaFluxProvider implements M-Pesa STK push via the PesaFlux API.
type PesaFluxProvider struct {
	BaseURL      string
	APIKey       string
	AccountEmail string
	client       *http.Client
}

func NewPesaFluxProvider(baseURL, apiKey, accountEmail string) *PesaFluxProvider {
	if baseURL == "" {
		baseURL = "https://api.pesaflux.co.ke"
	}
	return &PesaFluxProvider{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		AccountEmail: accountEmail,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

type stkPushReq struct {
	APIKey    string `json:"api_key"`
	Email     string `json:"email"`
	Amount    string `json:"amount"`
	Msisdn    string `json:"msisdn"`
	Reference string `json:"reference"`
}

type stkPushResp struct {
	Success              Code   `json:"success"`
	Massage              string `json:"massage"` // provider's own spelling
	Message              string `json:"message"`
	TransactionRequestID string `json:"transaction_request_id"`
}

// acceptedCode is what PesaFlux returns when the push went out.
const acceptedCode = Code("200")

func (p *PesaFluxProvider) InitiateSTKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error) {
	payload := stkPushReq{
		APIKey:    p.APIKey,
		Email:     p.AccountEmail,
		Amount:    strconv.FormatInt(req.Amount, 10),
		Msisdn:    req.Phone,
		Reference: req.Reference,
	}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/initiatestk", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Accept", "application/json")
	log.Printf("[PESAFLUX] POST %s/v1/initiatestk reference=%s msisdn=%s amount=%s", p.BaseURL, req.Reference, req.Phone, payload.Amount)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, fmt.Errorf("pesaflux stk push: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pesaflux read response: %w", err)
	}
	log.Printf("[PESAFLUX] response status=%d body=%s", resp.StatusCode, string(respBody))

	var out stkPushResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, snippet(respBody))
	}
	if out.Success != acceptedCode {
		msg := out.Massage
		if msg == "" {
			msg = out.Message
		}
		if msg == "" {
			msg = "Payment initiation failed"
		}
		return nil, &RejectedError{Message: msg, Body: json.RawMessage(respBody)}
	}
	return &STKPushResponse{
		TransactionRequestID: out.TransactionRequestID,
		Message:              out.Message,
	}, nil
}

func snippet(b []byte) string {
	const max = 200
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
