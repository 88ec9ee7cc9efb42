package handler

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"time"

	"farepay/config"
	"farepay/internal/models"
	"farepay/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type PaymentHandler struct {
	cfg      *config.Config
	ledger   Ledger
	provider payment.Provider
}

func NewPaymentHandler(cfg *config.Config, ledger Ledger, provider payment.Provider) *PaymentHandler {
	return &PaymentHandler{cfg: cfg, ledger: ledger, provider: provider}
}

type initiateRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// newReference builds a payment reference like FARE-1705312245123-417.
// Uniqueness comes from the millisecond timestamp; the random suffix only
// disambiguates same-millisecond bursts.
func newReference(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixMilli(), rand.IntN(1000))
}

// Initiate pushes an STK prompt to the payer and, once the provider accepts,
// records a pending ledger row. The row is what the webhook receiver later
// reconciles against; initiator and receiver share no other state.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		msg := "Invalid request body"
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			msg = "Phone number is required"
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
		return
	}
	if req.Amount <= 0 {
		req.Amount = h.cfg.PesaFlux.DefaultAmount
	}
	if req.Description == "" {
		req.Description = h.cfg.PesaFlux.DefaultDescription
	}
	reference := newReference(h.cfg.PesaFlux.ReferencePrefix)
	log.Printf("[PAYMENT] initiate reference=%s phone=%s amount=%d", reference, req.PhoneNumber, req.Amount)

	resp, err := h.provider.InitiateSTKPush(c.Request.Context(), payment.STKPushRequest{
		Reference:   reference,
		Amount:      req.Amount,
		Phone:       req.PhoneNumber,
		Description: req.Description,
	})
	if err != nil {
		var rejected *payment.RejectedError
		switch {
		case errors.As(err, &rejected):
			log.Printf("[PAYMENT] provider rejected reference=%s: %s", reference, rejected.Message)
			body := gin.H{"success": false, "message": rejected.Message}
			if len(rejected.Body) > 0 {
				body["error"] = rejected.Body
			}
			c.JSON(http.StatusBadRequest, body)
		case errors.Is(err, payment.ErrInvalidResponse):
			log.Printf("[PAYMENT] bad provider body reference=%s: %v", reference, err)
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Invalid response from payment service"})
		default:
			log.Printf("[PAYMENT] provider call failed reference=%s: %v", reference, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to initiate payment"})
		}
		return
	}

	tx := &models.Transaction{
		Reference:            reference,
		TransactionRequestID: &resp.TransactionRequestID,
		Status:               models.StatusPending,
		Amount:               req.Amount,
		Phone:                req.PhoneNumber,
		Email:                h.cfg.PesaFlux.AccountEmail,
	}
	if err := h.ledger.Create(tx); err != nil {
		// The push already went out; the payer must not see a failure for
		// our own storage problem.
		log.Printf("[PAYMENT] ledger insert failed reference=%s: %v", reference, err)
	} else {
		log.Printf("[PAYMENT] stored reference=%s transaction_request_id=%s", reference, resp.TransactionRequestID)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment initiated successfully",
		"data": gin.H{
			"externalReference":    resp.TransactionRequestID,
			"checkoutRequestId":    resp.TransactionRequestID,
			"transactionRequestId": resp.TransactionRequestID,
		},
	})
}
