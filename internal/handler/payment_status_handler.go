package handler

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"farepay/internal/models"
	"farepay/internal/repository"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
)

// External statuses polled by clients. failed and cancelled collapse to
// FAILED; anything not yet terminal (including "no row yet") is PENDING.
const (
	ExternalStatusSuccess = "SUCCESS"
	ExternalStatusFailed  = "FAILED"
	ExternalStatusPending = "PENDING"
)

type PaymentStatusHandler struct {
	ledger Ledger
	// terminal projections only; a terminal row never changes again, so
	// serving it from memory cuts polling load on the ledger.
	cache *cache.Cache
}

func NewPaymentStatusHandler(ledger Ledger) *PaymentStatusHandler {
	return &PaymentStatusHandler{
		ledger: ledger,
		cache:  cache.New(5*time.Minute, 10*time.Minute),
	}
}

type paymentProjection struct {
	Status             string     `json:"status"`
	Amount             *int64     `json:"amount,omitempty"`
	PhoneNumber        string     `json:"phoneNumber,omitempty"`
	MpesaReceiptNumber *string    `json:"mpesaReceiptNumber,omitempty"`
	ResultDesc         *string    `json:"resultDesc,omitempty"`
	ResultCode         *string    `json:"resultCode,omitempty"`
	Timestamp          *time.Time `json:"timestamp,omitempty"`
	Message            string     `json:"message,omitempty"`
}

func projectTransaction(tx *models.Transaction) paymentProjection {
	status := ExternalStatusPending
	switch tx.Status {
	case models.StatusSuccess:
		status = ExternalStatusSuccess
	case models.StatusFailed, models.StatusCancelled:
		status = ExternalStatusFailed
	}
	amount := tx.Amount
	ts := tx.UpdatedAt
	return paymentProjection{
		Status:             status,
		Amount:             &amount,
		PhoneNumber:        tx.Phone,
		MpesaReceiptNumber: tx.ReceiptNumber,
		ResultDesc:         tx.ResultDescription,
		ResultCode:         tx.ResultCode,
		Timestamp:          &ts,
	}
}

func pendingProjection() paymentProjection {
	return paymentProjection{
		Status:  ExternalStatusPending,
		Message: "Payment is still being processed",
	}
}

// Status resolves a client-held reference (ours or the provider's request
// id) into the polling payload. A missing row is PENDING, never an error:
// the webhook may simply not have landed yet.
func (h *PaymentStatusHandler) Status(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Payment reference is required"})
		return
	}
	if v, ok := h.cache.Get(reference); ok {
		c.JSON(http.StatusOK, gin.H{"success": true, "payment": v})
		return
	}
	tx, err := h.ledger.GetByReference(reference)
	if err != nil {
		log.Printf("[STATUS] lookup failed reference=%s: %v", reference, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error checking payment status"})
		return
	}
	if tx == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "payment": pendingProjection()})
		return
	}
	p := projectTransaction(tx)
	if p.Status != ExternalStatusPending {
		h.cache.Set(reference, p, cache.DefaultExpiration)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payment": p})
}

// List is an operational endpoint over the ledger, filterable by status,
// phone and reference.
func (h *PaymentStatusHandler) List(c *gin.Context) {
	filter := repository.TransactionFilter{
		Status:    c.Query("status"),
		Phone:     c.Query("phone"),
		Reference: c.Query("reference"),
	}
	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	items, err := h.ledger.List(filter, limit, offset)
	if err != nil {
		log.Printf("[STATUS] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error listing transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transactions": items})
}
