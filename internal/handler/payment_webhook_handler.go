package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"farepay/internal/models"
	"farepay/internal/repository"
	"farepay/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// PesaFluxCallback is the provider's native webhook schema. Codes and the
// date arrive as strings or numbers depending on the provider's mood, hence
// payment.Code.
type PesaFluxCallback struct {
	ResponseCode        payment.Code `json:"ResponseCode"`
	ResponseDescription string       `json:"ResponseDescription"`
	TransactionID       string       `json:"TransactionID" validate:"required"`
	TransactionAmount   payment.Code `json:"TransactionAmount"`
	TransactionReceipt  string       `json:"TransactionReceipt"`
	TransactionDate     payment.Code `json:"TransactionDate"`
	TransactionRef      string       `json:"TransactionReference"`
	Msisdn              string       `json:"Msisdn"`
	MerchantRequestID   string       `json:"MerchantRequestID"`
	CheckoutRequestID   string       `json:"CheckoutRequestID"`
}

// MatchKind reports how a callback was correlated to a ledger row. The
// phone fallback is a heuristic for callbacks that do not echo our
// reference; it can misattribute concurrent payments from the same payer.
type MatchKind int

const (
	NoMatch MatchKind = iota
	MatchedByReference
	MatchedByPhoneFallback
)

func (k MatchKind) String() string {
	switch k {
	case MatchedByReference:
		return "reference"
	case MatchedByPhoneFallback:
		return "phone_fallback"
	default:
		return "none"
	}
}

// Response codes PesaFlux sends in callbacks.
const (
	codeSuccess          = payment.Code("0")
	codeCancelledByUser  = payment.Code("1")
	codeUnableToProcess  = payment.Code("1031")
	codeCancelledPrompt  = payment.Code("1032")
	codeTimeout          = payment.Code("1037")
	receiptNotApplicable = "N/A"
)

type PaymentWebhookHandler struct {
	ledger   Ledger
	validate *validator.Validate
}

func NewPaymentWebhookHandler(ledger Ledger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{ledger: ledger, validate: validator.New()}
}

// classify maps a provider response code onto a ledger status. The second
// return overrides the provider description for the two well-known
// outcomes; ignore means the callback must not touch the ledger (a timeout
// is not a failure, the success callback may still arrive).
func classify(code payment.Code) (status, message string, ignore bool) {
	switch code {
	case codeSuccess:
		return models.StatusSuccess, "Payment completed successfully", false
	case codeCancelledByUser, codeUnableToProcess, codeCancelledPrompt:
		return models.StatusCancelled, "Payment was cancelled by user", false
	case codeTimeout:
		return "", "", true
	default:
		return models.StatusFailed, "", false
	}
}

// Handle reconciles one webhook delivery. After the malformed-payload check
// it always answers 200: the provider retries on anything else, and a retry
// storm helps nobody.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid webhook data"})
		return
	}
	log.Printf("[WEBHOOK] received: %s", string(body))
	var payload PesaFluxCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[WEBHOOK] unmarshal error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid webhook data"})
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		log.Printf("[WEBHOOK] missing TransactionID: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid webhook data"})
		return
	}

	status, overrideDesc, ignore := classify(payload.ResponseCode)
	if ignore {
		log.Printf("[WEBHOOK] timeout code=%s transaction_id=%s, leaving ledger untouched", payload.ResponseCode, payload.TransactionID)
		c.JSON(http.StatusOK, gin.H{"status": "received", "message": "Timeout webhook ignored"})
		return
	}

	tx, kind, err := h.match(payload.TransactionRef, payload.Msisdn)
	if err != nil {
		log.Printf("[WEBHOOK] ledger lookup failed transaction_id=%s: %v", payload.TransactionID, err)
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "Webhook received but processing failed"})
		return
	}
	if kind == NoMatch {
		log.Printf("[WEBHOOK] no matching transaction reference=%s msisdn=%s transaction_id=%s", payload.TransactionRef, payload.Msisdn, payload.TransactionID)
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Webhook processed successfully"})
		return
	}

	desc := payload.ResponseDescription
	if overrideDesc != "" {
		desc = overrideDesc
	}
	var receipt *string
	if payload.TransactionReceipt != "" && payload.TransactionReceipt != receiptNotApplicable {
		receipt = &payload.TransactionReceipt
	}
	patch := repository.CallbackPatch{
		Status:            status,
		ResultCode:        payload.ResponseCode.String(),
		ResultDescription: desc,
		ReceiptNumber:     receipt,
		MerchantRequestID: optional(payload.MerchantRequestID),
		CheckoutRequestID: optional(payload.CheckoutRequestID),
		TransactionDate:   payment.ParseTransactionDate(payload.TransactionDate.String()),
		TransactionID:     payload.TransactionID,
	}
	n, err := h.ledger.ApplyCallback(tx.ID, patch)
	switch {
	case err != nil:
		log.Printf("[WEBHOOK] update failed id=%d transaction_id=%s: %v", tx.ID, payload.TransactionID, err)
	case n == 0:
		log.Printf("[WEBHOOK] id=%d already terminal, duplicate delivery ignored transaction_id=%s", tx.ID, payload.TransactionID)
	default:
		log.Printf("[WEBHOOK] id=%d matched_by=%s status=%s transaction_id=%s", tx.ID, kind, status, payload.TransactionID)
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Webhook processed successfully"})
}

// match locates the ledger row a callback refers to. An exact reference
// match is authoritative; otherwise fall back to the newest pending row for
// the reporting msisdn. A failed reference lookup still tries the fallback,
// and its error only surfaces when the fallback found nothing either.
func (h *PaymentWebhookHandler) match(ref, msisdn string) (*models.Transaction, MatchKind, error) {
	var refErr error
	if ref != "" {
		tx, err := h.ledger.GetByExactReference(ref)
		if err != nil {
			log.Printf("[WEBHOOK] reference lookup failed ref=%s: %v", ref, err)
			refErr = err
		} else if tx != nil {
			return tx, MatchedByReference, nil
		}
	}
	if msisdn != "" {
		tx, err := h.ledger.LatestPendingByPhone(msisdn)
		if err != nil {
			return nil, NoMatch, err
		}
		if tx != nil {
			return tx, MatchedByPhoneFallback, nil
		}
	}
	return nil, NoMatch, refErr
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
