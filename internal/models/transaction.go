package models

import "time"

// Transaction statuses. A row starts pending and moves to at most one
// terminal state; a timeout callback (1037) leaves it untouched.
const (
	StatusPending   = "pending"
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Transaction is the ledger row. Created by the initiator once PesaFlux
// accepts the STK push, mutated exactly once by the webhook receiver.
// Reference is ours; TransactionRequestID and the other nullable fields
// come from the provider.
type Transaction struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	Reference            string     `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	TransactionRequestID *string    `gorm:"size:128;index" json:"transaction_request_id"`
	Status               string     `gorm:"size:20;not null;index;default:'pending'" json:"status"`
	Amount               int64      `gorm:"not null" json:"amount"`
	Phone                string     `gorm:"size:20;not null;index" json:"phone"`
	Email                string     `gorm:"size:255;not null" json:"email"`
	ResultCode           *string    `gorm:"size:16" json:"result_code"`
	ResultDescription    *string    `gorm:"size:255" json:"result_description"`
	ReceiptNumber        *string    `gorm:"size:64" json:"receipt_number"`
	MerchantRequestID    *string    `gorm:"size:128" json:"merchant_request_id"`
	CheckoutRequestID    *string    `gorm:"size:128" json:"checkout_request_id"`
	TransactionDate      *time.Time `json:"transaction_date"`
	TransactionID        *string    `gorm:"size:64;index" json:"transaction_id"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
