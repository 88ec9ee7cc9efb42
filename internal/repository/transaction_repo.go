package repository

import (
	"errors"
	"time"

	"farepay/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// CallbackPatch is the terminal update applied when a provider callback is
// reconciled against a pending row. Nil pointer fields are written as NULL.
type CallbackPatch struct {
	Status            string
	ResultCode        string
	ResultDescription string
	ReceiptNumber     *string
	MerchantRequestID *string
	CheckoutRequestID *string
	TransactionDate   *time.Time
	TransactionID     string
}

// TransactionFilter narrows List results. Empty fields are ignored.
type TransactionFilter struct {
	Status    string
	Phone     string
	Reference string
}

func (r *TransactionRepository) Create(t *models.Transaction) error {
	return r.db.Create(t).Error
}

// GetByReference looks a row up by the handle a client holds: our reference
// or the provider's transaction_request_id. Returns (nil, nil) when no row
// exists; absence is a state, not an error.
func (r *TransactionRepository) GetByReference(ref string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Where("reference = ? OR transaction_request_id = ?", ref, ref).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByExactReference matches only on our own reference column.
func (r *TransactionRepository) GetByExactReference(ref string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Where("reference = ?", ref).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// LatestPendingByPhone returns the newest pending row for a payer. Used as
// the fallback when a callback does not echo our reference.
func (r *TransactionRepository) LatestPendingByPhone(phone string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Where("phone = ? AND status = ?", phone, models.StatusPending).
		Order("created_at DESC").
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ApplyCallback writes the terminal state in a single update guarded by
// status = pending, so a retried or racing delivery cannot overwrite a
// terminal row. Returns the number of rows updated; 0 means the row was
// already terminal (or gone) and the callback was a no-op.
func (r *TransactionRepository) ApplyCallback(id uint, p CallbackPatch) (int64, error) {
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":              p.Status,
			"result_code":         p.ResultCode,
			"result_description":  p.ResultDescription,
			"receipt_number":      p.ReceiptNumber,
			"merchant_request_id": p.MerchantRequestID,
			"checkout_request_id": p.CheckoutRequestID,
			"transaction_date":    p.TransactionDate,
			"transaction_id":      p.TransactionID,
		})
	return res.RowsAffected, res.Error
}

func (r *TransactionRepository) List(f TransactionFilter, limit, offset int) ([]models.Transaction, error) {
	q := r.db.Model(&models.Transaction{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Phone != "" {
		q = q.Where("phone = ?", f.Phone)
	}
	if f.Reference != "" {
		q = q.Where("reference = ?", f.Reference)
	}
	var out []models.Transaction
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, err
}
