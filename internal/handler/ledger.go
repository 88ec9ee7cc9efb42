package handler

import (
	"farepay/internal/models"
	"farepay/internal/repository"
)

// Ledger is the narrow view of transaction storage the payment flow needs.
// *repository.TransactionRepository satisfies it; tests substitute mocks.
type Ledger interface {
	Create(t *models.Transaction) error
	GetByReference(ref string) (*models.Transaction, error)
	GetByExactReference(ref string) (*models.Transaction, error)
	LatestPendingByPhone(phone string) (*models.Transaction, error)
	ApplyCallback(id uint, patch repository.CallbackPatch) (int64, error)
	List(f repository.TransactionFilter, limit, offset int) ([]models.Transaction, error)
}
