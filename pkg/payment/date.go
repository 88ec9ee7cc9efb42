package payment

import "time"

// transactionDateLayout is PesaFlux's fixed-width timestamp, e.g. 20240115103045.
const transactionDateLayout = "20060102150405"

// ParseTransactionDate parses the provider's 14-digit YYYYMMDDHHMMSS
// timestamp. Absent or malformed input yields nil; a bad date must never
// fail a callback.
func ParseTransactionDate(s string) *time.Time {
	if len(s) != 14 {
		return nil
	}
	t, err := time.Parse(transactionDateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
