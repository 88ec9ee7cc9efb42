package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
)

// STKPushRequest carries everything PesaFlux needs to push a payment
// prompt to the payer's phone.
type STKPushRequest struct {
	Reference   string // merchant reference, echoed back in the webhook
	Amount      int64  // whole KES
	Phone       string // msisdn, e.g. 254712345678
	Description string
}

type STKPushResponse struct {
	TransactionRequestID string
	Message              string
}

// ErrInvalidResponse means the provider answered with a body that is not
// JSON at all. Distinct from a provider-reported rejection.
var ErrInvalidResponse = errors.New("payment: invalid response from payment service")

// RejectedError is returned when the provider parsed our request fine but
// explicitly declined the push. Body holds the raw provider response so
// callers can pass the detail through.
type RejectedError struct {
	Message string
	Body    json.RawMessage
}

func (e *RejectedError) Error() string {
	return "payment: push rejected: " + e.Message
}

type Provider interface {
	InitiateSTKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error)
}

// Code is a provider scalar that arrives as either a JSON string or a JSON
// number ("200" and 200 both occur in the wild). It normalizes to the bare
// digit string.
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = ""
		return nil
	}
	*c = Code(bytes.Trim(b, `"`))
	return nil
}

func (c Code) String() string {
	return string(c)
}
