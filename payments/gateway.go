// Package payments abstracts the hosted checkout provider that confirms orders as paid.
package payments

import "context"

//go:generate mockgen -destination=mocks/gateway.go -package=mocks food-ordering-api/payments Gateway

// CheckoutRequest describes what the payer is charged for
type CheckoutRequest struct {
	OrderID    uint
	Amount     float64
	Currency   string
	PayerEmail string
	SuccessURL string
	CancelURL  string
}

// Session is a hosted checkout the payer is redirected to
type Session struct {
	ID          string
	RedirectURL string
}

// Gateway creates checkout sessions and reports whether they were paid
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (Session, error)
	Verify(ctx context.Context, sessionID string) (bool, error)
}
