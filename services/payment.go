package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"food-ordering-api/apperr"
	"food-ordering-api/models"
	"food-ordering-api/payments"
	"food-ordering-api/store"
)

// PaymentService bridges orders and the hosted checkout. Confirmation is the
// only path from CREATED to PAID.
type PaymentService struct {
	store      *store.Store
	orders     *OrderService
	gateway    payments.Gateway
	logger     *zap.Logger
	successURL string
	cancelURL  string
}

func NewPaymentService(st *store.Store, orders *OrderService, gw payments.Gateway, logger *zap.Logger, successURL, cancelURL string) *PaymentService {
	return &PaymentService{
		store:      st,
		orders:     orders,
		gateway:    gw,
		logger:     logger.Named("payments"),
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// Checkout opens a checkout session for the order's current price and
// remembers it on the order.
func (s *PaymentService) Checkout(ctx context.Context, orderID uint, payerEmail string) (payments.Session, error) {
	payerEmail = strings.TrimSpace(payerEmail)
	if payerEmail == "" {
		return payments.Session{}, apperr.Validationf("Payer email is required to check out order %d", orderID)
	}
	order, err := s.store.Orders.Get(ctx, orderID)
	if err != nil {
		return payments.Session{}, err
	}
	if err := checkoutable(order); err != nil {
		return payments.Session{}, err
	}
	price, err := priceOf(ctx, s.store, order)
	if err != nil {
		return payments.Session{}, err
	}

	session, err := s.gateway.CreateCheckout(ctx, payments.CheckoutRequest{
		OrderID:    orderID,
		Amount:     price,
		Currency:   "eur",
		PayerEmail: payerEmail,
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
	})
	if err != nil {
		s.logger.Error("checkout failed", zap.Uint("order_id", orderID), zap.Error(err))
		return payments.Session{}, apperr.Wrap(apperr.KindPayment, err, "Could not open checkout for order %d", orderID)
	}

	err = s.store.Atomic(ctx, func(tx *store.Store) error {
		current, err := tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := checkoutable(current); err != nil {
			return err
		}
		recheck, err := priceOf(ctx, tx, current)
		if err != nil {
			return err
		}
		if recheck != price {
			return apperr.Conflictf("Order %d changed during checkout: check out again", orderID)
		}
		if err := tx.Orders.UpdatePrice(ctx, orderID, price); err != nil {
			return err
		}
		return tx.Orders.SetPaymentSession(ctx, orderID, session.ID)
	})
	if err != nil {
		return payments.Session{}, err
	}
	s.logger.Info("checkout opened", zap.Uint("order_id", orderID), zap.String("session_id", session.ID), zap.Float64("amount", price))
	return session, nil
}

func checkoutable(order *models.Order) error {
	if order.State != models.StateCreated {
		return apperr.Conflictf("Order %d is %s: only unpaid orders can be checked out", order.ID, order.State)
	}
	if len(order.Lines) == 0 {
		return apperr.Conflictf("Order %d is empty and cannot be checked out", order.ID)
	}
	return nil
}

// ConfirmPayment asks the gateway whether the order's session was paid and,
// if so, moves the order to PAID.
func (s *PaymentService) ConfirmPayment(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.store.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentSessionID == "" {
		return nil, apperr.Paymentf("Order %d has no checkout session", orderID)
	}
	paid, err := s.gateway.Verify(ctx, order.PaymentSessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPayment, err, "Could not verify payment for order %d", orderID)
	}
	if !paid {
		return nil, apperr.Paymentf("Payment for order %d has not been completed", orderID)
	}
	return s.orders.markPaid(ctx, orderID, order.PaymentSessionID, "Payment confirmed ("+order.PaymentSessionID+")")
}
