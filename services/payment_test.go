package services

import (
	"errors"
	"testing"

	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"food-ordering-api/apperr"
	"food-ordering-api/models"
	"food-ordering-api/payments"
	"food-ordering-api/payments/mocks"
)

func newPaymentService(f *fixture, gw payments.Gateway) *PaymentService {
	return NewPaymentService(f.store, f.orders, gw, zap.NewNop(), "http://shop/ok", "http://shop/cancel")
}

func TestCheckoutAndConfirm(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	svc := newPaymentService(f, gw)

	coca := f.menuItem(t, "Coca-Cola", 0.5, 10)
	order := f.order(t)
	if _, err := f.orders.AddOrderableToOrder(f.ctx, coca.ID, order.ID, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	gw.EXPECT().CreateCheckout(gomock.Any(), payments.CheckoutRequest{
		OrderID:    order.ID,
		Amount:     1.5,
		Currency:   "eur",
		PayerEmail: "jane@example.com",
		SuccessURL: "http://shop/ok",
		CancelURL:  "http://shop/cancel",
	}).Return(payments.Session{ID: "cs_1", RedirectURL: "http://pay/cs_1"}, nil)

	sess, err := svc.Checkout(f.ctx, order.ID, "jane@example.com")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if sess.RedirectURL != "http://pay/cs_1" {
		t.Fatalf("unexpected session %+v", sess)
	}

	gw.EXPECT().Verify(gomock.Any(), "cs_1").Return(false, nil)
	_, err = svc.ConfirmPayment(f.ctx, order.ID)
	expectKind(t, err, apperr.KindPayment)

	gw.EXPECT().Verify(gomock.Any(), "cs_1").Return(true, nil)
	paid, err := svc.ConfirmPayment(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if paid.State != models.StatePaid || paid.PaidAt == nil || paid.Price != 1.5 {
		t.Fatalf("unexpected order after payment %+v", paid)
	}
}

func TestCheckoutFailures(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	svc := newPaymentService(f, gw)

	order := f.order(t)
	_, err := svc.Checkout(f.ctx, order.ID, "")
	expectKind(t, err, apperr.KindValidation)
	_, err = svc.Checkout(f.ctx, order.ID, "jane@example.com")
	expectKind(t, err, apperr.KindConflict)
	_, err = svc.ConfirmPayment(f.ctx, order.ID)
	expectKind(t, err, apperr.KindPayment)

	coca := f.menuItem(t, "Coca-Cola", 0.5, 10)
	if _, err := f.orders.AddOrderableToOrder(f.ctx, coca.ID, order.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	gw.EXPECT().CreateCheckout(gomock.Any(), gomock.Any()).Return(payments.Session{}, errors.New("gateway down"))
	_, err = svc.Checkout(f.ctx, order.ID, "jane@example.com")
	expectKind(t, err, apperr.KindPayment)

	got, _ := f.orders.GetOrder(f.ctx, order.ID)
	if got.PaymentSessionID != "" {
		t.Fatalf("failed checkout must not store a session, got %q", got.PaymentSessionID)
	}
}

func TestCheckoutWithSandbox(t *testing.T) {
	f := newFixture(t)
	sandbox := payments.NewSandbox("http://localhost:8080")
	svc := newPaymentService(f, sandbox)

	coca := f.menuItem(t, "Coca-Cola", 0.5, 10)
	order := f.order(t)
	if _, err := f.orders.AddOrderableToOrder(f.ctx, coca.ID, order.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	sess, err := svc.Checkout(f.ctx, order.ID, "jane@example.com")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if _, err := sandbox.Complete(sess.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	paid, err := svc.ConfirmPayment(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if paid.State != models.StatePaid {
		t.Fatalf("expected PAID, got %s", paid.State)
	}
}

func TestContentChangeAfterCheckoutRequiresNewCheckout(t *testing.T) {
	f := newFixture(t)
	sandbox := payments.NewSandbox("http://localhost:8080")
	svc := newPaymentService(f, sandbox)

	coca := f.menuItem(t, "Coca-Cola", 0.5, 100)
	order := f.order(t)
	if _, err := f.orders.AddOrderableToOrder(f.ctx, coca.ID, order.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	first, err := svc.Checkout(f.ctx, order.ID, "jane@example.com")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if _, err := sandbox.Complete(first.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err := f.orders.AddOrderableToOrder(f.ctx, coca.ID, order.ID, 50)
	if err != nil {
		t.Fatalf("add after checkout: %v", err)
	}
	if got.PaymentSessionID != "" {
		t.Fatalf("changing contents must drop the checkout session, got %q", got.PaymentSessionID)
	}
	_, err = svc.ConfirmPayment(f.ctx, order.ID)
	expectKind(t, err, apperr.KindPayment)
	if got, _ = f.orders.GetOrder(f.ctx, order.ID); got.State != models.StateCreated {
		t.Fatalf("order paid for 2 units must not become PAID with 52, got %s", got.State)
	}

	// removing also invalidates a fresh session
	second, err := svc.Checkout(f.ctx, order.ID, "jane@example.com")
	if err != nil {
		t.Fatalf("second Checkout: %v", err)
	}
	if _, err := f.orders.RemoveOrderableFromOrder(f.ctx, coca.ID, order.ID, 2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := sandbox.Complete(second.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	_, err = svc.ConfirmPayment(f.ctx, order.ID)
	expectKind(t, err, apperr.KindPayment)

	third, err := svc.Checkout(f.ctx, order.ID, "jane@example.com")
	if err != nil {
		t.Fatalf("third Checkout: %v", err)
	}
	if _, err := sandbox.Complete(third.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	paid, err := svc.ConfirmPayment(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if paid.State != models.StatePaid || paid.Price != 25 || paid.Contents()[coca.ID] != 50 {
		t.Fatalf("expected 50 units paid at 25, got %s %v %v", paid.State, paid.Price, paid.Contents())
	}
}

func TestConfirmKeepsCheckoutPrice(t *testing.T) {
	f := newFixture(t)
	sandbox := payments.NewSandbox("http://localhost:8080")
	svc := newPaymentService(f, sandbox)

	coca := f.menuItem(t, "Coca-Cola", 0.5, 10)
	order := f.order(t)
	if _, err := f.orders.AddOrderableToOrder(f.ctx, coca.ID, order.ID, 4); err != nil {
		t.Fatalf("add: %v", err)
	}
	sess, err := svc.Checkout(f.ctx, order.ID, "jane@example.com")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	price := 0.75
	if _, err := f.catalog.UpdateItem(f.ctx, coca.ID, ItemUpdate{Price: &price}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if _, err := sandbox.Complete(sess.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	paid, err := svc.ConfirmPayment(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if paid.Price != 2 {
		t.Fatalf("expected the charged 2.00 to be recorded, got %v", paid.Price)
	}
}
