package payments

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSandboxCheckoutLifecycle(t *testing.T) {
	ctx := context.Background()
	sb := NewSandbox("http://localhost:8080/")

	sess, err := sb.CreateCheckout(ctx, CheckoutRequest{OrderID: 1, Amount: 4.5, PayerEmail: "a@b.c", SuccessURL: "http://ok"})
	if err != nil {
		t.Fatalf("CreateCheckout returned error: %v", err)
	}
	if !strings.HasPrefix(sess.RedirectURL, "http://localhost:8080/payments/sandbox/cs_test_") {
		t.Fatalf("unexpected redirect url %q", sess.RedirectURL)
	}

	paid, err := sb.Verify(ctx, sess.ID)
	if err != nil || paid {
		t.Fatalf("expected unpaid session, got paid=%v err=%v", paid, err)
	}

	back, err := sb.Complete(sess.ID)
	if err != nil || back != "http://ok" {
		t.Fatalf("Complete returned %q, %v", back, err)
	}
	if paid, _ := sb.Verify(ctx, sess.ID); !paid {
		t.Fatal("expected session to be paid after Complete")
	}
}

func TestSandboxRejectsBadRequests(t *testing.T) {
	sb := NewSandbox("http://x")
	if _, err := sb.CreateCheckout(context.Background(), CheckoutRequest{Amount: 0, PayerEmail: "a@b.c"}); err == nil {
		t.Fatal("expected zero amount to be rejected")
	}
	if _, err := sb.CreateCheckout(context.Background(), CheckoutRequest{Amount: 1}); err == nil {
		t.Fatal("expected missing email to be rejected")
	}
	if _, err := sb.Verify(context.Background(), "nope"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}
