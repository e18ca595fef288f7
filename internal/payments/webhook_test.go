package payments_test

import (
	"errors"
	"testing"
	"time"

	"artventure/internal/payments"
)

const secret = "whsec_test"

var body = []byte(`{
  "id": "evt_1",
  "type": "checkout.session.completed",
  "data": {"object": {
    "id": "cs_123",
    "payment_intent": "pi_456",
    "amount_total": 6597,
    "metadata": {"user_id": "guest"}
  }}
}`)

func TestVerifyAndParse_RoundTrip(t *testing.T) {
	header := payments.Sign(body, secret, time.Now())
	ev, err := payments.VerifyAndParse(body, header, secret, payments.DefaultTolerance)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Type != payments.EventCheckoutCompleted {
		t.Fatalf("want checkout.session.completed, got %q", ev.Type)
	}
	sess := ev.Data.Object
	if sess.ID != "cs_123" || sess.PaymentIntent != "pi_456" || sess.AmountTotal != 6597 {
		t.Fatalf("bad session: %+v", sess)
	}
	if sess.Metadata["user_id"] != "guest" {
		t.Fatalf("metadata lost: %+v", sess.Metadata)
	}
}

func TestVerifyAndParse_MissingHeader(t *testing.T) {
	_, err := payments.VerifyAndParse(body, "", secret, payments.DefaultTolerance)
	if !errors.Is(err, payments.ErrMissingSignature) {
		t.Fatalf("want ErrMissingSignature, got %v", err)
	}
}

func TestVerifyAndParse_TamperedBody(t *testing.T) {
	header := payments.Sign(body, secret, time.Now())
	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] = 'X'
	_, err := payments.VerifyAndParse(tampered, header, secret, payments.DefaultTolerance)
	if !errors.Is(err, payments.ErrBadSignature) {
		t.Fatalf("want ErrBadSignature, got %v", err)
	}
}

func TestVerifyAndParse_WrongSecret(t *testing.T) {
	header := payments.Sign(body, "whsec_other", time.Now())
	_, err := payments.VerifyAndParse(body, header, secret, payments.DefaultTolerance)
	if !errors.Is(err, payments.ErrBadSignature) {
		t.Fatalf("want ErrBadSignature, got %v", err)
	}
}

func TestVerifyAndParse_StaleTimestamp(t *testing.T) {
	header := payments.Sign(body, secret, time.Now().Add(-10*time.Minute))
	_, err := payments.VerifyAndParse(body, header, secret, payments.DefaultTolerance)
	if !errors.Is(err, payments.ErrStaleTimestamp) {
		t.Fatalf("want ErrStaleTimestamp, got %v", err)
	}
}

func TestVerifyAndParse_GarbageHeader(t *testing.T) {
	for _, h := range []string{"t=,v1=", "v1=deadbeef", "t=123", "t=abc,v1=zz", "nonsense"} {
		if _, err := payments.VerifyAndParse(body, h, secret, payments.DefaultTolerance); !errors.Is(err, payments.ErrBadSignature) {
			t.Fatalf("header %q: want ErrBadSignature, got %v", h, err)
		}
	}
}
