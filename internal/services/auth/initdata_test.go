package auth

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"
)

const testToken = "123456:TEST"

func signedInitData(t *testing.T, authDate time.Time, userJSON string) string {
	t.Helper()
	fields := url.Values{}
	fields.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	fields.Set("query_id", "AAE")
	fields.Set("user", userJSON)
	fields.Set("hash", Sign(fields, testToken))
	return fields.Encode()
}

func newTestVerifier(now time.Time) *Verifier {
	v := NewVerifier(testToken, time.Hour)
	v.now = func() time.Time { return now }
	return v
}

func TestVerifyAcceptsSignedData(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	raw := signedInitData(t, now.Add(-time.Minute), `{"id":777,"username":"ann"}`)

	identity, err := newTestVerifier(now).Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.ChatID != 777 || identity.Username != "ann" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestVerifyRejectsTamperedData(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	raw := signedInitData(t, now.Add(-time.Minute), `{"id":777}`)

	fields, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fields.Set("user", `{"id":778}`)

	if _, err := newTestVerifier(now).Verify(fields.Encode()); !errors.Is(err, ErrInvalidInitData) {
		t.Fatalf("expected ErrInvalidInitData, got %v", err)
	}
}

func TestVerifyRejectsExpiredAndFutureData(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	v := newTestVerifier(now)

	if _, err := v.Verify(signedInitData(t, now.Add(-2*time.Hour), `{"id":1}`)); !errors.Is(err, ErrInvalidInitData) {
		t.Fatalf("expired init data must be rejected, got %v", err)
	}
	if _, err := v.Verify(signedInitData(t, now.Add(10*time.Minute), `{"id":1}`)); !errors.Is(err, ErrInvalidInitData) {
		t.Fatalf("future init data must be rejected, got %v", err)
	}
}

func TestVerifyRejectsEmptyAndWrongToken(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	if _, err := newTestVerifier(now).Verify("  "); !errors.Is(err, ErrInvalidInitData) {
		t.Fatalf("empty init data must be rejected, got %v", err)
	}

	raw := signedInitData(t, now, `{"id":1}`)
	other := NewVerifier("999:OTHER", time.Hour)
	other.now = func() time.Time { return now }
	if _, err := other.Verify(raw); !errors.Is(err, ErrInvalidInitData) {
		t.Fatalf("data signed for another bot must be rejected, got %v", err)
	}
}

func TestIdentityContextRoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{ChatID: 5})
	identity, ok := IdentityFromContext(ctx)
	if !ok || identity.ChatID != 5 {
		t.Fatalf("unexpected identity from context: %+v, %v", identity, ok)
	}
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Fatalf("empty context must not carry an identity")
	}
}
