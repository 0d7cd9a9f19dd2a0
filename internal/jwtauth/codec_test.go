package jwtauth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

type fixedSecret []byte

func (f fixedSecret) JWTSecret() ([]byte, error) { return f, nil }

func newTestCodec(secret []byte) *Codec {
	return NewCodec("storeconnect", fixedSecret(secret))
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := newTestCodec([]byte("0123456789abcdef0123456789abcdef"))

	tok, err := c.Issue("connector", []string{"orders.read", "products.read"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got := Subject(claims); got != "connector" {
		t.Fatalf("sub = %q, want %q", got, "connector")
	}
	scopes := ExtractScopes(claims)
	if !HasAllScopes(scopes, "orders.read", "products.read") {
		t.Fatalf("scopes = %v, want orders.read y products.read", scopes)
	}
}

func TestVerifyExpired(t *testing.T) {
	c := newTestCodec([]byte("0123456789abcdef0123456789abcdef"))

	past := time.Now().Add(-2 * time.Hour)
	c.now = func() time.Time { return past }
	tok, err := c.Issue("connector", nil, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c.now = time.Now
	if _, err := c.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyNotYetValid(t *testing.T) {
	c := newTestCodec([]byte("0123456789abcdef0123456789abcdef"))

	future := time.Now().Add(time.Hour)
	c.now = func() time.Time { return future }
	tok, err := c.Issue("connector", nil, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c.now = time.Now
	if _, err := c.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	c := newTestCodec([]byte("0123456789abcdef0123456789abcdef"))

	tok, err := c.Issue("connector", []string{"orders.read"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Voltear un bit de la firma
	parts := strings.Split(tok, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("decode sig: %v", err)
	}
	sig[0] ^= 0x01
	parts[2] = base64.RawURLEncoding.EncodeToString(sig)

	if _, err := c.Verify(strings.Join(parts, ".")); err != ErrInvalidToken {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	a := newTestCodec([]byte("0123456789abcdef0123456789abcdef"))
	b := newTestCodec([]byte("ffffffffffffffffffffffffffffffff"))

	tok, err := a.Issue("connector", nil, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	c := newTestCodec([]byte("0123456789abcdef0123456789abcdef"))
	for _, raw := range []string{"", "abc", "a.b.c", "ey.ey.ey"} {
		if _, err := c.Verify(raw); err != ErrInvalidToken {
			t.Fatalf("Verify(%q) err = %v, want ErrInvalidToken", raw, err)
		}
	}
}

func TestHasAllScopes(t *testing.T) {
	granted := []string{"orders.read", "products.write"}

	cases := []struct {
		required []string
		want     bool
	}{
		{nil, true},
		{[]string{"orders.read"}, true},
		{[]string{"orders.read", "products.write"}, true},
		{[]string{"orders.read", "stock.write"}, false},
		{[]string{"ORDERS.READ"}, true}, // case-insensitive
	}
	for _, c := range cases {
		if got := HasAllScopes(granted, c.required...); got != c.want {
			t.Fatalf("HasAllScopes(%v) = %v, want %v", c.required, got, c.want)
		}
	}
}
