package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type webhookFixture struct {
	url    string
	secret string
}

func (w *webhookFixture) WebhookURL() string    { return w.url }
func (w *webhookFixture) WebhookSecret() string { return w.secret }

type webhookCapture struct {
	body      []byte
	signature string
	hasHeader bool
	status    int
}

func startWebhookTarget(t *testing.T, cap *webhookCapture) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cap.body, _ = io.ReadAll(r.Body)
		cap.signature = r.Header.Get(SignatureHeader)
		_, cap.hasHeader = r.Header[SignatureHeader]
		if cap.status == 0 {
			cap.status = http.StatusOK
		}
		w.WriteHeader(cap.status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebhookSignsBodyWhenSecretConfigured(t *testing.T) {
	cap := &webhookCapture{}
	srv := startWebhookTarget(t, cap)
	svc := NewWebhookService(&webhookFixture{url: srv.URL, secret: "hush"})

	err := svc.Send(context.Background(), "order.status.updated", map[string]any{"order_id": 42})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	// La firma es HMAC-SHA256 hex de los bytes exactos del body
	mac := hmac.New(sha256.New, []byte("hush"))
	mac.Write(cap.body)
	want := hex.EncodeToString(mac.Sum(nil))
	if cap.signature != want {
		t.Fatalf("firma = %q, want %q", cap.signature, want)
	}

	var payload struct {
		Event     string         `json:"event"`
		EmittedAt string         `json:"emitted_at"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(cap.body, &payload); err != nil {
		t.Fatalf("body no es JSON: %v", err)
	}
	if payload.Event != "order.status.updated" {
		t.Fatalf("event = %q", payload.Event)
	}
	if _, err := time.Parse(time.RFC3339, payload.EmittedAt); err != nil {
		t.Fatalf("emitted_at %q no es RFC 3339: %v", payload.EmittedAt, err)
	}
}

func TestWebhookOmitsSignatureWithoutSecret(t *testing.T) {
	cap := &webhookCapture{}
	srv := startWebhookTarget(t, cap)
	svc := NewWebhookService(&webhookFixture{url: srv.URL})

	if err := svc.Send(context.Background(), "order.status.updated", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if cap.hasHeader {
		t.Fatalf("header %s presente sin secreto configurado", SignatureHeader)
	}
}

func TestWebhookNon2xxIsFailure(t *testing.T) {
	cap := &webhookCapture{status: http.StatusBadGateway}
	srv := startWebhookTarget(t, cap)
	svc := NewWebhookService(&webhookFixture{url: srv.URL, secret: "hush"})

	if err := svc.Send(context.Background(), "order.status.updated", nil); err == nil {
		t.Fatal("esperaba error con status 502")
	}
}

func TestWebhookUnconfigured(t *testing.T) {
	svc := NewWebhookService(&webhookFixture{})
	if svc.Configured() {
		t.Fatal("Configured() = true sin URL")
	}
	if err := svc.Send(context.Background(), "e", nil); err == nil {
		t.Fatal("esperaba error sin URL configurada")
	}
}
