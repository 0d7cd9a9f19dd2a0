package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SignatureHeader lleva el HMAC-SHA256 (hex) del body exacto.
// Solo se agrega cuando hay secreto configurado.
const SignatureHeader = "X-StoreConnect-Signature"

const webhookTimeout = 10 * time.Second

// WebhookConfig son los settings que necesita el servicio webhook.
type WebhookConfig interface {
	WebhookURL() string
	WebhookSecret() string
}

// WebhookService entrega eventos por POST JSON. 2xx cuenta como éxito,
// cualquier otra cosa es falla.
type WebhookService struct {
	cfg   WebhookConfig
	httpc *http.Client
}

// NewWebhookService arma el servicio.
func NewWebhookService(cfg WebhookConfig) *WebhookService {
	return &WebhookService{cfg: cfg, httpc: &http.Client{Timeout: webhookTimeout}}
}

// Configured reporta si hay URL de destino.
func (s *WebhookService) Configured() bool {
	return s.cfg.WebhookURL() != ""
}

// Send entrega un evento. emitted_at va en RFC 3339 UTC.
func (s *WebhookService) Send(ctx context.Context, event string, data map[string]any) error {
	url := s.cfg.WebhookURL()
	if url == "" {
		return fmt.Errorf("notify: webhook no configurado")
	}

	body, err := json.Marshal(map[string]any{
		"event":      event,
		"emitted_at": time.Now().UTC().Format(time.RFC3339),
		"data":       data,
	})
	if err != nil {
		return fmt.Errorf("notify: encode webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	// Firmar exactamente los bytes que viajan
	if secret := s.cfg.WebhookSecret(); secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		req.Header.Set(SignatureHeader, hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("notify: webhook post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("notify: webhook status %d", resp.StatusCode)
	}
	return nil
}
