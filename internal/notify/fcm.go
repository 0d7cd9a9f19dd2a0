package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rebuildhq/storeconnect/internal/cache"
	"github.com/rebuildhq/storeconnect/internal/observability/logger"
	"github.com/rebuildhq/storeconnect/internal/store/core"
)

const (
	// fcmEndpointFmt es el endpoint de envío HTTP v1 (por proyecto).
	fcmEndpointFmt = "https://fcm.googleapis.com/v1/projects/%s/messages:send"
	// fcmTimeout acota cada llamada saliente.
	fcmTimeout = 10 * time.Second
)

// FCMConfig son los settings que necesita el servicio FCM.
type FCMConfig interface {
	FCMProjectID() string
	FCMServiceAccount() []byte
	FCMTopics() []string
}

// Message es una notificación push con payload de datos.
type Message struct {
	Event string
	Title string
	Body  string
	Data  map[string]any
}

// FCMService envía pushes en cascada: topics configurados primero; si ningún
// topic entregó, tokens primarios; si tampoco, tokens de fallback.
type FCMService struct {
	cfg     FCMConfig
	devices core.DeviceRepository
	tokens  *tokenSource
	httpc   *http.Client

	// endpoint override para tests; "" usa el endpoint real de Google.
	endpoint string
}

// NewFCMService arma el servicio. El cache guarda el access token OAuth.
func NewFCMService(cfg FCMConfig, devices core.DeviceRepository, c cache.Cache) *FCMService {
	httpc := &http.Client{Timeout: fcmTimeout}
	return &FCMService{
		cfg:     cfg,
		devices: devices,
		tokens:  newTokenSource(cfg, httpc, c),
		httpc:   httpc,
	}
}

// Configured reporta si hay proyecto y service account cargados.
func (s *FCMService) Configured() bool {
	return s.cfg.FCMProjectID() != "" && len(s.cfg.FCMServiceAccount()) > 0
}

// SendEvent ejecuta la cascada y devuelve la cantidad de envíos exitosos.
func (s *FCMService) SendEvent(ctx context.Context, msg Message) (int, error) {
	if !s.Configured() {
		return 0, fmt.Errorf("notify: fcm no configurado")
	}

	accessToken, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return 0, err
	}

	log := logger.From(ctx)

	// Tier 1: topics
	sent := 0
	for _, topic := range s.cfg.FCMTopics() {
		if err := s.send(ctx, accessToken, target{topic: topic}, msg); err != nil {
			log.Warn("fcm topic send failed", logger.Topic(topic), logger.Err(err))
			continue
		}
		sent++
	}
	if sent > 0 {
		return sent, nil
	}

	// Tier 2: tokens primarios
	sent = s.sendToDevices(ctx, accessToken, msg, true)
	if sent > 0 {
		return sent, nil
	}

	// Tier 3: tokens de fallback
	return s.sendToDevices(ctx, accessToken, msg, false), nil
}

func (s *FCMService) sendToDevices(ctx context.Context, accessToken string, msg Message, primary bool) int {
	devices, err := s.devices.ListDevices(ctx, primary)
	if err != nil {
		logger.From(ctx).Warn("fcm device list failed",
			logger.Bool("primary", primary), logger.Err(err))
		return 0
	}

	sent := 0
	for _, d := range devices {
		if err := s.send(ctx, accessToken, target{token: d.Token}, msg); err != nil {
			logger.From(ctx).Warn("fcm token send failed", logger.Err(err))
			continue
		}
		sent++
	}
	return sent
}

// target es el destino de un mensaje: topic o token, nunca ambos.
type target struct {
	topic string
	token string
}

func (s *FCMService) send(ctx context.Context, accessToken string, tgt target, msg Message) error {
	message := map[string]any{
		"notification": map[string]string{
			"title": msg.Title,
			"body":  msg.Body,
		},
		"data": stringifyData(msg.Event, msg.Data),
	}
	if tgt.topic != "" {
		message["topic"] = tgt.topic
	} else {
		message["token"] = tgt.token
	}

	body, err := json.Marshal(map[string]any{"message": message})
	if err != nil {
		return fmt.Errorf("notify: encode message: %w", err)
	}

	endpoint := s.endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf(fcmEndpointFmt, s.cfg.FCMProjectID())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("notify: fcm send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("notify: fcm send status %d", resp.StatusCode)
	}
	return nil
}

// stringifyData convierte el payload a map[string]string como exige FCM:
// escalares via fmt, valores estructurados como JSON.
func stringifyData(event string, data map[string]any) map[string]string {
	out := make(map[string]string, len(data)+1)
	out["event"] = event
	for k, v := range data {
		switch v := v.(type) {
		case string:
			out[k] = v
		case nil:
			out[k] = ""
		case bool, int, int32, int64, float32, float64:
			out[k] = fmt.Sprint(v)
		default:
			if b, err := json.Marshal(v); err == nil {
				out[k] = string(b)
			}
		}
	}
	return out
}
