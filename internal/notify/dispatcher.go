package notify

import (
	"context"

	"github.com/rebuildhq/storeconnect/internal/audit"
	"github.com/rebuildhq/storeconnect/internal/observability/logger"
)

// Dispatcher abanica un evento de dominio a todos los canales configurados.
// Cada canal es best-effort e independiente: que falle el webhook no afecta
// el resultado de FCM ni viceversa.
type Dispatcher struct {
	fcm     *FCMService
	webhook *WebhookService
	audit   *audit.Logger
}

// NewDispatcher arma el dispatcher. fcm y webhook pueden ser nil.
func NewDispatcher(fcm *FCMService, webhook *WebhookService, auditLog *audit.Logger) *Dispatcher {
	return &Dispatcher{fcm: fcm, webhook: webhook, audit: auditLog}
}

// DispatchResult resume el resultado por canal.
type DispatchResult struct {
	PushSent   int
	PushErr    error
	WebhookOK  bool
	WebhookErr error
}

// Dispatch entrega el evento por push y webhook, audita el resultado y
// nunca devuelve error: los canales son best-effort.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) DispatchResult {
	log := logger.From(ctx).With(logger.Event(msg.Event))
	var res DispatchResult

	if d.fcm != nil && d.fcm.Configured() {
		res.PushSent, res.PushErr = d.fcm.SendEvent(ctx, msg)
		observeDispatch("fcm", res.PushErr == nil && res.PushSent > 0)
		if res.PushErr != nil {
			log.Warn("push dispatch failed", logger.Channel("fcm"), logger.Err(res.PushErr))
		} else {
			log.Info("push dispatched", logger.Channel("fcm"), logger.Count(res.PushSent))
		}
	}

	if d.webhook != nil && d.webhook.Configured() {
		res.WebhookErr = d.webhook.Send(ctx, msg.Event, msg.Data)
		res.WebhookOK = res.WebhookErr == nil
		observeDispatch("webhook", res.WebhookOK)
		if res.WebhookErr != nil {
			log.Warn("webhook dispatch failed", logger.Channel("webhook"), logger.Err(res.WebhookErr))
		} else {
			log.Info("webhook dispatched", logger.Channel("webhook"))
		}
	}

	d.audit.Record(ctx, audit.Entry{
		Event: "notify.dispatched",
		Detail: map[string]any{
			"event":      msg.Event,
			"push_sent":  res.PushSent,
			"webhook_ok": res.WebhookOK,
		},
	})
	return res
}
