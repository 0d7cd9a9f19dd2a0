package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// dispatchTotal cuenta entregas por canal y resultado.
var dispatchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notify_dispatch_total",
		Help: "Entregas de eventos por canal (fcm, webhook) y resultado (ok, error).",
	},
	[]string{"channel", "outcome"},
)

func observeDispatch(channel string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	dispatchTotal.WithLabelValues(channel, outcome).Inc()
}
