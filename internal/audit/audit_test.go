package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// captureRecorder guarda la última entrada recibida.
type captureRecorder struct {
	last Entry
	err  error
}

func (c *captureRecorder) Record(_ context.Context, e Entry) error {
	c.last = e
	return c.err
}

func TestRecordTruncatesFields(t *testing.T) {
	rec := &captureRecorder{}
	l := New(rec)

	l.Record(context.Background(), Entry{
		Event:   strings.Repeat("e", 100),
		Subject: strings.Repeat("s", 200),
		IP:      strings.Repeat("9", 80),
	})

	if got := len(rec.last.Event); got != MaxEventLen {
		t.Fatalf("event len = %d, want %d", got, MaxEventLen)
	}
	if got := len(rec.last.Subject); got != MaxSubjectLen {
		t.Fatalf("subject len = %d, want %d", got, MaxSubjectLen)
	}
	if got := len(rec.last.IP); got != MaxIPLen {
		t.Fatalf("ip len = %d, want %d", got, MaxIPLen)
	}
	if rec.last.At.IsZero() {
		t.Fatal("At no fue completado")
	}
}

func TestRecordTruncatesScopesAtBoundary(t *testing.T) {
	rec := &captureRecorder{}
	l := New(rec)

	// Cada scope ocupa 50 chars; con separadores, 5 scopes = 254 <= 255,
	// 6 scopes = 305 > 255: deben quedar 5.
	scope := strings.Repeat("a", 50)
	scopes := make([]string, 6)
	for i := range scopes {
		scopes[i] = scope
	}

	l.Record(context.Background(), Entry{Event: "api.request", Scopes: scopes})

	if got := len(rec.last.Scopes); got != 5 {
		t.Fatalf("scopes = %d, want 5", got)
	}
	if joined := strings.Join(rec.last.Scopes, " "); len(joined) > MaxScopesLen {
		t.Fatalf("joined scopes len = %d, want <= %d", len(joined), MaxScopesLen)
	}
}

func TestEncodeDetailFallsBackToEmptyObject(t *testing.T) {
	if got := string(encodeDetail(nil)); got != "{}" {
		t.Fatalf("detail vacío = %q, want {}", got)
	}
	if got := string(encodeDetail(map[string]any{"order_id": 7})); got != `{"order_id":7}` {
		t.Fatalf("detail = %q", got)
	}
	// Un valor no serializable no descarta la fila
	if got := string(encodeDetail(map[string]any{"ch": make(chan int)})); got != "{}" {
		t.Fatalf("detail no serializable = %q, want {}", got)
	}
}

func TestRecordSwallowsRecorderError(t *testing.T) {
	rec := &captureRecorder{err: errors.New("db down")}
	l := New(rec)

	// No debe panic ni propagar nada
	l.Record(context.Background(), Entry{Event: "api.request"})
	if rec.last.Event != "api.request" {
		t.Fatal("el recorder no fue invocado")
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	l.Record(context.Background(), Entry{Event: "api.request"})
	New(nil).Record(context.Background(), Entry{Event: "api.request"})
}
