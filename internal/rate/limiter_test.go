package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
)

func newTestRedisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, "rl:"), mr
}

func TestRedisLimiterDeniesOverLimit(t *testing.T) {
	l, _ := newTestRedisLimiter(t)
	ctx := context.Background()

	const limit = 5
	for i := 1; i <= limit; i++ {
		res, err := l.Allow(ctx, "ip:1.2.3.4", limit)
		if err != nil {
			t.Fatalf("Allow #%d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d denegado, limit=%d", i, limit)
		}
		if res.CurrentHits != int64(i) {
			t.Fatalf("CurrentHits = %d, want %d", res.CurrentHits, i)
		}
	}

	// limit+1 se rechaza
	res, err := l.Allow(ctx, "ip:1.2.3.4", limit)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if res.Allowed {
		t.Fatal("hit limit+1 permitido")
	}
	if res.Remaining != 0 {
		t.Fatalf("Remaining = %d, want 0", res.Remaining)
	}
	if res.RetryAfter <= 0 {
		t.Fatalf("RetryAfter = %v, want > 0", res.RetryAfter)
	}
}

func TestRedisLimiterIdentifiersAreIndependent(t *testing.T) {
	l, _ := newTestRedisLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := l.Allow(ctx, "ip:1.1.1.1", 3); err != nil {
			t.Fatalf("Allow: %v", err)
		}
	}
	res, err := l.Allow(ctx, "token:connector", 3)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !res.Allowed || res.CurrentHits != 1 {
		t.Fatalf("otro identificador arranca de cero, got hits=%d allowed=%v", res.CurrentHits, res.Allowed)
	}
}

func TestRedisLimiterWindowReset(t *testing.T) {
	l, mr := newTestRedisLimiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := l.Allow(ctx, "ip:9.9.9.9", 2); err != nil {
			t.Fatalf("Allow: %v", err)
		}
	}
	if res, _ := l.Allow(ctx, "ip:9.9.9.9", 2); res.Allowed {
		t.Fatal("tercer hit dentro de la ventana permitido")
	}

	// Expirar la ventana: la clave vive Window segundos
	mr.FastForward(Window + time.Second)

	res, err := l.Allow(ctx, "ip:9.9.9.9", 2)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	// La clave vieja expiró; aunque el minuto de reloj sea el mismo, el
	// contador de esa clave vuelve a empezar
	if !res.Allowed {
		t.Fatal("hit tras expirar la ventana denegado")
	}
}

// countingLimiter cuenta cuántas veces se consulta el backend.
type countingLimiter struct {
	calls int
	res   Result
}

func (c *countingLimiter) Allow(context.Context, string, int) (Result, error) {
	c.calls++
	return c.res, nil
}

func TestMemoDecidesOncePerPair(t *testing.T) {
	inner := &countingLimiter{res: Result{Allowed: true, CurrentHits: 1}}
	memo := NewMemo(inner)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := memo.Allow(ctx, "ip:1.2.3.4", 60); err != nil {
			t.Fatalf("Allow: %v", err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("backend consultado %d veces, want 1", inner.calls)
	}

	// Otro limit con el mismo identifier es otro par
	if _, err := memo.Allow(ctx, "ip:1.2.3.4", 30); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("backend consultado %d veces, want 2", inner.calls)
	}
}
