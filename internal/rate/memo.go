package rate

import (
	"context"
	"fmt"
	"sync"
)

// Memo envuelve un Limiter y memoiza el veredicto por par identifier|limit.
// Un Memo vive lo que vive un request HTTP: varios guards dentro del mismo
// request consultan una sola vez por identificador.
type Memo struct {
	inner Limiter

	mu   sync.Mutex
	seen map[string]memoEntry
}

type memoEntry struct {
	res Result
	err error
}

// NewMemo crea la capa de memoización sobre inner.
func NewMemo(inner Limiter) *Memo {
	return &Memo{inner: inner, seen: make(map[string]memoEntry, 2)}
}

func (m *Memo) Allow(ctx context.Context, identifier string, limit int) (Result, error) {
	key := fmt.Sprintf("%s|%d", identifier, limit)

	m.mu.Lock()
	if e, ok := m.seen[key]; ok {
		m.mu.Unlock()
		return e.res, e.err
	}
	m.mu.Unlock()

	res, err := m.inner.Allow(ctx, identifier, limit)

	m.mu.Lock()
	m.seen[key] = memoEntry{res: res, err: err}
	m.mu.Unlock()
	return res, err
}
