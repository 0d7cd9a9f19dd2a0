// Package cache define la interfaz mínima de cache byte-oriented.
// Backends: memoria (go-cache) para un solo proceso, Redis para compartir
// entre réplicas.
package cache

import "time"

// Cache es un KV con TTL. Get devuelve (nil, false) si la clave no existe
// o expiró.
type Cache interface {
	Get(k string) ([]byte, bool)
	Set(k string, v []byte, ttl time.Duration)
	Delete(k string)
}
