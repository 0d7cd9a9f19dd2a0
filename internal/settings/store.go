package settings

import (
	"context"
	"errors"
)

// ErrNotFound indica que todavía no hay settings persistidos.
var ErrNotFound = errors.New("settings: not found")

// Store persiste el documento de settings completo.
// Las implementaciones no interpretan el contenido: Load devuelve lo último
// guardado y Save reemplaza el documento entero.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}
