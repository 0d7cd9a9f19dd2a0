package notify

import (
	"context"
	"fmt"

	"github.com/rebuildhq/storeconnect/internal/store/core"
	"github.com/rebuildhq/storeconnect/internal/validation"
)

// Límites de columna del registro de dispositivos.
const (
	maxDeviceIDLen = 191
	maxPlatformLen = 32
)

// DeviceService registra dispositivos FCM con los límites y validaciones
// aplicados antes de tocar el repositorio.
type DeviceService struct {
	repo core.DeviceRepository
}

// NewDeviceService arma el servicio.
func NewDeviceService(repo core.DeviceRepository) *DeviceService {
	return &DeviceService{repo: repo}
}

// Register upsertea el dispositivo (clave por token). Los topics del
// registro anterior se reemplazan enteros.
func (s *DeviceService) Register(ctx context.Context, d core.Device) error {
	if d.Token == "" {
		return fmt.Errorf("notify: device token requerido")
	}
	for _, t := range d.Topics {
		if !validation.IsValidTopic(t) {
			return fmt.Errorf("notify: invalid topic %q", t)
		}
	}

	if len(d.DeviceID) > maxDeviceIDLen {
		d.DeviceID = d.DeviceID[:maxDeviceIDLen]
	}
	if len(d.Platform) > maxPlatformLen {
		d.Platform = d.Platform[:maxPlatformLen]
	}

	return s.repo.UpsertDevice(ctx, d)
}

// Unregister borra el dispositivo por token.
func (s *DeviceService) Unregister(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("notify: device token requerido")
	}
	return s.repo.DeleteDevice(ctx, token)
}
