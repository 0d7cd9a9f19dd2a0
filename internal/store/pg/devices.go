package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rebuildhq/storeconnect/internal/store/core"
)

// UpsertDevice registra o refresca un dispositivo, clave única por token.
// Los topics se reemplazan enteros en cada registro.
func (s *Store) UpsertDevice(ctx context.Context, d core.Device) error {
	topics, err := json.Marshal(d.Topics)
	if err != nil {
		return fmt.Errorf("pg: encode topics: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO fcm_devices (token, device_id, platform, topics, is_primary, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (token) DO UPDATE SET
			device_id  = EXCLUDED.device_id,
			platform   = EXCLUDED.platform,
			topics     = EXCLUDED.topics,
			is_primary = EXCLUDED.is_primary,
			updated_at = now()
	`, d.Token, d.DeviceID, d.Platform, topics, d.Primary)
	if err != nil {
		return fmt.Errorf("pg: upsert device: %w", err)
	}
	return nil
}

func (s *Store) DeleteDevice(ctx context.Context, token string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM fcm_devices WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("pg: delete device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) ListDevices(ctx context.Context, primary bool) ([]core.Device, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT token, device_id, platform, topics, is_primary, updated_at
		FROM fcm_devices WHERE is_primary = $1
		ORDER BY updated_at DESC
	`, primary)
	if err != nil {
		return nil, fmt.Errorf("pg: list devices: %w", err)
	}
	defer rows.Close()

	var out []core.Device
	for rows.Next() {
		var d core.Device
		var topics []byte
		if err := rows.Scan(&d.Token, &d.DeviceID, &d.Platform, &topics, &d.Primary, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if len(topics) > 0 {
			_ = json.Unmarshal(topics, &d.Topics)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
