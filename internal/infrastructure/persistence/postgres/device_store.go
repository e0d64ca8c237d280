package postgres

import (
	"context"
	"fmt"
)

// DeviceStore persists progress records in the device_storage table.
type DeviceStore struct {
	conn *Connection
}

// NewDeviceStore creates a DeviceStore.
func NewDeviceStore(conn *Connection) *DeviceStore {
	return &DeviceStore{conn: conn}
}

func (s *DeviceStore) Get(ctx context.Context, device, key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRow(ctx,
		`SELECT value FROM device_storage WHERE device_id = $1 AND storage_key = $2`,
		device, key,
	).Scan(&value)
	if IsNoRows(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read device record: %w", err)
	}
	return value, true, nil
}

func (s *DeviceStore) Set(ctx context.Context, device, key, value string) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO device_storage (device_id, storage_key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (device_id, storage_key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, device, key, value)
	if err != nil {
		return fmt.Errorf("failed to write device record: %w", err)
	}
	return nil
}

// Remove deletes all keys in one statement.
func (s *DeviceStore) Remove(ctx context.Context, device string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.conn.Exec(ctx,
		`DELETE FROM device_storage WHERE device_id = $1 AND storage_key = ANY($2)`,
		device, keys,
	)
	if err != nil {
		return fmt.Errorf("failed to remove device records: %w", err)
	}
	return nil
}
