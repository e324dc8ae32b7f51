// Package db persists accepted sensor readings to sqlite.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rfsense/tfa433/internal/tfa"
)

type DB struct {
	*sql.DB
}

// NewDB opens (and if needed creates) the readings database at path.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS readings (
			reading_id        TEXT PRIMARY KEY,
			device_id         INTEGER,
			channel           INTEGER,
			temp_c            DOUBLE,
			humidity          INTEGER,
			battery_low       INTEGER,
			sync_button       INTEGER,
			received_at       TEXT
		);
		CREATE INDEX IF NOT EXISTS readings_channel_time
			ON readings(channel, received_at);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// StoredReading is a persisted reading plus its row identity.
type StoredReading struct {
	ID string `json:"id"`
	tfa.Reading
	ReceivedAt time.Time `json:"received_at"`
}

// RecordReading inserts an accepted reading and returns its row id.
func (db *DB) RecordReading(r tfa.Reading, at time.Time) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO readings
			(reading_id, device_id, channel, temp_c, humidity, battery_low, sync_button, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, r.DeviceID, r.Channel, r.TempC, r.Humidity,
		boolInt(r.BatteryLow), boolInt(r.Sync), at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record reading: %w", err)
	}
	return id, nil
}

// RecentReadings returns the newest readings, most recent first.
func (db *DB) RecentReadings(limit int) ([]StoredReading, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT reading_id, device_id, channel, temp_c, humidity, battery_low, sync_button, received_at
		FROM readings ORDER BY received_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReadings(rows)
}

// ChannelHistory returns readings for one channel since the given time,
// oldest first (chart order).
func (db *DB) ChannelHistory(channel int, since time.Time) ([]StoredReading, error) {
	rows, err := db.Query(`
		SELECT reading_id, device_id, channel, temp_c, humidity, battery_low, sync_button, received_at
		FROM readings WHERE channel = ? AND received_at >= ?
		ORDER BY received_at ASC`,
		channel, since.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReadings(rows)
}

// CountReadings returns the total number of stored readings.
func (db *DB) CountReadings() (int64, error) {
	var n int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanReadings(rows *sql.Rows) ([]StoredReading, error) {
	var out []StoredReading
	for rows.Next() {
		var (
			r          StoredReading
			batt, sync int
			at         string
		)
		if err := rows.Scan(&r.ID, &r.DeviceID, &r.Channel, &r.TempC, &r.Humidity, &batt, &sync, &at); err != nil {
			return nil, err
		}
		r.BatteryLow = batt != 0
		r.Sync = sync != 0
		r.Type = tfa.SensorType
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("bad received_at %q: %w", at, err)
		}
		r.ReceivedAt = t
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
