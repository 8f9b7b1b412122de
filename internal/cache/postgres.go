package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"meterflow/internal/model"
)

// PostgresStore persists consolidated series in Postgres, one row per
// (meter, data kind) key with the readings as a JSON document. Merging
// happens in the cache layer; the store only ever replaces whole rows.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects and makes sure the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS consolidated_series (
			meter_id   TEXT        NOT NULL,
			data_kind  TEXT        NOT NULL,
			readings   JSONB       NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (meter_id, data_kind)
		)`)
	if err != nil {
		return fmt.Errorf("creating consolidated_series: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, meterID string, kind model.DataKind) (model.Series, bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT readings FROM consolidated_series WHERE meter_id = $1 AND data_kind = $2`,
		meterID, kind).Scan(&raw)
	if err == sql.ErrNoRows {
		return model.Series{MeterID: meterID, Kind: kind}, false, nil
	}
	if err != nil {
		return model.Series{}, false, fmt.Errorf("loading series: %w", err)
	}

	var readings []model.Reading
	if err := json.Unmarshal(raw, &readings); err != nil {
		return model.Series{}, false, fmt.Errorf("decoding stored series: %w", err)
	}
	return model.Series{MeterID: meterID, Kind: kind, Readings: readings}, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, series model.Series) error {
	raw, err := json.Marshal(series.Readings)
	if err != nil {
		return fmt.Errorf("encoding series: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO consolidated_series (meter_id, data_kind, readings, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (meter_id, data_kind) DO UPDATE SET
			readings   = EXCLUDED.readings,
			updated_at = EXCLUDED.updated_at`,
		series.MeterID, series.Kind, raw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving series: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, meterID string, kind model.DataKind) error {
	q := `DELETE FROM consolidated_series WHERE ($1 = '' OR meter_id = $1) AND ($2 = '' OR data_kind = $2)`
	if _, err := s.db.ExecContext(ctx, q, meterID, string(kind)); err != nil {
		return fmt.Errorf("deleting series: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }
