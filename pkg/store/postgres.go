package store

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver migrate dials through

	"github.com/miesc-dev/miesc/pkg/bus"
)

//go:embed migrations
var migrationsFS embed.FS

// PostgresConfig configures the optional event-log sink. The file layout
// under FileWriter is unconditional once an output directory is set;
// Postgres is additive, for replaying the bus across process restarts.
type PostgresConfig struct {
	DSN string
}

// PostgresSink persists every bus event to a single bus_events table.
// Generalized from the teacher's pkg/database, which wraps the same
// pgx+migrate combination around an ent-generated client; no codegen is
// reproduced here, so queries are plain SQL through pgxpool.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// OpenPostgresSink runs the embedded migrations against cfg.DSN, opens a
// connection pool, and returns a ready PostgresSink.
func OpenPostgresSink(ctx context.Context, cfg PostgresConfig) (*PostgresSink, error) {
	if err := runMigrations(cfg.DSN); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

func runMigrations(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}

// RecordEvents subscribes to every known topic for auditID and persists
// each event as a row. Mirrors FileWriter.RecordEvents's fan-in shape.
func (s *PostgresSink) RecordEvents(ctx context.Context, b *bus.Bus, auditID string) error {
	merged := make(chan bus.Event, len(EventLogTopics)*8)
	subs := make([]*bus.Subscription, 0, len(EventLogTopics))
	for _, topic := range EventLogTopics {
		sub := b.Subscribe(auditID, topic)
		subs = append(subs, sub)
		go forwardEvents(ctx, sub, merged)
	}
	defer func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-merged:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(evt.Payload)
			if err != nil {
				continue
			}
			if _, err := s.pool.Exec(ctx,
				`INSERT INTO bus_events (audit_id, topic, seq, payload, occurred_at) VALUES ($1, $2, $3, $4, $5)`,
				evt.AuditID, evt.Topic, evt.Seq, payload, evt.At,
			); err != nil {
				return fmt.Errorf("store: insert event: %w", err)
			}
		}
	}
}

// Replay returns every persisted event for auditID in insertion order
// (bus.Bus.Publish assigns seq per-topic, not globally, so the row's own
// insertion order — not seq — is what reconstructs cross-topic
// chronology), for restoring a bus's replay buffer after a restart.
func (s *PostgresSink) Replay(ctx context.Context, auditID string) ([]bus.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT topic, seq, payload, occurred_at FROM bus_events WHERE audit_id = $1 ORDER BY id ASC`,
		auditID)
	if err != nil {
		return nil, fmt.Errorf("store: query events: %w", err)
	}
	defer rows.Close()

	var out []bus.Event
	for rows.Next() {
		var (
			topic   string
			seq     int64
			payload []byte
			at      time.Time
		)
		if err := rows.Scan(&topic, &seq, &payload, &at); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		var decoded any
		_ = json.Unmarshal(payload, &decoded)
		out = append(out, bus.Event{AuditID: auditID, Topic: topic, Seq: seq, Payload: decoded, At: at})
	}
	return out, rows.Err()
}
