package status

import (
	"context"
	"fmt"

	"github.com/philtems/colorwarm/pkg/postgres"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS colorwarm_history (
	id          BIGSERIAL PRIMARY KEY,
	run_id      UUID NOT NULL,
	host        TEXT NOT NULL,
	applied_at  TIMESTAMPTZ NOT NULL,
	trigger     TEXT NOT NULL,
	phase       TEXT NOT NULL,
	mode        TEXT NOT NULL,
	kelvin      INTEGER NOT NULL,
	brightness  DOUBLE PRECISION NOT NULL,
	outputs     INTEGER NOT NULL,
	failed      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS colorwarm_history_host_time ON colorwarm_history (host, applied_at DESC);`

const insertHistory = `
INSERT INTO colorwarm_history (run_id, host, applied_at, trigger, phase, mode, kelvin, brightness, outputs, failed)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// PostgresSink appends every applied change to the colorwarm_history table
type PostgresSink struct {
	client postgres.Client
}

// NewPostgresSink creates the history table if needed. The client must be
// connected.
func NewPostgresSink(ctx context.Context, client postgres.Client) (*PostgresSink, error) {
	if _, err := client.Exec(ctx, historySchema); err != nil {
		return nil, fmt.Errorf("failed to create history table: %w", err)
	}
	return &PostgresSink{client: client}, nil
}

// Name implements Sink
func (p *PostgresSink) Name() string { return "postgres" }

// Publish implements Sink. Ticks that wrote nothing are not recorded.
func (p *PostgresSink) Publish(ctx context.Context, s Snapshot) error {
	if !s.Changed() {
		return nil
	}
	_, err := p.client.Exec(ctx, insertHistory,
		s.RunID, s.Host, s.Time, s.Trigger, s.Phase, s.Mode,
		s.Kelvin, s.Brightness, len(s.Outputs), s.Failed())
	if err != nil {
		return fmt.Errorf("failed to insert history: %w", err)
	}
	return nil
}

// Close implements Sink
func (p *PostgresSink) Close() error {
	return p.client.Disconnect()
}
