package status

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/philtems/colorwarm/pkg/postgres"
	"github.com/philtems/colorwarm/pkg/redis"
)

// HistoryEntry is one recorded change
type HistoryEntry struct {
	Time       time.Time `json:"time"`
	Trigger    string    `json:"trigger"`
	Phase      string    `json:"phase"`
	Mode       string    `json:"mode"`
	Kelvin     int       `json:"kelvin"`
	Brightness float64   `json:"brightness"`
	Outputs    int       `json:"outputs"`
	Failed     int       `json:"failed"`
}

func entryFromSnapshot(s Snapshot) HistoryEntry {
	return HistoryEntry{
		Time:       s.Time,
		Trigger:    s.Trigger,
		Phase:      s.Phase,
		Mode:       s.Mode,
		Kelvin:     s.Kelvin,
		Brightness: s.Brightness,
		Outputs:    len(s.Outputs),
		Failed:     s.Failed(),
	}
}

// RedisHistory returns up to limit recent changes of host, newest first
func RedisHistory(ctx context.Context, client redis.Client, host string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > HistoryLength {
		limit = HistoryLength
	}
	raw, err := client.LRange(ctx, redis.HistoryKey(host), 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var s Snapshot
		if err := json.Unmarshal([]byte(item), &s); err != nil {
			continue
		}
		entries = append(entries, entryFromSnapshot(s))
	}
	return entries, nil
}

// RedisStatus returns the status hash of host; empty when the agent stopped
// reporting long enough for it to expire
func RedisStatus(ctx context.Context, client redis.Client, host string) (map[string]string, error) {
	fields, err := client.HGetAll(ctx, redis.StatusKey(host))
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}
	return fields, nil
}

const selectHistory = `
SELECT applied_at, trigger, phase, mode, kelvin, brightness, outputs, failed
FROM colorwarm_history
WHERE host = $1
ORDER BY applied_at DESC
LIMIT $2`

// PostgresHistory returns up to limit recent changes of host, newest first
func PostgresHistory(ctx context.Context, client postgres.Client, host string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = HistoryLength
	}
	rows, err := client.Query(ctx, selectHistory, host, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Time, &e.Trigger, &e.Phase, &e.Mode, &e.Kelvin, &e.Brightness, &e.Outputs, &e.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
