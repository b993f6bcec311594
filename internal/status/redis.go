package status

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/philtems/colorwarm/pkg/redis"
)

// HistoryLength is the number of applied changes kept per host
const HistoryLength = 100

// RedisSink keeps the latest status in a hash that expires when the agent
// stops reporting, plus a capped list of applied changes
type RedisSink struct {
	client     redis.Client
	statusKey  string
	historyKey string
	ttl        time.Duration
}

// NewRedisSink creates a Redis sink. The status hash expires after ttl.
func NewRedisSink(client redis.Client, host string, ttl time.Duration) *RedisSink {
	return &RedisSink{
		client:     client,
		statusKey:  redis.StatusKey(host),
		historyKey: redis.HistoryKey(host),
		ttl:        ttl,
	}
}

// Name implements Sink
func (r *RedisSink) Name() string { return "redis" }

// Publish implements Sink
func (r *RedisSink) Publish(ctx context.Context, s Snapshot) error {
	fields := map[string]interface{}{
		"run_id":     s.RunID,
		"time":       s.Time.Format(time.RFC3339),
		"phase":      s.Phase,
		"mode":       s.Mode,
		"kelvin":     strconv.Itoa(s.Kelvin),
		"brightness": strconv.FormatFloat(s.Brightness, 'f', 3, 64),
		"sunrise":    s.Sunrise.Format(time.RFC3339),
		"sunset":     s.Sunset.Format(time.RFC3339),
		"outputs":    strconv.Itoa(len(s.Outputs)),
		"failed":     strconv.Itoa(s.Failed()),
	}
	if err := r.client.HSetWithTTL(ctx, r.statusKey, fields, r.ttl); err != nil {
		return err
	}

	if !s.Changed() {
		return nil
	}
	entry, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	return r.client.PushCapped(ctx, r.historyKey, entry, HistoryLength)
}

// Close implements Sink
func (r *RedisSink) Close() error {
	return r.client.Close()
}
