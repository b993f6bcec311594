package status

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philtems/colorwarm/pkg/mqtt"
	"github.com/philtems/colorwarm/pkg/postgres"
)

func snapshot(written bool) Snapshot {
	return Snapshot{
		RunID:      "6f1c9e5e-6a43-4d53-9a52-3f0e3c8f2a10",
		Host:       "desk",
		Time:       time.Date(2024, time.December, 21, 8, 0, 0, 0, time.UTC),
		Trigger:    "tick",
		Phase:      "morning",
		Mode:       "auto",
		Kelvin:     4674,
		Brightness: 1,
		Outputs: []OutputResult{
			{ID: "0:0", Name: "eDP-1", Written: written},
			{ID: "0:1", Name: "HDMI-1", Skipped: "unchanged"},
		},
	}
}

// Mock MQTT client that records publications
type mockMQTT struct {
	mu           sync.Mutex
	connected    bool
	published    map[string][]byte
	retained     map[string]bool
	disconnected bool
}

func newMockMQTT() *mockMQTT {
	return &mockMQTT{connected: true, published: map[string][]byte{}, retained: map[string]bool{}}
}

func (m *mockMQTT) Connect(ctx context.Context) error { return nil }
func (m *mockMQTT) Disconnect()                       { m.disconnected = true }
func (m *mockMQTT) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	return nil
}
func (m *mockMQTT) Unsubscribe(topic string) error { return nil }
func (m *mockMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[topic] = payload
	m.retained[topic] = retained
	return nil
}
func (m *mockMQTT) IsConnected() bool { return m.connected }

// Mock Redis client backed by maps
type mockRedis struct {
	hashes map[string]map[string]interface{}
	ttls   map[string]time.Duration
	lists  map[string][]interface{}
	err    error
}

func newMockRedis() *mockRedis {
	return &mockRedis{
		hashes: map[string]map[string]interface{}{},
		ttls:   map[string]time.Duration{},
		lists:  map[string][]interface{}{},
	}
}

func (r *mockRedis) HSetWithTTL(ctx context.Context, key string, fields map[string]interface{}, ttl time.Duration) error {
	if r.err != nil {
		return r.err
	}
	r.hashes[key] = fields
	r.ttls[key] = ttl
	return nil
}
func (r *mockRedis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range r.hashes[key] {
		out[k] = fmt.Sprint(v)
	}
	return out, nil
}
func (r *mockRedis) PushCapped(ctx context.Context, key string, value interface{}, max int64) error {
	r.lists[key] = append([]interface{}{value}, r.lists[key]...)
	if int64(len(r.lists[key])) > max {
		r.lists[key] = r.lists[key][:max]
	}
	return nil
}
func (r *mockRedis) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	var out []string
	for i, v := range r.lists[key] {
		if int64(i) < start || int64(i) > stop {
			continue
		}
		if b, ok := v.([]byte); ok {
			out = append(out, string(b))
		} else {
			out = append(out, fmt.Sprint(v))
		}
	}
	return out, nil
}
func (r *mockRedis) Ping(ctx context.Context) error { return nil }
func (r *mockRedis) Close() error                   { return nil }

// Mock Postgres client that records executed statements
type mockPostgres struct {
	execs []string
	args  [][]interface{}
}

func (p *mockPostgres) Connect(ctx context.Context) error { return nil }
func (p *mockPostgres) Disconnect() error                 { return nil }
func (p *mockPostgres) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	p.execs = append(p.execs, query)
	p.args = append(p.args, args)
	return driver.RowsAffected(1), nil
}
func (p *mockPostgres) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("not implemented")
}
func (p *mockPostgres) HealthCheck(ctx context.Context) (*postgres.HealthStatus, error) {
	return &postgres.HealthStatus{Connected: true}, nil
}

func TestSnapshot_Changed(t *testing.T) {
	assert.True(t, snapshot(true).Changed())
	assert.False(t, snapshot(false).Changed())

	s := snapshot(false)
	s.Outputs[1].Error = "gone"
	assert.Equal(t, 1, s.Failed())
}

func TestMQTTSink_PublishesRetainedJSON(t *testing.T) {
	client := newMockMQTT()
	sink := NewMQTTSink(client, "desk")

	require.NoError(t, sink.Publish(context.Background(), snapshot(true)))

	payload := client.published["colorwarm/desk/status"]
	require.NotNil(t, payload)
	assert.True(t, client.retained["colorwarm/desk/status"])

	var got Snapshot
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, 4674, got.Kelvin)
	assert.Equal(t, "morning", got.Phase)

	require.NoError(t, sink.Close())
	assert.True(t, client.disconnected)
}

func TestMQTTSink_Disconnected(t *testing.T) {
	client := newMockMQTT()
	client.connected = false

	err := NewMQTTSink(client, "desk").Publish(context.Background(), snapshot(true))

	assert.Error(t, err)
	assert.Empty(t, client.published)
}

func TestRedisSink(t *testing.T) {
	client := newMockRedis()
	sink := NewRedisSink(client, "desk", 90*time.Second)
	ctx := context.Background()

	require.NoError(t, sink.Publish(ctx, snapshot(false)))
	assert.Equal(t, "4674", client.hashes["colorwarm:status:desk"]["kelvin"])
	assert.Equal(t, 90*time.Second, client.ttls["colorwarm:status:desk"])
	assert.Empty(t, client.lists["colorwarm:history:desk"], "unchanged ticks are not recorded")

	require.NoError(t, sink.Publish(ctx, snapshot(true)))
	assert.Len(t, client.lists["colorwarm:history:desk"], 1)
}

func TestRedisSink_HistoryIsCapped(t *testing.T) {
	client := newMockRedis()
	sink := NewRedisSink(client, "desk", time.Minute)

	for i := 0; i < HistoryLength+20; i++ {
		require.NoError(t, sink.Publish(context.Background(), snapshot(true)))
	}

	assert.Len(t, client.lists["colorwarm:history:desk"], HistoryLength)
}

func TestPostgresSink(t *testing.T) {
	client := &mockPostgres{}
	ctx := context.Background()

	sink, err := NewPostgresSink(ctx, client)
	require.NoError(t, err)
	require.Len(t, client.execs, 1)
	assert.Contains(t, client.execs[0], "CREATE TABLE IF NOT EXISTS colorwarm_history")

	require.NoError(t, sink.Publish(ctx, snapshot(false)))
	assert.Len(t, client.execs, 1, "unchanged ticks are not recorded")

	require.NoError(t, sink.Publish(ctx, snapshot(true)))
	require.Len(t, client.execs, 2)
	assert.Contains(t, client.execs[1], "INSERT INTO colorwarm_history")
	assert.Equal(t, "desk", client.args[1][1])
	assert.Equal(t, 4674, client.args[1][6])
}

type failingSink struct{ closed bool }

func (f *failingSink) Name() string                                  { return "failing" }
func (f *failingSink) Publish(ctx context.Context, s Snapshot) error { return errors.New("broken") }
func (f *failingSink) Close() error                                  { f.closed = true; return errors.New("close failed") }

func TestFanout_IsolatesSinkErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	client := newMockMQTT()
	failing := &failingSink{}

	fan := NewFanout(logger, failing, nil, NewMQTTSink(client, "desk"))

	assert.NoError(t, fan.Publish(context.Background(), snapshot(true)))
	assert.NotNil(t, client.published["colorwarm/desk/status"], "later sinks still receive the snapshot")
	assert.True(t, strings.Contains(buf.String(), "sink=failing"))

	err := fan.Close()
	assert.Error(t, err)
	assert.True(t, failing.closed)
	assert.True(t, client.disconnected)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	require.NoError(t, NewLogSink(logger, false).Publish(context.Background(), snapshot(true)))
	assert.Empty(t, buf.String(), "plain ticks log at debug")

	require.NoError(t, NewLogSink(logger, true).Publish(context.Background(), snapshot(true)))
	assert.Contains(t, buf.String(), "kelvin=4674")

	buf.Reset()
	s := snapshot(false)
	s.Outputs[0].Error = "display unavailable"
	require.NoError(t, NewLogSink(logger, false).Publish(context.Background(), s))
	assert.Contains(t, buf.String(), "Output failed")
}

func TestRedisHistory(t *testing.T) {
	client := newMockRedis()
	sink := NewRedisSink(client, "desk", time.Minute)
	ctx := context.Background()

	for _, k := range []int{4500, 5000, 5500} {
		s := snapshot(true)
		s.Kelvin = k
		require.NoError(t, sink.Publish(ctx, s))
	}

	entries, err := RedisHistory(ctx, client, "desk", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 5500, entries[0].Kelvin, "newest first")
	assert.Equal(t, 5000, entries[1].Kelvin)
	assert.Equal(t, 2, entries[0].Outputs)

	fields, err := RedisStatus(ctx, client, "desk")
	require.NoError(t, err)
	assert.Equal(t, "5500", fields["kelvin"])
}
