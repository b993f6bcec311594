package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philtems/colorwarm/internal/colortemp"
	"github.com/philtems/colorwarm/internal/display"
	"github.com/philtems/colorwarm/internal/gamma"
	"github.com/philtems/colorwarm/internal/status"
	"github.com/philtems/colorwarm/pkg/health"
)

type fakeAgent struct {
	mu      sync.Mutex
	cmds    []colortemp.Command
	result  colortemp.Result
	err     error
	snap    status.Snapshot
	outputs []display.Output
}

func (f *fakeAgent) Submit(_ context.Context, cmd colortemp.Command) (colortemp.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	return f.result, f.err
}

func (f *fakeAgent) Status() status.Snapshot   { return f.snap }
func (f *fakeAgent) Outputs() []display.Output { return f.outputs }

func (f *fakeAgent) last() colortemp.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cmds[len(f.cmds)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, agent *fakeAgent, displayErr error) *httptest.Server {
	t.Helper()
	checker := health.NewChecker(func() error { return displayErr }, nil, nil, testLogger())
	srv := NewServer(agent, checker, testLogger())
	srv.EnableMetrics()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t, &fakeAgent{}, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	detailed, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer detailed.Body.Close()
	assert.Equal(t, http.StatusOK, detailed.StatusCode)
}

func TestServer_HealthReportsDisplayOutage(t *testing.T) {
	ts := newTestServer(t, &fakeAgent{}, display.ErrDisplayUnavailable)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_Status(t *testing.T) {
	agent := &fakeAgent{
		snap:    status.Snapshot{Host: "desk", Phase: "night", Mode: "auto", Kelvin: 4500, Brightness: 1},
		outputs: display.DefaultMemoryOutputs(),
	}
	ts := newTestServer(t, agent, nil)

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap status.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "desk", snap.Host)
	assert.Equal(t, 4500, snap.Kelvin)

	resp2, err := http.Get(ts.URL + "/api/outputs")
	require.NoError(t, err)
	defer resp2.Body.Close()

	var outputs []display.Output
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&outputs))
	assert.Equal(t, display.DefaultMemoryOutputs(), outputs)
}

func TestServer_Set(t *testing.T) {
	agent := &fakeAgent{result: colortemp.Result{Target: gamma.Target{Kelvin: 5000, Brightness: 0.8}}}
	ts := newTestServer(t, agent, nil)

	resp := post(t, ts.URL+"/api/set", `{"kelvin":5000,"brightness":0.8}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	cmd := agent.last()
	assert.Equal(t, colortemp.CmdSet, cmd.Kind)
	assert.Equal(t, 5000, cmd.Kelvin)
	assert.Equal(t, 0.8, cmd.Brightness)

	var res colortemp.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, 5000, res.Target.Kelvin)
}

func TestServer_Actions(t *testing.T) {
	agent := &fakeAgent{}
	ts := newTestServer(t, agent, nil)

	for path, kind := range map[string]colortemp.CommandKind{
		"/api/toggle": colortemp.CmdToggle,
		"/api/reset":  colortemp.CmdReset,
		"/api/auto":   colortemp.CmdAuto,
	} {
		resp := post(t, ts.URL+path, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, kind, agent.last().Kind, path)
	}

	resp, err := http.Get(ts.URL + "/api/current")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, colortemp.CmdQuery, agent.last().Kind)
}

func TestServer_ErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"out of range", fmt.Errorf("%w: 20000K", colortemp.ErrOverrideOutOfRange), http.StatusBadRequest},
		{"stopped", colortemp.ErrAgentStopped, http.StatusServiceUnavailable},
		{"display gone", fmt.Errorf("output MEM-1: %w", display.ErrDisplayUnavailable), http.StatusServiceUnavailable},
		{"one output failed", errors.New("output MEM-1: bad crtc"), http.StatusMultiStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &fakeAgent{err: tt.err}, nil)
			resp := post(t, ts.URL+"/api/command", `{"action":"set","kelvin":5000}`)
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}

func TestServer_BadRequests(t *testing.T) {
	agent := &fakeAgent{}
	ts := newTestServer(t, agent, nil)

	assert.Equal(t, http.StatusBadRequest, post(t, ts.URL+"/api/set", `{"kelvin":`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, post(t, ts.URL+"/api/command", `{"action":"explode"}`).StatusCode)
	assert.Empty(t, agent.cmds)
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t, &fakeAgent{}, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient(t *testing.T) {
	agent := &fakeAgent{
		result: colortemp.Result{Target: gamma.Target{Kelvin: 4500, Brightness: 1}},
		snap:   status.Snapshot{Host: "desk", Kelvin: 4500},
	}
	ts := newTestServer(t, agent, nil)
	client := NewClient(strings.TrimPrefix(ts.URL, "http://"), testLogger())
	ctx := context.Background()

	require.NoError(t, client.Health(ctx))

	res, err := client.Do(ctx, colortemp.Request{Action: "toggle"})
	require.NoError(t, err)
	assert.Equal(t, 4500, res.Target.Kelvin)
	assert.Equal(t, colortemp.CmdToggle, agent.last().Kind)

	snap, err := client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "desk", snap.Host)
}

func TestClient_Errors(t *testing.T) {
	agent := &fakeAgent{err: fmt.Errorf("%w: 20000K", colortemp.ErrOverrideOutOfRange)}
	ts := newTestServer(t, agent, nil)
	client := NewClient(strings.TrimPrefix(ts.URL, "http://"), testLogger())

	_, err := client.Do(context.Background(), colortemp.Request{Action: "set", Kelvin: 20000})

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "out of range")
}

func TestClient_PartialFailureKeepsResult(t *testing.T) {
	agent := &fakeAgent{
		result: colortemp.Result{Outputs: []status.OutputResult{{ID: "0:0", Error: "bad crtc"}, {ID: "0:1", Written: true}}},
		err:    errors.New("output MEM-1: bad crtc"),
	}
	ts := newTestServer(t, agent, nil)
	client := NewClient(strings.TrimPrefix(ts.URL, "http://"), testLogger())

	res, err := client.Do(context.Background(), colortemp.Request{Action: "reset"})

	require.Error(t, err)
	require.Len(t, res.Outputs, 2)
	assert.True(t, res.Outputs[1].Written)
}

func TestClient_NoAgent(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	err = NewClient(addr, testLogger()).Health(context.Background())

	assert.ErrorIs(t, err, ErrNoAgent)
}

func TestServer_StartRejectsBusyAddress(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := NewServer(&fakeAgent{}, nil, testLogger())
	assert.Error(t, srv.Start(ln.Addr().String()))
	assert.NoError(t, srv.Shutdown(context.Background()))
}
