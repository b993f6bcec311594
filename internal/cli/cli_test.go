package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philtems/colorwarm/internal/colortemp"
	"github.com/philtems/colorwarm/internal/display"
	"github.com/philtems/colorwarm/internal/gamma"
	"github.com/philtems/colorwarm/internal/solar"
	"github.com/philtems/colorwarm/pkg/config"

	_ "time/tzdata"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func floatPtr(f float64) *float64 { return &f }

func TestAgentExit(t *testing.T) {
	assert.NoError(t, agentExit(nil))
	assert.NoError(t, agentExit(context.Canceled))
	assert.NoError(t, agentExit(fmt.Errorf("startup interrupted: %w", context.Canceled)))

	failed := errors.New("failed to connect to display after 5 attempts")
	assert.ErrorIs(t, agentExit(failed), failed)
	assert.ErrorIs(t, agentExit(context.DeadlineExceeded), context.DeadlineExceeded)
}

func TestParseSetArgs(t *testing.T) {
	req, err := parseSetArgs([]string{"5000"}, false)
	require.NoError(t, err)
	assert.Equal(t, 5000, req.Kelvin)
	assert.Nil(t, req.Brightness)

	req, err = parseSetArgs([]string{"5000", "0.8"}, false)
	require.NoError(t, err)
	assert.Equal(t, 0.8, *req.Brightness)

	req, err = parseSetArgs([]string{"-250", "0"}, true)
	require.NoError(t, err)
	assert.True(t, req.Relative)
	assert.Equal(t, -250, req.Kelvin)

	_, err = parseSetArgs([]string{"-250"}, true)
	assert.Error(t, err, "relative set needs both values")

	_, err = parseSetArgs([]string{"warm"}, false)
	assert.Error(t, err)

	_, err = parseSetArgs([]string{"5000", "bright"}, false)
	assert.Error(t, err)
}

func TestRunDirect(t *testing.T) {
	mem := display.NewMemory(display.DefaultMemoryOutputs()...)
	ctx := context.Background()

	res, err := runDirect(ctx, mem, display.All, colortemp.Request{Action: "set", Kelvin: 5000, Brightness: floatPtr(0.8)})
	require.NoError(t, err)
	assert.Equal(t, gamma.Target{Kelvin: 5000, Brightness: 0.8}, res.Target)

	res, err = runDirect(ctx, mem, display.All, colortemp.Request{Action: "query"})
	require.NoError(t, err)
	require.Len(t, res.Readings, 2)
	assert.InDelta(t, 5000, res.Readings[1].Target.Kelvin, 25)

	res, err = runDirect(ctx, mem, display.All, colortemp.Request{Action: "set", Kelvin: 500, Relative: true})
	require.NoError(t, err)
	assert.InDelta(t, 5500, res.Target.Kelvin, 25)

	res, err = runDirect(ctx, mem, display.All, colortemp.Request{Action: "reset"})
	require.NoError(t, err)
	identity, _ := gamma.Identity(256)
	assert.True(t, mem.Ramp("0:0").Equal(identity))

	res, err = runDirect(ctx, mem, display.All, colortemp.Request{Action: "toggle"})
	require.NoError(t, err)
	assert.Equal(t, gamma.NightKelvin, res.Target.Kelvin)
}

func TestRunDirect_SetZeroIsNeutral(t *testing.T) {
	mem := display.NewMemory(display.DefaultMemoryOutputs()...)

	res, err := runDirect(context.Background(), mem, display.All, colortemp.Request{Action: "set", Kelvin: 0})

	require.NoError(t, err)
	assert.Equal(t, gamma.NeutralKelvin, res.Target.Kelvin)
}

func TestRunDirect_RejectsOutOfRange(t *testing.T) {
	mem := display.NewMemory(display.DefaultMemoryOutputs()...)

	_, err := runDirect(context.Background(), mem, display.All, colortemp.Request{Action: "set", Kelvin: 20000})

	assert.ErrorIs(t, err, colortemp.ErrOverrideOutOfRange)
	assert.Equal(t, 0, mem.Writes("0:0"), "nothing applied")
}

func TestRunDirect_Selection(t *testing.T) {
	mem := display.NewMemory(display.DefaultMemoryOutputs()...)
	ctx := context.Background()

	_, err := runDirect(ctx, mem, display.Filter{Screen: -1, CRTC: 1}, colortemp.Request{Action: "set", Kelvin: 4000})
	require.NoError(t, err)
	assert.Equal(t, 0, mem.Writes("0:0"))
	assert.Equal(t, 1, mem.Writes("0:1"))

	_, err = runDirect(ctx, mem, display.Filter{Screen: 3, CRTC: -1}, colortemp.Request{Action: "reset"})
	assert.ErrorIs(t, err, display.ErrDisplayUnavailable)
}

func testConfig(apiAddr string) *config.Config {
	cfg := config.NewConfig()
	cfg.Driver = "memory"
	cfg.APIAddr = apiAddr
	return cfg
}

func unusedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestDispatch_FallsBackToDisplay(t *testing.T) {
	cfg := testConfig(unusedAddr(t))

	res, forwarded, err := dispatch(context.Background(), cfg, testLogger(), colortemp.Request{Action: "toggle"}, false)

	require.NoError(t, err)
	assert.False(t, forwarded)
	assert.Equal(t, gamma.NightKelvin, res.Target.Kelvin)
}

func TestDispatch_AutoNeedsAgent(t *testing.T) {
	cfg := testConfig(unusedAddr(t))

	_, _, err := dispatch(context.Background(), cfg, testLogger(), colortemp.Request{Action: "auto"}, false)

	assert.ErrorIs(t, err, errAutoNeedsAgent)
}

func TestDispatch_ForwardsToAgent(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"mode":{"mode":"manual","target":{"kelvin":4500,"brightness":1}},"target":{"kelvin":4500,"brightness":1}}`))
	}))
	defer ts.Close()
	cfg := testConfig(strings.TrimPrefix(ts.URL, "http://"))

	res, forwarded, err := dispatch(context.Background(), cfg, testLogger(), colortemp.Request{Action: "toggle"}, false)

	require.NoError(t, err)
	assert.True(t, forwarded)
	assert.Equal(t, "/api/command", gotPath)
	assert.Equal(t, 4500, res.Target.Kelvin)
	assert.Equal(t, colortemp.ModeManual, res.Mode.Mode)

	// --direct skips the agent
	gotPath = ""
	_, forwarded, err = dispatch(context.Background(), cfg, testLogger(), colortemp.Request{Action: "toggle"}, true)
	require.NoError(t, err)
	assert.False(t, forwarded)
	assert.Empty(t, gotPath)
}

func TestDispatch_AgentErrorIsReturned(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"override out of range: temperature 20000K not in [1000, 10000]"}`))
	}))
	defer ts.Close()
	cfg := testConfig(strings.TrimPrefix(ts.URL, "http://"))

	_, forwarded, err := dispatch(context.Background(), cfg, testLogger(), colortemp.Request{Action: "set", Kelvin: 20000}, false)

	require.Error(t, err)
	assert.True(t, forwarded)
	assert.Contains(t, err.Error(), "out of range")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	outputs := display.DefaultMemoryOutputs()

	printResult(&buf, colortemp.Request{Action: "query"}, colortemp.Result{
		Readings: []display.Reading{
			{Output: outputs[0], Target: gamma.Target{Kelvin: 5000, Brightness: 0.8}},
			{Output: outputs[1], Error: "gone", Err: errors.New("gone")},
		},
	}, false)

	assert.Contains(t, buf.String(), "MEM-1 (screen 0, crtc 0): temperature ~ 5000 brightness ~ 0.80")
	assert.Contains(t, buf.String(), "MEM-2 (screen 0, crtc 1): gone")

	buf.Reset()
	printResult(&buf, colortemp.Request{Action: "set"}, colortemp.Result{
		Mode:   colortemp.ModeState{Mode: colortemp.ModeManual},
		Target: gamma.Target{Kelvin: 4000, Brightness: 1},
	}, true)
	assert.Contains(t, buf.String(), "4000K 100% applied")
	assert.Contains(t, buf.String(), "until 'colorwarm auto'")
}

func TestResolvePlace(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Timezone = "Europe/Paris"

	p := resolvePlace(cfg, testLogger())
	assert.Equal(t, "Europe/Paris", p.Zone.String())
	assert.InDelta(t, 48.85, p.Location.Latitude, 0.5)
	assert.Empty(t, p.Fallback)

	lat, lon := 78.2, 15.6
	cfg.Latitude, cfg.Longitude = &lat, &lon
	p = resolvePlace(cfg, testLogger())
	assert.Equal(t, solar.MaxLatitude, p.Location.Latitude, "clamped into the supported band")
	assert.InDelta(t, 15.6, p.Location.Longitude, 1e-9)

	cfg = config.NewConfig()
	cfg.Timezone = "Not/AZone"
	p = resolvePlace(cfg, testLogger())
	assert.Equal(t, time.Local, p.Zone)
	assert.NotEmpty(t, p.Fallback)
}

func TestSampleDay(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Timezone = "Europe/Paris"
	p := resolvePlace(cfg, testLogger())
	calc, err := newCalculator(cfg, p)
	require.NoError(t, err)
	scheduler, err := newScheduler(cfg)
	require.NoError(t, err)

	ev := calc.Compute(p.Location, time.Date(2024, time.December, 21, 12, 0, 0, 0, p.Zone))
	rows := sampleDay(scheduler, ev.Date, time.Hour, ev)

	require.Len(t, rows, 24)
	assert.Equal(t, "night", string(rows[0].Phase))
	assert.Equal(t, gamma.NightKelvin, rows[0].Kelvin)
	assert.Equal(t, gamma.NeutralKelvin, rows[12].Kelvin)
	assert.Equal(t, gamma.NightKelvin, rows[23].Kelvin)
}
