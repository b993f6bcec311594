package colortemp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philtems/colorwarm/internal/gamma"
)

func ramp(t *testing.T, kelvin int) gamma.Ramp {
	t.Helper()
	r, err := gamma.Build(gamma.Target{Kelvin: kelvin, Brightness: 1}, 256)
	require.NoError(t, err)
	return r
}

func TestWriteGate_Hysteresis(t *testing.T) {
	g := NewWriteGate(64, time.Second, time.Minute)

	assert.Equal(t, "", g.ShouldWrite("a", ramp(t, 5000), false), "first write always goes through")
	g.RecordWrite("a", ramp(t, 5000))

	assert.Equal(t, SkipUnchanged, g.ShouldWrite("a", ramp(t, 5000), false))
	assert.Equal(t, SkipUnchanged, g.ShouldWrite("a", ramp(t, 5001), false))
	assert.Equal(t, "", g.ShouldWrite("a", ramp(t, 5200), false))
	assert.Equal(t, "", g.ShouldWrite("a", ramp(t, 5000), true), "forced writes bypass hysteresis")
	assert.Equal(t, "", g.ShouldWrite("b", ramp(t, 5000), false), "outputs are tracked independently")
}

func TestWriteGate_ZeroHysteresis(t *testing.T) {
	g := NewWriteGate(0, time.Second, time.Minute)
	g.RecordWrite("a", ramp(t, 5000))

	assert.Equal(t, SkipUnchanged, g.ShouldWrite("a", ramp(t, 5000), false))
	assert.Equal(t, "", g.ShouldWrite("a", ramp(t, 5010), false))
}

func TestWriteGate_Backoff(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	g := NewWriteGate(64, 10*time.Second, 60*time.Second)
	g.now = func() time.Time { return now }

	backoffs := []time.Duration{}
	for i := 0; i < 5; i++ {
		backoffs = append(backoffs, g.RecordFailure("a"))
	}
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second, 40 * time.Second, 60 * time.Second, 60 * time.Second}, backoffs)
	assert.Equal(t, 5, g.Failures("a"))

	assert.Equal(t, SkipBackoff, g.ShouldWrite("a", ramp(t, 5000), false))
	assert.Equal(t, "", g.ShouldWrite("a", ramp(t, 5000), true))

	now = now.Add(61 * time.Second)
	assert.Equal(t, "", g.ShouldWrite("a", ramp(t, 5000), false))

	g.RecordWrite("a", ramp(t, 5000))
	assert.Equal(t, 0, g.Failures("a"))
}

func TestWriteGate_FailureForgetsLastRamp(t *testing.T) {
	g := NewWriteGate(64, time.Millisecond, time.Millisecond)
	g.RecordWrite("a", ramp(t, 5000))
	g.RecordFailure("a")

	_, ok := g.Last("a")
	assert.False(t, ok)
}

func TestWriteGate_Clear(t *testing.T) {
	g := NewWriteGate(64, time.Minute, time.Minute)
	g.RecordWrite("a", ramp(t, 5000))
	g.RecordFailure("b")

	g.Clear()

	assert.Equal(t, "", g.ShouldWrite("a", ramp(t, 5000), false))
	assert.Equal(t, "", g.ShouldWrite("b", ramp(t, 5000), false))
	assert.Equal(t, 0, g.Failures("b"))
}
