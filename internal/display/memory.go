package display

import (
	"context"
	"fmt"
	"sync"

	"github.com/philtems/colorwarm/internal/gamma"
)

// Memory is an in-process controller. It backs the "memory" driver for dry
// runs and stands in for a display in tests.
type Memory struct {
	mu       sync.Mutex
	outputs  []Output
	ramps    map[string]gamma.Ramp
	writes   map[string]int
	failures map[string]error
	listErr  error
	closed   bool
}

// DefaultMemoryOutputs returns two outputs with common ramp sizes
func DefaultMemoryOutputs() []Output {
	return []Output{
		{ID: "0:0", Name: "MEM-1", Screen: 0, Index: 0, CRTC: 0x3f, RampSize: 256},
		{ID: "0:1", Name: "MEM-2", Screen: 0, Index: 1, CRTC: 0x40, RampSize: 1024},
	}
}

// NewMemory creates a controller whose outputs all start at identity
func NewMemory(outputs ...Output) *Memory {
	m := &Memory{
		outputs:  outputs,
		ramps:    make(map[string]gamma.Ramp),
		writes:   make(map[string]int),
		failures: make(map[string]error),
	}
	for _, o := range outputs {
		if id, err := gamma.Identity(o.RampSize); err == nil {
			m.ramps[o.ID] = id
		}
	}
	return m
}

// ListOutputs implements Controller
func (m *Memory) ListOutputs(_ context.Context) ([]Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]Output(nil), m.outputs...), nil
}

// ReadRamp implements Controller
func (m *Memory) ReadRamp(_ context.Context, out Output) (gamma.Ramp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures[out.ID]; err != nil {
		return gamma.Ramp{}, err
	}
	r, ok := m.ramps[out.ID]
	if !ok {
		return gamma.Ramp{}, fmt.Errorf("%w: no ramp for output %s", gamma.ErrUnsupportedRampSize, out.Name)
	}
	return r.Clone(), nil
}

// WriteRamp implements Controller
func (m *Memory) WriteRamp(_ context.Context, out Output, r gamma.Ramp) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures[out.ID]; err != nil {
		return err
	}
	if r.Size() != out.RampSize || !r.Valid() {
		return fmt.Errorf("%w: ramp of %d entries for %s (expects %d)", gamma.ErrUnsupportedRampSize, r.Size(), out.Name, out.RampSize)
	}
	m.ramps[out.ID] = r.Clone()
	m.writes[out.ID]++
	return nil
}

// Reset implements Controller
func (m *Memory) Reset(ctx context.Context, out Output) error {
	id, err := gamma.Identity(out.RampSize)
	if err != nil {
		return err
	}
	return m.WriteRamp(ctx, out, id)
}

// Close implements Controller
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Fail makes every call on the output return err until cleared with nil
func (m *Memory) Fail(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, id)
		return
	}
	m.failures[id] = err
}

// FailList makes ListOutputs return err until cleared with nil
func (m *Memory) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// Writes returns how many ramps were written to the output
func (m *Memory) Writes(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[id]
}

// Ramp returns the output's current ramp
func (m *Memory) Ramp(id string) gamma.Ramp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ramps[id].Clone()
}

// Closed reports whether Close was called
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
