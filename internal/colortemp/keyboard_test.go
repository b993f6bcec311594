package colortemp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Submitter that remembers commands
type recorder struct {
	mu   sync.Mutex
	cmds []Command
	err  error
}

func (r *recorder) Submit(_ context.Context, cmd Command) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
	return Result{}, r.err
}

func (r *recorder) kinds() []CommandKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]CommandKind, 0, len(r.cmds))
	for _, c := range r.cmds {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func TestKeyCommand(t *testing.T) {
	tests := []struct {
		key  byte
		want Command
		quit bool
		ok   bool
	}{
		{key: 't', want: Command{Kind: CmdToggle}, ok: true},
		{key: 'T', want: Command{Kind: CmdToggle}, ok: true},
		{key: 'r', want: Command{Kind: CmdReset}, ok: true},
		{key: 'a', want: Command{Kind: CmdAuto}, ok: true},
		{key: '+', want: Command{Kind: CmdSet, Kelvin: KeyStep, Relative: true}, ok: true},
		{key: '=', want: Command{Kind: CmdSet, Kelvin: KeyStep, Relative: true}, ok: true},
		{key: '-', want: Command{Kind: CmdSet, Kelvin: -KeyStep, Relative: true}, ok: true},
		{key: 0x1b, quit: true},
		{key: 'q', quit: true},
		{key: 'x'},
		{key: '\n'},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			cmd, quit, ok := keyCommand(tt.key)
			assert.Equal(t, tt.quit, quit)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, cmd)
			}
		})
	}
}

func TestReadKeys(t *testing.T) {
	rec := &recorder{}
	quitCalled := false

	err := readKeys(context.Background(), strings.NewReader("tx+-ra q t"), rec, func() { quitCalled = true }, testLogger())

	require.NoError(t, err)
	assert.True(t, quitCalled)
	assert.Equal(t, []CommandKind{CmdToggle, CmdSet, CmdSet, CmdReset, CmdAuto}, rec.kinds())
}

func TestReadKeys_EOFWithoutQuit(t *testing.T) {
	rec := &recorder{err: errors.New("busy")}
	quitCalled := false

	err := readKeys(context.Background(), strings.NewReader("tt"), rec, func() { quitCalled = true }, testLogger())

	require.NoError(t, err)
	assert.False(t, quitCalled)
	assert.Len(t, rec.kinds(), 2, "failed commands do not stop key handling")
}

func TestReadKeys_DrivesAgent(t *testing.T) {
	a, mem, _ := newTestAgent(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()

	require.NoError(t, readKeys(ctx, strings.NewReader("t-"), a, cancel, testLogger()))

	// 6500 toggles to night, then one step warmer
	assert.InDelta(t, 4500-KeyStep, estimate(t, mem, "0:0").Kelvin, 30)

	cancel()
	require.NoError(t, <-done)
}
