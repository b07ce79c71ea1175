package device

import (
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gripmate/pkg/config"
)

func TestMock_GraspCycle(t *testing.T) {
	m := NewMock(config.Default(), 42)
	require.NoError(t, m.Connect())
	defer m.Close()

	var (
		state   atomic.Int32
		gripped atomic.Bool
		mu      sync.Mutex
		logs    []string
	)
	go func() {
		for f := range m.Frames() {
			state.Store(int32(f.State))
			if f.State == 2 && f.ForceSmoothed >= 200 {
				gripped.Store(true)
			}
		}
	}()
	go func() {
		for line := range m.Logs() {
			mu.Lock()
			logs = append(logs, line)
			mu.Unlock()
		}
	}()

	m.Simulator().Hold(true)
	require.Eventually(t, gripped.Load, 5*time.Second, 10*time.Millisecond)

	m.Simulator().Hold(false)
	require.Eventually(t, func() bool { return state.Load() == 0 }, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return slices.Contains(logs, ">> OPENING -> IDLE")
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, logs, ">> IDLE -> CLOSING")
	assert.Contains(t, logs, "Ready! Flex to close, relax to open.")
}

func TestMock_SendAndStatus(t *testing.T) {
	m := NewMock(config.Default(), 1)
	assert.ErrorIs(t, m.Send('t'), ErrNotConnected)

	require.NoError(t, m.Connect())
	defer m.Close()
	assert.Error(t, m.Connect())

	m.Simulator().Hold(false)
	require.NoError(t, m.Send('t'))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case line := <-m.Logs():
			if len(line) > 4 && line[:4] == "RMS:" {
				assert.Contains(t, line, "State:0")
				return
			}
		case <-deadline:
			t.Fatal("no status line")
		}
	}
}
