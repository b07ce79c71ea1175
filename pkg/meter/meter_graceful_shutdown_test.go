package meter

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/itohio/gripmate/pkg/grip"
	"github.com/itohio/gripmate/pkg/sample"
	"github.com/stretchr/testify/assert"
)

// TestMeter_GracefulShutdown_NoCallbacksAfterClose tests that meter stops sending
// callbacks after the input channel is closed.
func TestMeter_GracefulShutdown_NoCallbacksAfterClose(t *testing.T) {
	m := New(10*time.Second, testContact)

	var callbackCount atomic.Int32
	m.OnUpdate(func(samples []sample.Sample, episodes []Episode) {
		callbackCount.Add(1)
	})

	input := make(chan sample.Sample, 10)
	done := make(chan struct{})
	go func() {
		m.ProcessSamples(input)
		close(done)
	}()

	now := time.Now()
	for i := 0; i < 3; i++ {
		input <- at(now, i*1000, grip.KindIdle, 0, 0)
	}
	close(input)
	<-done

	assert.Equal(t, int32(3), callbackCount.Load())

	// Samples processed after shutdown are stored but not broadcast.
	m.processSample(at(now, 3000, grip.KindIdle, 0, 0))
	assert.Equal(t, int32(3), callbackCount.Load(), "No callbacks should be sent after channel closes")
	assert.Len(t, m.Samples(), 4)
}

// TestMeter_ResetShutdown tests that ResetShutdown allows callbacks again.
func TestMeter_ResetShutdown(t *testing.T) {
	m := New(10*time.Second, testContact)

	var callbackCount atomic.Int32
	m.OnUpdate(func(samples []sample.Sample, episodes []Episode) {
		callbackCount.Add(1)
	})

	input := make(chan sample.Sample)
	close(input)
	m.ProcessSamples(input)

	m.processSample(at(time.Now(), 0, grip.KindIdle, 0, 0))
	assert.Equal(t, int32(0), callbackCount.Load())

	m.ResetShutdown()

	input = make(chan sample.Sample, 1)
	input <- at(time.Now(), 100, grip.KindIdle, 0, 0)
	close(input)
	m.ProcessSamples(input)

	assert.Equal(t, int32(1), callbackCount.Load())
}
