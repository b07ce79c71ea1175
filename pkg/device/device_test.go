package device

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gripmate/pkg/telemetry"
)

const consoleCapture = `=====================================
  ADAPTIVE GRIP
>rms:0.0123
>threshold:0.0550
>muscle:0.0
>fsrRaw:12.0
>fsrSmooth:10.0
>angle:0.0
>state:0.0
>> IDLE -> CLOSING
>rms:0.2871
>threshold:0.0550
>muscle:1.0
>fsrRaw:15.0
>fsrSmooth:11.0
>angle:bad
>state:1.0
`

func TestSerial_ReadLines(t *testing.T) {
	d := New("test", 0, 0)
	d.readLines(strings.NewReader(consoleCapture))

	require.Len(t, d.frames, 2)
	f0 := <-d.frames
	f1 := <-d.frames

	assert.False(t, f0.Timestamp.IsZero())
	assert.InDelta(t, 0.0123, f0.Envelope, 1e-6)
	assert.Equal(t, 12, f0.ForceRaw)
	assert.Equal(t, 0, f0.State)

	assert.True(t, f1.Active)
	assert.Equal(t, 1, f1.State)
	assert.Equal(t, 0, f1.Angle) // malformed value keeps the previous one

	var logs []string
	for len(d.logs) > 0 {
		logs = append(logs, <-d.logs)
	}
	assert.Equal(t, []string{
		"=====================================",
		"ADAPTIVE GRIP",
		">> IDLE -> CLOSING",
	}, logs)
}

func TestSerial_SendNotConnected(t *testing.T) {
	d := New("test", 0, 0)
	assert.ErrorIs(t, d.Send('o'), ErrNotConnected)
	assert.False(t, d.IsConnected())
	assert.NoError(t, d.Close())
}

func TestSerial_DropsWhenFull(t *testing.T) {
	d := New("test", 0, 1)
	d.pushFrame(telemetry.Frame{Angle: 1})
	d.pushFrame(telemetry.Frame{Angle: 2})
	require.Len(t, d.frames, 1)
	assert.Equal(t, 1, (<-d.frames).Angle)
}

func TestLineWriter(t *testing.T) {
	var lines []string
	w := &lineWriter{push: func(s string) { lines = append(lines, s) }}

	w.Write([]byte(">> SLIP"))
	assert.Empty(t, lines)
	w.Write([]byte(" - tightening\n\nThreshold -> 0.0600\r\npartial"))

	assert.Equal(t, []string{">> SLIP - tightening", "Threshold -> 0.0600"}, lines)
	assert.Equal(t, "partial", string(w.buf))
}
