package emg

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolts(t *testing.T) {
	c := NewConditioner(DefaultParams())

	tests := []struct {
		name string
		raw  uint16
		want float32
	}{
		{name: "zero", raw: 0, want: -1.65},
		{name: "full scale", raw: 4095, want: 1.65},
		{name: "midpoint", raw: 2048, want: 0.0004},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.Volts(tt.raw), 0.001)
		})
	}
}

func TestHighPass_Recurrence(t *testing.T) {
	f := NewHighPass(0.9747)

	out := f.Filter(1.0)
	assert.InDelta(t, 0.9747, out, 1e-6)

	// Constant input: out = a*prevOut
	out2 := f.Filter(1.0)
	assert.InDelta(t, 0.9747*0.9747, out2, 1e-6)
}

func TestLowPass_Weights(t *testing.T) {
	f := NewLowPass(0.7)

	assert.InDelta(t, 0.3, f.Filter(1.0), 1e-6)
	assert.InDelta(t, 0.7*0.3+0.3, f.Filter(1.0), 1e-6)
}

func TestWindow_ExactSizeAndWrap(t *testing.T) {
	w := NewWindow(200)
	require.Equal(t, 200, w.Len())

	for range 200 {
		w.Push(1)
	}
	assert.InDelta(t, 1.0, w.RMS(), 1e-6)

	// One zero overwrites the oldest slot only.
	w.Push(0)
	assert.InDelta(t, math32.Sqrt(199.0/200.0), w.RMS(), 1e-6)

	// 199 more zeros leave nothing from the first pass.
	for range 199 {
		w.Push(0)
	}
	assert.Equal(t, float32(0), w.RMS())
}

func TestConditioner_StartupTransient(t *testing.T) {
	c := NewConditioner(DefaultParams())

	env := c.Condition(4095)
	// First filtered value spread over 200 zeroed slots.
	first := c.Last()
	assert.InDelta(t, math32.Abs(first)/math32.Sqrt(200), env, 1e-6)
	assert.Less(t, env, math32.Abs(first))
}

func TestConditioner_FiniteAndNonNegative(t *testing.T) {
	c := NewConditioner(DefaultParams())

	for raw := 0; raw <= 4095; raw++ {
		env := c.Condition(uint16(raw))
		require.False(t, math32.IsNaN(c.Last()), "raw=%d", raw)
		require.False(t, math32.IsInf(c.Last(), 0), "raw=%d", raw)
		require.GreaterOrEqual(t, env, float32(0), "raw=%d", raw)
	}

	// Worst-case swing: rail to rail every sample.
	for i := range 5000 {
		raw := uint16(0)
		if i%2 == 0 {
			raw = 4095
		}
		env := c.Condition(raw)
		require.False(t, math32.IsNaN(env))
		require.False(t, math32.IsInf(env, 0))
		require.GreaterOrEqual(t, env, float32(0))
	}
}

func TestConditioner_ConstantInputConverges(t *testing.T) {
	for _, raw := range []uint16{0, 1000, 2048, 4095} {
		c := NewConditioner(DefaultParams())
		var env float32
		for range 2000 {
			env = c.Condition(raw)
		}
		// The high-pass removes DC, so the steady state envelope is zero.
		assert.InDelta(t, 0, env, 1e-4, "raw=%d", raw)
	}
}

func TestConditioner_AlternatingInputSteadyState(t *testing.T) {
	c := NewConditioner(DefaultParams())

	var env float32
	for i := range 3000 {
		raw := uint16(0)
		if i%2 == 0 {
			raw = 4095
		}
		env = c.Condition(raw)
	}

	// +/-1.65 V at Nyquist: high-pass gain 2a/(1+a), low-pass gain (1-b)/(1+b).
	a, b := float32(0.9747), float32(0.7)
	want := 1.65 * (2 * a / (1 + a)) * ((1 - b) / (1 + b))
	assert.InDelta(t, want, env, 0.005)
}
