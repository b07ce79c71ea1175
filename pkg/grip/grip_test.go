package grip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gripmate/pkg/force"
)

type fakeForce struct {
	smoothed int
	reads    int
}

func (f *fakeForce) Read() force.Reading {
	f.reads++
	return force.Reading{Raw: f.smoothed, Smoothed: f.smoothed}
}

const ms = time.Millisecond

// run steps the machine once per millisecond in [from, to) and collects events.
func run(m *Machine, from, to time.Duration, active bool, fs force.Source) []Event {
	var events []Event
	for now := from; now < to; now += ms {
		out := m.Step(Inputs{Active: active, Now: now}, fs)
		events = append(events, out.Events...)
	}
	return events
}

func kinds(events []Event) []EventKind {
	var k []EventKind
	for _, e := range events {
		k = append(k, e.Kind)
	}
	return k
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "IDLE", KindIdle.String())
	assert.Equal(t, "CLOSING", KindClosing.String())
	assert.Equal(t, "HOLDING", KindHolding.String())
	assert.Equal(t, "OPENING", KindOpening.String())
	assert.Equal(t, 2, int(KindHolding))
}

func TestIdle_WaitsForActivation(t *testing.T) {
	m := NewMachine(DefaultParams())
	fs := &fakeForce{}

	assert.Empty(t, run(m, 0, time.Second, false, fs))
	assert.Equal(t, KindIdle, m.Kind())
	assert.Zero(t, fs.reads)

	out := m.Step(Inputs{Active: true, Now: time.Second}, fs)
	assert.Equal(t, []EventKind{EventStartClose}, kinds(out.Events))
	assert.Equal(t, Closing{StepStart: time.Second}, m.State())
	assert.False(t, out.Write)
}

func TestClosing_OneDegreePerStep(t *testing.T) {
	m := NewMachine(DefaultParams())
	fs := &fakeForce{}
	m.Step(Inputs{Active: true, Now: 0}, fs)

	run(m, ms, 12*ms, true, fs)
	assert.Equal(t, 0, m.Angle())
	assert.Zero(t, fs.reads)

	out := m.Step(Inputs{Active: true, Now: 12 * ms}, fs)
	assert.True(t, out.Write)
	assert.Equal(t, 1, out.Angle)
	assert.Equal(t, 1, fs.reads)

	run(m, 13*ms, 120*ms+ms, true, fs)
	assert.Equal(t, 10, m.Angle())
	assert.Equal(t, 10, fs.reads)
}

func TestClosing_ContactCapturesHoldAngle(t *testing.T) {
	m := NewMachine(DefaultParams())
	fs := &fakeForce{}
	m.Step(Inputs{Active: true, Now: 0}, fs)

	run(m, ms, 40*12*ms+ms, true, fs)
	require.Equal(t, 40, m.Angle())

	fs.smoothed = 250
	events := run(m, 40*12*ms+ms, 41*12*ms+ms, true, fs)
	require.Len(t, events, 1)
	assert.Equal(t, Event{Kind: EventContact, Angle: 40, Force: 250}, events[0])
	assert.Equal(t, ">> CLOSING -> HOLDING at 40 deg | FSR:250", events[0].String())

	assert.Equal(t, Holding{HoldAngle: 40, ObjectHeld: true, CheckStart: 41 * 12 * ms}, m.State())
	assert.Equal(t, 40, m.Angle())
	assert.True(t, m.ObjectHeld())
}

func TestClosing_FullyClosedWithoutContact(t *testing.T) {
	p := DefaultParams()
	m := NewMachine(p)
	fs := &fakeForce{smoothed: 199}
	m.Step(Inputs{Active: true, Now: 0}, fs)

	run(m, ms, 130*12*ms+ms, true, fs)
	require.Equal(t, p.ClosedAngle, m.Angle())
	assert.Equal(t, KindClosing, m.Kind())

	events := run(m, 130*12*ms+ms, 131*12*ms+ms, true, fs)
	assert.Equal(t, []EventKind{EventFullyClosed}, kinds(events))
	assert.Equal(t, Holding{HoldAngle: 130, ObjectHeld: false, CheckStart: 131 * 12 * ms}, m.State())
	assert.False(t, m.ObjectHeld())
}

func TestClosing_ReleaseOpens(t *testing.T) {
	m := NewMachine(DefaultParams())
	fs := &fakeForce{}
	m.Step(Inputs{Active: true, Now: 0}, fs)
	run(m, ms, 100*ms, true, fs)

	out := m.Step(Inputs{Active: false, Now: 100 * ms}, fs)
	assert.Equal(t, []EventKind{EventCloseAborted}, kinds(out.Events))
	assert.Equal(t, Opening{StepStart: 100 * ms}, m.State())
}

func TestHolding_SlipTighteningIsBounded(t *testing.T) {
	m := NewMachine(DefaultParams())
	m.state = Holding{HoldAngle: 40, ObjectHeld: true, CheckStart: 0}
	m.angle = 40
	fs := &fakeForce{smoothed: 150}

	// First check at 50ms.
	run(m, ms, 50*ms, true, fs)
	assert.Equal(t, 40, m.Angle())
	assert.Zero(t, fs.reads)

	events := run(m, 50*ms, 2*time.Second, true, fs)
	assert.Equal(t, 50, m.Angle())
	assert.Len(t, events, 10)
	for _, e := range events {
		assert.Equal(t, EventSlip, e.Kind)
	}
	assert.Equal(t, KindHolding, m.Kind())
}

func TestHolding_NoSlipCorrectionWithoutObject(t *testing.T) {
	m := NewMachine(DefaultParams())
	m.state = Holding{HoldAngle: 130, CheckStart: 0}
	m.angle = 130
	fs := &fakeForce{smoothed: 0}

	assert.Empty(t, run(m, ms, time.Second, true, fs))
	assert.Equal(t, 130, m.Angle())
}

func TestHolding_OverPressureBacksOff(t *testing.T) {
	m := NewMachine(DefaultParams())
	m.state = Holding{HoldAngle: 60, ObjectHeld: true, CheckStart: 0}
	m.angle = 60
	fs := &fakeForce{smoothed: 3500}

	for i := 1; i <= 5; i++ {
		check := time.Duration(i) * 50 * ms
		run(m, check-49*ms, check, true, fs)
		assert.Equal(t, 60-(i-1), m.Angle(), "before check %d", i)

		out := m.Step(Inputs{Active: true, Now: check}, fs)
		assert.Equal(t, 60-i, out.Angle)
		assert.Equal(t, []EventKind{EventOverPressure}, kinds(out.Events))
	}
}

func TestHolding_OverPressureWithoutObject(t *testing.T) {
	m := NewMachine(DefaultParams())
	m.state = Holding{HoldAngle: 130, CheckStart: 0}
	m.angle = 130
	fs := &fakeForce{smoothed: 3000}

	out := m.Step(Inputs{Active: true, Now: 50 * ms}, fs)
	assert.Equal(t, 129, out.Angle)
	assert.True(t, out.Write)
}

func TestHolding_OverPressureStopsAtOpen(t *testing.T) {
	m := NewMachine(DefaultParams())
	m.state = Holding{HoldAngle: 0, ObjectHeld: true, CheckStart: 0}
	m.angle = 0
	fs := &fakeForce{smoothed: 4000}

	assert.Empty(t, run(m, ms, time.Second, true, fs))
	assert.Equal(t, 0, m.Angle())
}

func TestHolding_ReleaseOpens(t *testing.T) {
	m := NewMachine(DefaultParams())
	m.state = Holding{HoldAngle: 40, ObjectHeld: true, CheckStart: 0}
	m.angle = 40
	fs := &fakeForce{smoothed: 500}

	out := m.Step(Inputs{Active: false, Now: 10 * ms}, fs)
	assert.Equal(t, []EventKind{EventRelease}, kinds(out.Events))
	assert.Equal(t, Opening{StepStart: 10 * ms}, m.State())
	assert.False(t, m.ObjectHeld())
	assert.Zero(t, fs.reads)
}

func TestOpening_ReachesOpenThenIdle(t *testing.T) {
	m := NewMachine(DefaultParams())
	m.state = Opening{StepStart: 0}
	m.angle = 30
	fs := &fakeForce{}

	run(m, ms, 360*ms, true, fs)
	assert.Equal(t, 1, m.Angle())
	assert.Equal(t, KindOpening, m.Kind())

	// Activation is ignored while opening.
	run(m, 360*ms, 372*ms, true, fs)
	assert.Equal(t, 0, m.Angle())
	assert.Equal(t, KindOpening, m.Kind())

	out := m.Step(Inputs{Active: true, Now: 372 * ms}, fs)
	assert.Equal(t, []EventKind{EventOpened}, kinds(out.Events))
	assert.Equal(t, Idle{}, m.State())
	assert.Zero(t, fs.reads)
}

func TestForceOpen_FromHolding(t *testing.T) {
	m := NewMachine(DefaultParams())
	m.state = Holding{HoldAngle: 40, ObjectHeld: true, CheckStart: 0}
	m.angle = 40

	e := m.ForceOpen(time.Second)
	assert.Equal(t, ">> Force open", e.String())
	assert.Equal(t, Opening{StepStart: time.Second}, m.State())
	assert.False(t, m.ObjectHeld())
	assert.Equal(t, 40, m.Angle())

	// Still active, but opening runs to completion.
	fs := &fakeForce{}
	out := m.Step(Inputs{Active: true, Now: time.Second + 11*ms}, fs)
	assert.Equal(t, 40, out.Angle, "first degree waits a full step after force open")
	run(m, time.Second+12*ms, time.Second+40*12*ms+ms, true, fs)
	assert.Equal(t, 0, m.Angle())
	out = m.Step(Inputs{Active: true, Now: time.Second + 41*12*ms}, fs)
	assert.Equal(t, []EventKind{EventOpened}, kinds(out.Events))

	// Idle with activation still present starts a new close.
	out = m.Step(Inputs{Active: true, Now: time.Second + 41*12*ms + ms}, fs)
	assert.Equal(t, []EventKind{EventStartClose}, kinds(out.Events))
}

func TestObjectHeld_OnlyInHolding(t *testing.T) {
	for _, s := range []State{
		Idle{},
		Closing{},
		Opening{},
		Holding{ObjectHeld: false},
	} {
		assert.False(t, ObjectHeld(s), "%T", s)
	}
	assert.True(t, ObjectHeld(Holding{ObjectHeld: true}))
}
