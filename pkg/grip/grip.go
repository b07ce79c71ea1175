// Package grip implements the four-state grip controller: close on muscle
// activation, hold with slip and over-pressure correction, open on release.
package grip

import (
	"time"

	"github.com/itohio/gripmate/pkg/force"
)

// Params configures the grip controller.
type Params struct {
	OpenAngle     int           // Fully open servo angle
	ClosedAngle   int           // Fully closed servo angle
	StepInterval  time.Duration // Time per degree while closing or opening
	CheckInterval time.Duration // Force check period while holding
	Contact       int           // Smoothed force that counts as contact
	MaxForce      int           // Smoothed force that triggers back-off
	SlipMargin    int           // Maximum auto-tightening beyond the hold angle
}

// DefaultParams returns the gripper constants.
func DefaultParams() Params {
	return Params{
		OpenAngle:     0,
		ClosedAngle:   130,
		StepInterval:  12 * time.Millisecond,
		CheckInterval: 50 * time.Millisecond,
		Contact:       200,
		MaxForce:      3000,
		SlipMargin:    10,
	}
}

// Inputs are the per-iteration values shared by all states.
type Inputs struct {
	Active bool
	Now    time.Duration
}

// Output describes the actuator command and any operator events produced by a
// transition. Write is set whenever the angle changed and the actuator must be
// commanded.
type Output struct {
	Angle  int
	Write  bool
	Events []Event
}

func (o *Output) emit(e Event) {
	o.Events = append(o.Events, e)
}

// Next evaluates one iteration of the controller. The force source is only
// sampled on a step (Closing) or check (Holding) tick.
func Next(s State, angle int, in Inputs, fs force.Source, p Params) (State, Output) {
	out := Output{Angle: angle}

	switch st := s.(type) {
	case Idle:
		if in.Active {
			out.emit(Event{Kind: EventStartClose})
			return Closing{StepStart: in.Now}, out
		}
		return st, out

	case Closing:
		if !in.Active {
			out.emit(Event{Kind: EventCloseAborted})
			return Opening{StepStart: in.Now}, out
		}
		if in.Now-st.StepStart < p.StepInterval {
			return st, out
		}
		f := fs.Read()
		if f.Smoothed >= p.Contact {
			out.emit(Event{Kind: EventContact, Angle: angle, Force: f.Smoothed})
			return Holding{HoldAngle: angle, ObjectHeld: true, CheckStart: in.Now}, out
		}
		if angle < p.ClosedAngle {
			out.Angle++
			out.Write = true
			return Closing{StepStart: in.Now}, out
		}
		out.emit(Event{Kind: EventFullyClosed})
		return Holding{HoldAngle: p.ClosedAngle, CheckStart: in.Now}, out

	case Holding:
		if !in.Active {
			out.emit(Event{Kind: EventRelease})
			return Opening{StepStart: in.Now}, out
		}
		if in.Now-st.CheckStart < p.CheckInterval {
			return st, out
		}
		st.CheckStart = in.Now
		f := fs.Read()

		if st.ObjectHeld && f.Smoothed < p.Contact && out.Angle < st.HoldAngle+p.SlipMargin {
			out.Angle++
			out.Write = true
			out.emit(Event{Kind: EventSlip})
		}
		if f.Smoothed >= p.MaxForce && out.Angle > p.OpenAngle {
			out.Angle--
			out.Write = true
			out.emit(Event{Kind: EventOverPressure})
		}
		return st, out

	case Opening:
		if in.Now-st.StepStart < p.StepInterval {
			return st, out
		}
		if angle > p.OpenAngle {
			out.Angle--
			out.Write = true
			return Opening{StepStart: in.Now}, out
		}
		out.Angle = p.OpenAngle
		out.emit(Event{Kind: EventOpened})
		return Idle{}, out
	}

	// Unknown variants fall back to a safe open.
	return Opening{StepStart: in.Now}, out
}

// Machine owns the grip state and the commanded angle.
type Machine struct {
	p     Params
	state State
	angle int
}

// NewMachine creates a machine in Idle with the gripper open.
func NewMachine(p Params) *Machine {
	return &Machine{
		p:     p,
		state: Idle{},
		angle: p.OpenAngle,
	}
}

// Step runs one iteration and returns the resulting output.
func (m *Machine) Step(in Inputs, fs force.Source) Output {
	var out Output
	m.state, out = Next(m.state, m.angle, in, fs, m.p)
	m.angle = out.Angle
	return out
}

// ForceOpen overrides the current state with Opening. The step timer restarts
// at now, so the first degree is released one step interval later.
func (m *Machine) ForceOpen(now time.Duration) Event {
	m.state = Opening{StepStart: now}
	return Event{Kind: EventForceOpen}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Kind returns the current state kind.
func (m *Machine) Kind() Kind {
	return m.state.Kind()
}

// Angle returns the last commanded angle.
func (m *Machine) Angle() int {
	return m.angle
}

// ObjectHeld reports whether an object is currently gripped.
func (m *Machine) ObjectHeld() bool {
	return ObjectHeld(m.state)
}

// Params returns the machine parameters.
func (m *Machine) Params() Params {
	return m.p
}
