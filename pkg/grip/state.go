package grip

import (
	"fmt"
	"time"
)

// Kind identifies a grip state. The numeric values are reported on telemetry
// and in the status line.
type Kind int

const (
	KindIdle Kind = iota
	KindClosing
	KindHolding
	KindOpening
)

func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "IDLE"
	case KindClosing:
		return "CLOSING"
	case KindHolding:
		return "HOLDING"
	case KindOpening:
		return "OPENING"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// State is one of Idle, Closing, Holding or Opening. Each variant carries only
// the data that is meaningful while it is active.
type State interface {
	Kind() Kind
	isState()
}

// Idle waits for activation with the gripper open.
type Idle struct{}

// Closing advances one degree per step interval until contact or full close.
type Closing struct {
	StepStart time.Duration
}

// Holding keeps the grasp and periodically corrects slip and over-pressure.
type Holding struct {
	HoldAngle  int  // Angle at which contact was detected (or fully closed)
	ObjectHeld bool // Contact was detected before full close
	CheckStart time.Duration
}

// Opening retreats one degree per step interval until fully open.
type Opening struct {
	StepStart time.Duration
}

func (Idle) Kind() Kind    { return KindIdle }
func (Closing) Kind() Kind { return KindClosing }
func (Holding) Kind() Kind { return KindHolding }
func (Opening) Kind() Kind { return KindOpening }

func (Idle) isState()    {}
func (Closing) isState() {}
func (Holding) isState() {}
func (Opening) isState() {}

// ObjectHeld reports whether s is a Holding state that made contact.
func ObjectHeld(s State) bool {
	h, ok := s.(Holding)
	return ok && h.ObjectHeld
}
