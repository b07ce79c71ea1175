package grip

import "fmt"

// EventKind identifies something worth reporting to the operator.
type EventKind int

const (
	EventStartClose    EventKind = iota // Idle -> Closing
	EventCloseAborted                   // Closing -> Opening
	EventContact                        // Closing -> Holding on force
	EventFullyClosed                    // Closing -> Holding at the closed limit
	EventRelease                        // Holding -> Opening
	EventSlip                           // Holding tightened one degree
	EventOverPressure                   // Holding backed off one degree
	EventOpened                         // Opening -> Idle
	EventForceOpen                      // Operator override
)

// Event is emitted alongside a transition or correction.
type Event struct {
	Kind  EventKind
	Angle int // Hold angle for EventContact
	Force int // Smoothed force for EventContact
}

// String renders the console line for the event.
func (e Event) String() string {
	switch e.Kind {
	case EventStartClose:
		return ">> IDLE -> CLOSING"
	case EventCloseAborted:
		return ">> CLOSING -> OPENING"
	case EventContact:
		return fmt.Sprintf(">> CLOSING -> HOLDING at %d deg | FSR:%d", e.Angle, e.Force)
	case EventFullyClosed:
		return ">> CLOSING -> HOLDING (fully closed)"
	case EventRelease:
		return ">> HOLDING -> OPENING"
	case EventSlip:
		return ">> SLIP - tightening"
	case EventOverPressure:
		return ">> OVER-PRESSURE - backing off"
	case EventOpened:
		return ">> OPENING -> IDLE"
	case EventForceOpen:
		return ">> Force open"
	default:
		return fmt.Sprintf(">> event %d", int(e.Kind))
	}
}
