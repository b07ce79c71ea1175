// Package actuator commands the gripper servo.
package actuator

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

// ErrUnknownBackend is returned by ParseBackend for unsupported names.
var ErrUnknownBackend = errors.New("unknown actuator backend")

// Backend selects the servo implementation.
type Backend string

const (
	BackendPWM     Backend = "pwm"
	BackendFeetech Backend = "feetech"
	BackendNone    Backend = "none"
)

// ParseBackend validates a backend name.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case BackendPWM, BackendFeetech, BackendNone:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// Servo positions the gripper at an angle in degrees.
type Servo interface {
	SetAngle(angle int) error
}

// Driver clamps angles to the servo's range and forwards every command.
// Backend errors are logged and otherwise ignored; the controller has no
// actuator feedback.
type Driver struct {
	servo    Servo
	min, max int
	last     int
	failures int
}

// NewDriver creates a driver limited to [min, max] degrees.
func NewDriver(servo Servo, min, max int) *Driver {
	if min > max {
		min, max = max, min
	}
	return &Driver{
		servo: servo,
		min:   min,
		max:   max,
		last:  min,
	}
}

// Apply clamps angle and commands the servo. Repeated angles are sent again.
func (d *Driver) Apply(angle int) {
	angle = max(d.min, min(angle, d.max))
	d.last = angle

	if err := d.servo.SetAngle(angle); err != nil {
		d.failures++
		log.Printf("actuator: set angle %d: %v", angle, err)
	}
}

// Last returns the last commanded (clamped) angle.
func (d *Driver) Last() int {
	return d.last
}

// Failures returns the number of backend errors seen so far.
func (d *Driver) Failures() int {
	return d.failures
}

// Nop is a servo that accepts every angle and does nothing.
type Nop struct{}

// SetAngle implements Servo.
func (Nop) SetAngle(int) error { return nil }
