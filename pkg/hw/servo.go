package hw

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"github.com/itohio/gripmate/pkg/actuator"
)

// ServoConfig describes a hobby servo on a PWM-capable GPIO.
type ServoConfig struct {
	Pin       string
	Frequency physic.Frequency
	MinPulse  time.Duration // Pulse at 0 degrees
	MaxPulse  time.Duration // Pulse at MaxAngle
	MaxAngle  int
}

// DefaultServoConfig matches a standard 50 Hz servo with a 500-2400us range.
func DefaultServoConfig() ServoConfig {
	return ServoConfig{
		Pin:       "GPIO18",
		Frequency: 50 * physic.Hertz,
		MinPulse:  500 * time.Microsecond,
		MaxPulse:  2400 * time.Microsecond,
		MaxAngle:  180,
	}
}

// PWMServo drives a servo from a GPIO pin.
type PWMServo struct {
	cfg ServoConfig
	pin gpio.PinIO
}

var _ actuator.Servo = (*PWMServo)(nil)

// OpenServo looks up the pin by name.
func OpenServo(cfg ServoConfig) (*PWMServo, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if cfg.MaxAngle <= 0 || cfg.Frequency <= 0 {
		return nil, fmt.Errorf("invalid servo config: max angle %d, frequency %s", cfg.MaxAngle, cfg.Frequency)
	}
	pin := gpioreg.ByName(cfg.Pin)
	if pin == nil {
		return nil, fmt.Errorf("gpio %q not found", cfg.Pin)
	}
	return &PWMServo{cfg: cfg, pin: pin}, nil
}

// SetAngle implements actuator.Servo.
func (s *PWMServo) SetAngle(angle int) error {
	if err := s.pin.PWM(duty(s.cfg, angle), s.cfg.Frequency); err != nil {
		return fmt.Errorf("pwm %s: %w", s.cfg.Pin, err)
	}
	return nil
}

// Close stops the PWM output.
func (s *PWMServo) Close() error {
	return s.pin.Halt()
}

// pulse returns the pulse width for angle, clamped to [0, MaxAngle].
func pulse(cfg ServoConfig, angle int) time.Duration {
	angle = max(0, min(angle, cfg.MaxAngle))
	return cfg.MinPulse + (cfg.MaxPulse-cfg.MinPulse)*time.Duration(angle)/time.Duration(cfg.MaxAngle)
}

func duty(cfg ServoConfig, angle int) gpio.Duty {
	period := cfg.Frequency.Period()
	return gpio.Duty(int64(gpio.DutyMax) * int64(pulse(cfg, angle)) / int64(period))
}
