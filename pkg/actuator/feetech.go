package actuator

import (
	"context"
	"fmt"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// FeetechConfig describes a single STS bus servo used as the gripper, such as
// the jaw of an SO-101 arm.
type FeetechConfig struct {
	Port     string
	BaudRate int
	ID       int
	MinPos   int           // Raw position at 0 degrees
	MaxPos   int           // Raw position at MaxAngle
	MaxAngle int           // Angle that maps to MaxPos
	Timeout  time.Duration // Per-command bus timeout
}

// DefaultFeetechConfig returns settings for the SO-101 gripper servo.
func DefaultFeetechConfig() FeetechConfig {
	return FeetechConfig{
		BaudRate: 1_000_000,
		ID:       6,
		MinPos:   2048,
		MaxPos:   3400,
		MaxAngle: 130,
		Timeout:  20 * time.Millisecond,
	}
}

// Feetech drives a Feetech STS servo over its serial bus.
type Feetech struct {
	cfg   FeetechConfig
	bus   *feetech.Bus
	servo *feetech.Servo
}

var _ Servo = (*Feetech)(nil)

// OpenFeetech opens the bus, locates the configured servo and enables torque.
func OpenFeetech(ctx context.Context, cfg FeetechConfig) (*Feetech, error) {
	if cfg.MaxAngle <= 0 {
		return nil, fmt.Errorf("feetech: invalid max angle %d", cfg.MaxAngle)
	}

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	found, err := bus.Scan(ctx, cfg.ID, cfg.ID)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("scan servo %d: %w", cfg.ID, err)
	}
	if len(found) == 0 {
		bus.Close()
		return nil, fmt.Errorf("servo %d not found on %s", cfg.ID, cfg.Port)
	}

	servo := feetech.NewServo(bus, found[0].ID, found[0].Model)
	if err := servo.Enable(ctx); err != nil {
		bus.Close()
		return nil, fmt.Errorf("enable servo %d: %w", cfg.ID, err)
	}

	return &Feetech{cfg: cfg, bus: bus, servo: servo}, nil
}

// Position converts an angle to a raw servo position.
func (f *Feetech) Position(angle int) int {
	return positionFor(f.cfg, angle)
}

func positionFor(cfg FeetechConfig, angle int) int {
	return cfg.MinPos + angle*(cfg.MaxPos-cfg.MinPos)/cfg.MaxAngle
}

// SetAngle implements Servo.
func (f *Feetech) SetAngle(angle int) error {
	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.Timeout)
	defer cancel()

	if err := f.servo.SetPosition(ctx, positionFor(f.cfg, angle)); err != nil {
		return fmt.Errorf("set position: %w", err)
	}
	return nil
}

// Close disables torque and closes the bus.
func (f *Feetech) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.Timeout)
	defer cancel()

	if err := f.servo.Disable(ctx); err != nil {
		f.bus.Close()
		return fmt.Errorf("disable servo: %w", err)
	}
	return f.bus.Close()
}
