// Package hand wires the signal chain, activation detector, grip controller
// and actuator into the single cooperative control loop.
package hand

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/itohio/gripmate/pkg/activation"
	"github.com/itohio/gripmate/pkg/actuator"
	"github.com/itohio/gripmate/pkg/clock"
	"github.com/itohio/gripmate/pkg/emg"
	"github.com/itohio/gripmate/pkg/force"
	"github.com/itohio/gripmate/pkg/grip"
	"github.com/itohio/gripmate/pkg/mailbox"
	"github.com/itohio/gripmate/pkg/telemetry"
)

// Config holds the parameters of every stage.
type Config struct {
	Signal     emg.Params
	Activation activation.Params
	Grip       grip.Params

	ServoMin, ServoMax int // Hardware limits of the servo; both zero means the grip range

	ForceSlots        int           // Force moving average size
	TelemetryInterval time.Duration // Zero disables telemetry
	Yield             time.Duration // Pause between iterations in Run; zero only yields
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		Signal:            emg.DefaultParams(),
		Activation:        activation.DefaultParams(),
		Grip:              grip.DefaultParams(),
		ServoMin:          0,
		ServoMax:          180,
		ForceSlots:        force.DefaultSize,
		TelemetryInterval: telemetry.DefaultInterval,
	}
}

func (cfg Config) servoRange() (int, int) {
	if cfg.ServoMin == 0 && cfg.ServoMax == 0 {
		return cfg.Grip.OpenAngle, cfg.Grip.ClosedAngle
	}
	return cfg.ServoMin, cfg.ServoMax
}

// Hardware are the external collaborators of the controller.
type Hardware struct {
	Samples *mailbox.Mailbox // Filled by a Sampler at 1 kHz
	Force   mailbox.Channel
	Servo   actuator.Servo
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock replaces the monotonic clock.
func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithCommands sets the operator command source.
func WithCommands(src CommandSource) Option {
	return func(ctl *Controller) { ctl.commands = src }
}

// WithConsole sets the writer for operator messages.
func WithConsole(w io.Writer) Option {
	return func(ctl *Controller) { ctl.console = w }
}

// WithTelemetry sets the telemetry sink.
func WithTelemetry(s telemetry.Sink) Option {
	return func(ctl *Controller) { ctl.telemetry = s }
}

// Controller owns all control state. It is not safe for concurrent use;
// only the mailbox is shared with the sampler.
type Controller struct {
	cfg Config

	clock     clock.Clock
	samples   *mailbox.Mailbox
	signal    *emg.Conditioner
	detector  *activation.Detector
	force     *force.Reader
	machine   *grip.Machine
	driver    *actuator.Driver
	commands  CommandSource
	console   io.Writer
	telemetry telemetry.Sink

	envelope  float32
	plotStart time.Duration
	table     map[byte]*Command
}

// New creates a controller and drives the servo to the open angle.
func New(cfg Config, hw Hardware, opts ...Option) *Controller {
	servoMin, servoMax := cfg.servoRange()
	c := &Controller{
		cfg:      cfg,
		samples:  hw.Samples,
		signal:   emg.NewConditioner(cfg.Signal),
		force:    force.NewReader(hw.Force, cfg.ForceSlots),
		machine:  grip.NewMachine(cfg.Grip),
		driver:   actuator.NewDriver(hw.Servo, servoMin, servoMax),
		commands: NoCommands{},
		console:  io.Discard,
		table:    commandTable(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = clock.NewMonotonic()
	}

	c.detector = activation.New(cfg.Activation, c.clock.Now())
	c.driver.Apply(c.machine.Angle())
	return c
}

// Tick runs one loop iteration: take at most one raw sample, update the
// envelope and activation, step the grip controller, handle one command and
// emit telemetry when due.
func (c *Controller) Tick() {
	now := c.clock.Now()

	if raw, ok := c.samples.Take(); ok {
		c.envelope = c.signal.Condition(raw)
	}

	active := c.detector.Update(c.envelope, now)

	out := c.machine.Step(grip.Inputs{Active: active, Now: now}, c.force)
	if out.Write {
		c.driver.Apply(out.Angle)
	}
	for _, e := range out.Events {
		c.println(e.String())
	}

	if b, ok := c.commands.Poll(); ok {
		c.Execute(b)
	}

	if c.telemetry != nil && c.cfg.TelemetryInterval > 0 && now-c.plotStart >= c.cfg.TelemetryInterval {
		c.plotStart = now
		c.telemetry.Emit(c.Frame())
	}
}

// Run iterates until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c.Tick()

		if c.cfg.Yield > 0 {
			time.Sleep(c.cfg.Yield)
		} else {
			runtime.Gosched()
		}
	}
}

// Frame returns a snapshot of the controller.
func (c *Controller) Frame() telemetry.Frame {
	f := c.force.Last()
	return telemetry.Frame{
		Envelope:      c.envelope,
		Threshold:     c.detector.Threshold(),
		Active:        c.detector.Active(),
		ForceRaw:      f.Raw,
		ForceSmoothed: f.Smoothed,
		Angle:         c.machine.Angle(),
		State:         int(c.machine.Kind()),
	}
}

// State returns the current grip state.
func (c *Controller) State() grip.State {
	return c.machine.State()
}

// ObjectHeld reports whether an object is gripped.
func (c *Controller) ObjectHeld() bool {
	return c.machine.ObjectHeld()
}

// Envelope returns the latest EMG envelope.
func (c *Controller) Envelope() float32 {
	return c.envelope
}

func (c *Controller) println(s string) {
	fmt.Fprintln(c.console, s)
}

func (c *Controller) printf(format string, args ...any) {
	fmt.Fprintf(c.console, format, args...)
}
