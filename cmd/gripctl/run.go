package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/itohio/gripmate/pkg/actuator"
	"github.com/itohio/gripmate/pkg/clock"
	"github.com/itohio/gripmate/pkg/config"
	"github.com/itohio/gripmate/pkg/device"
	"github.com/itohio/gripmate/pkg/hand"
	"github.com/itohio/gripmate/pkg/hw"
	"github.com/itohio/gripmate/pkg/mailbox"
	"github.com/itohio/gripmate/pkg/telemetry"
)

type RunCommand struct {
	Sim    bool   `long:"sim" description:"Use simulated EMG and force sensors"`
	Seed   uint64 `long:"seed" description:"Simulator seed (0 = random)"`
	Plot   bool   `long:"plot" description:"Write Teleplot telemetry lines to stdout"`
	Listen string `short:"l" long:"listen" description:"Also stream telemetry to websocket clients on this address"`
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.Sim {
		cfg.Sensors.Backend = "sim"
	}

	ctx, cancel := signalContext()
	defer cancel()

	clk := clock.NewMonotonic()
	rig, err := openRig(ctx, cfg, clk, c.Seed)
	if err != nil {
		return err
	}
	defer rig.Close()

	samples := &mailbox.Mailbox{}
	sampler := mailbox.NewSampler(rig.emg, samples, cfg.Signal.SamplePeriod)
	go sampler.Run(ctx)

	commands := hand.NewQueue(16)
	go func() {
		if err := commands.Pump(ctx, os.Stdin); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
			log.Printf("run: console: %v", err)
		}
	}()

	var sinks telemetry.Multi
	if c.Plot {
		sinks = append(sinks, telemetry.NewEncoder(os.Stdout))
	}
	if c.Listen != "" {
		hub := telemetry.NewHub(func(b byte) { commands.Send(b) })
		sinks = append(sinks, hub)
		go func() {
			if err := serve(ctx, c.Listen, hub); err != nil {
				log.Printf("run: %v", err)
			}
		}()
	}

	handCfg := cfg.Hand()
	if len(sinks) == 0 {
		handCfg.TelemetryInterval = 0
	}

	ctrl := hand.New(handCfg, hand.Hardware{
		Samples: samples,
		Force:   rig.force,
		Servo:   rig.servo,
	},
		hand.WithClock(clk),
		hand.WithCommands(commands),
		hand.WithConsole(os.Stdout),
		hand.WithTelemetry(sinks),
	)

	ctrl.PrintBanner()
	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// rig is the sensor and actuator hardware of a local controller.
type rig struct {
	emg    mailbox.Channel
	force  mailbox.Channel
	servo  actuator.Servo
	closer []io.Closer
}

func (r *rig) Close() error {
	var errs []error
	for i := len(r.closer) - 1; i >= 0; i-- {
		errs = append(errs, r.closer[i].Close())
	}
	return errors.Join(errs...)
}

// openRig opens the configured sensors and servo. With simulated sensors the
// simulator also follows every servo command so its force model sees the jaw.
func openRig(ctx context.Context, cfg *config.Config, clk clock.Clock, seed uint64) (*rig, error) {
	r := &rig{}

	servo, closer, err := openServo(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		r.closer = append(r.closer, closer)
	}

	switch cfg.Sensors.Backend {
	case "sim":
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		sim := device.NewSimulator(cfg.Sim, clk, seed)
		r.emg = sim.EMG()
		r.force = sim.Force()
		servo = servos{servo, sim}
		log.Printf("run: simulated sensors (flex %s / rest %s)", cfg.Sim.Hold, cfg.Sim.Rest)
	case "ads1115":
		adc, err := hw.OpenADC(hw.ADCConfig{
			Bus:        cfg.Sensors.I2CBus,
			EMGChannel: cfg.Sensors.EMGChannel,
			FSRChannel: cfg.Sensors.FSRChannel,
		})
		if err != nil {
			r.Close()
			return nil, err
		}
		r.closer = append(r.closer, adc)
		r.emg = adc.EMG()
		r.force = adc.FSR()
	default:
		r.Close()
		return nil, fmt.Errorf("unknown sensors backend %q", cfg.Sensors.Backend)
	}

	r.servo = servo
	return r, nil
}

// openServo opens the configured actuator backend. The closer is nil when
// there is nothing to release.
func openServo(ctx context.Context, cfg *config.Config) (actuator.Servo, io.Closer, error) {
	backend, err := actuator.ParseBackend(cfg.Actuator.Backend)
	if err != nil {
		return nil, nil, err
	}

	switch backend {
	case actuator.BackendPWM:
		s, err := hw.OpenServo(hw.ServoConfig{
			Pin:       cfg.Actuator.Pin,
			Frequency: physic.Frequency(cfg.Actuator.Frequency) * physic.Hertz,
			MinPulse:  cfg.Actuator.MinPulse,
			MaxPulse:  cfg.Actuator.MaxPulse,
			MaxAngle:  cfg.Actuator.MaxAngle,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case actuator.BackendFeetech:
		fc := actuator.DefaultFeetechConfig()
		fc.Port = cfg.Actuator.Feetech.Port
		fc.BaudRate = cfg.Actuator.Feetech.BaudRate
		fc.ID = cfg.Actuator.Feetech.ID
		fc.MinPos = cfg.Actuator.Feetech.MinPos
		fc.MaxPos = cfg.Actuator.Feetech.MaxPos
		s, err := actuator.OpenFeetech(ctx, fc)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return actuator.Nop{}, nil, nil
	}
}

// servos forwards every command to each servo and returns the first error.
type servos []actuator.Servo

func (s servos) SetAngle(angle int) error {
	var first error
	for _, sv := range s {
		if err := sv.SetAngle(angle); err != nil && first == nil {
			first = err
		}
	}
	return first
}
