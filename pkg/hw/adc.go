package hw

import (
	"errors"
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"

	"github.com/itohio/gripmate/pkg/mailbox"
)

// DefaultVRef is the analog front-end supply; it maps to mailbox.MaxRaw.
const DefaultVRef = 3300 * physic.MilliVolt

var channels = []ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// ADCConfig selects the bus and inputs of the ADS1115.
type ADCConfig struct {
	Bus        string // I2C bus name, empty for the first bus
	EMGChannel int
	FSRChannel int
	VRef       physic.ElectricPotential
}

// ADC exposes two ADS1115 inputs as 12-bit channels.
type ADC struct {
	bus i2c.BusCloser
	dev *ads1x15.Dev
	emg *Input
	fsr *Input
}

// OpenADC opens the I2C bus and configures both inputs. The EMG input is
// sampled at the converter's fastest rate; the ADS1115 tops out at 860 SPS,
// so the 1 kHz sampler sees repeated values.
func OpenADC(cfg ADCConfig) (*ADC, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if cfg.VRef == 0 {
		cfg.VRef = DefaultVRef
	}

	emgCh, err := channel(cfg.EMGChannel)
	if err != nil {
		return nil, err
	}
	fsrCh, err := channel(cfg.FSRChannel)
	if err != nil {
		return nil, err
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("i2c open %q: %w", cfg.Bus, err)
	}

	dev, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("ads1115 init: %w", err)
	}

	emgPin, err := dev.PinForChannel(emgCh, 4096*physic.MilliVolt, 860*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("ads1115 emg channel: %w", err)
	}
	fsrPin, err := dev.PinForChannel(fsrCh, 4096*physic.MilliVolt, 250*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		emgPin.Halt()
		bus.Close()
		return nil, fmt.Errorf("ads1115 fsr channel: %w", err)
	}

	return &ADC{
		bus: bus,
		dev: dev,
		emg: &Input{name: "emg", pin: emgPin, vref: cfg.VRef},
		fsr: &Input{name: "fsr", pin: fsrPin, vref: cfg.VRef},
	}, nil
}

func channel(n int) (ads1x15.Channel, error) {
	if n < 0 || n >= len(channels) {
		return 0, fmt.Errorf("ads1115 channel %d out of range", n)
	}
	return channels[n], nil
}

// EMG returns the muscle signal input.
func (a *ADC) EMG() *Input { return a.emg }

// FSR returns the force sensor input.
func (a *ADC) FSR() *Input { return a.fsr }

// Close halts both inputs and releases the bus.
func (a *ADC) Close() error {
	return errors.Join(a.emg.pin.Halt(), a.fsr.pin.Halt(), a.bus.Close())
}

// Input is one converter channel scaled to 12 bits.
type Input struct {
	name   string
	pin    ads1x15.PinADC
	vref   physic.ElectricPotential
	last   uint16
	failed bool
}

var _ mailbox.Channel = (*Input)(nil)

// Read returns the scaled voltage. On a read error the previous value is
// returned and the failure is logged once until the input recovers.
func (in *Input) Read() uint16 {
	s, err := in.pin.Read()
	if err != nil {
		if !in.failed {
			log.Printf("hw: %s read: %v", in.name, err)
			in.failed = true
		}
		return in.last
	}
	in.failed = false
	in.last = scale(s.V, in.vref)
	return in.last
}

// scale maps [0, vref] to [0, mailbox.MaxRaw], saturating outside.
func scale(v, vref physic.ElectricPotential) uint16 {
	if v <= 0 || vref <= 0 {
		return 0
	}
	raw := int64(v) * mailbox.MaxRaw / int64(vref)
	if raw > mailbox.MaxRaw {
		return mailbox.MaxRaw
	}
	return uint16(raw)
}
