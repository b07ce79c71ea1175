package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/gripmate/pkg/activation"
	"github.com/itohio/gripmate/pkg/emg"
	"github.com/itohio/gripmate/pkg/grip"
	"github.com/itohio/gripmate/pkg/hand"
)

// Config represents the application configuration.
type Config struct {
	Signal     SignalConfig     `yaml:"signal"`
	Activation ActivationConfig `yaml:"activation"`
	Grip       GripConfig       `yaml:"grip"`
	Actuator   ActuatorConfig   `yaml:"actuator"`
	Sensors    SensorsConfig    `yaml:"sensors"`
	Serial     SerialConfig     `yaml:"serial"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Sim        SimConfig        `yaml:"sim"`
	Scope      ScopeConfig      `yaml:"scope"`
}

// SignalConfig contains EMG conditioning parameters.
type SignalConfig struct {
	VRef         float32       `yaml:"vref"`
	ADCMax       float32       `yaml:"adc_max"`
	Midpoint     float32       `yaml:"midpoint"`
	HighPass     float32       `yaml:"high_pass"`
	LowPass      float32       `yaml:"low_pass"`
	WindowSize   int           `yaml:"window_size"`
	SamplePeriod time.Duration `yaml:"sample_period"`
}

// ActivationConfig contains the muscle activation detector parameters.
type ActivationConfig struct {
	Threshold     float32       `yaml:"threshold"`
	Confirm       time.Duration `yaml:"confirm"`
	Release       time.Duration `yaml:"release"`
	ThresholdStep float32       `yaml:"threshold_step"`
}

// GripConfig contains the grip controller parameters.
type GripConfig struct {
	OpenAngle     int           `yaml:"open_angle"`
	ClosedAngle   int           `yaml:"closed_angle"`
	StepInterval  time.Duration `yaml:"step_interval"`
	CheckInterval time.Duration `yaml:"check_interval"`
	Contact       int           `yaml:"contact"`
	MaxForce      int           `yaml:"max_force"`
	SlipMargin    int           `yaml:"slip_margin"`
	ForceSlots    int           `yaml:"force_slots"`
}

// ActuatorConfig selects and configures the gripper servo.
type ActuatorConfig struct {
	Backend   string        `yaml:"backend"` // pwm, feetech or none
	Pin       string        `yaml:"pin"`     // GPIO name for pwm
	MinAngle  int           `yaml:"min_angle"`
	MaxAngle  int           `yaml:"max_angle"`
	MinPulse  time.Duration `yaml:"min_pulse"`
	MaxPulse  time.Duration `yaml:"max_pulse"`
	Frequency int           `yaml:"frequency"` // PWM frequency in Hz
	Feetech   FeetechConfig `yaml:"feetech"`
}

// FeetechConfig contains bus servo settings.
type FeetechConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	ID       int    `yaml:"id"`
	MinPos   int    `yaml:"min_pos"`
	MaxPos   int    `yaml:"max_pos"`
}

// SensorsConfig selects the analog front end.
type SensorsConfig struct {
	Backend    string `yaml:"backend"` // ads1115 or sim
	I2CBus     string `yaml:"i2c_bus"`
	EMGChannel int    `yaml:"emg_channel"`
	FSRChannel int    `yaml:"fsr_channel"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// MQTTConfig contains remote control settings.
type MQTTConfig struct {
	Broker         string `yaml:"broker"`
	ClientID       string `yaml:"client_id"`
	ControlTopic   string `yaml:"control_topic"`
	TelemetryTopic string `yaml:"telemetry_topic"`
}

// TelemetryConfig contains telemetry output settings.
type TelemetryConfig struct {
	Interval time.Duration `yaml:"interval"`
	Listen   string        `yaml:"listen"` // Websocket listen address
}

// SimConfig contains simulated EMG and force sensor parameters.
type SimConfig struct {
	Noise      float64       `yaml:"noise"`       // EMG noise amplitude (ADC counts)
	Burst      float64       `yaml:"burst"`       // EMG burst amplitude (ADC counts)
	Hold       time.Duration `yaml:"hold"`        // Flex duration
	Rest       time.Duration `yaml:"rest"`        // Relax duration
	ObjectAt   int           `yaml:"object_at"`   // Angle at which the object is touched (0 = no object)
	Stiffness  float64       `yaml:"stiffness"`   // Force counts per degree past contact
	ForceNoise float64       `yaml:"force_noise"` // FSR noise amplitude (ADC counts)
}

// ScopeConfig contains host-side plotting settings.
type ScopeConfig struct {
	Window         time.Duration `yaml:"window"`          // Time span kept by the meter and shown by the scope
	AverageSamples int           `yaml:"average_samples"` // Frames averaged before plotting (0 = disabled)
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	sig := emg.DefaultParams()
	act := activation.DefaultParams()
	g := grip.DefaultParams()

	return &Config{
		Signal: SignalConfig{
			VRef:         sig.VRef,
			ADCMax:       sig.ADCMax,
			Midpoint:     sig.Midpoint,
			HighPass:     sig.HighPass,
			LowPass:      sig.LowPass,
			WindowSize:   sig.WindowSize,
			SamplePeriod: time.Millisecond,
		},
		Activation: ActivationConfig{
			Threshold:     act.Threshold,
			Confirm:       act.Confirm,
			Release:       act.Release,
			ThresholdStep: act.Step,
		},
		Grip: GripConfig{
			OpenAngle:     g.OpenAngle,
			ClosedAngle:   g.ClosedAngle,
			StepInterval:  g.StepInterval,
			CheckInterval: g.CheckInterval,
			Contact:       g.Contact,
			MaxForce:      g.MaxForce,
			SlipMargin:    g.SlipMargin,
			ForceSlots:    8,
		},
		Actuator: ActuatorConfig{
			Backend:   "none",
			Pin:       "GPIO18",
			MinAngle:  0,
			MaxAngle:  180,
			MinPulse:  500 * time.Microsecond,
			MaxPulse:  2400 * time.Microsecond,
			Frequency: 50,
			Feetech: FeetechConfig{
				Port:     "/dev/ttyACM0",
				BaudRate: 1_000_000,
				ID:       6,
				MinPos:   2048,
				MaxPos:   3400,
			},
		},
		Sensors: SensorsConfig{
			Backend:    "sim",
			I2CBus:     "",
			EMGChannel: 0,
			FSRChannel: 1,
		},
		Serial: SerialConfig{
			Port: "/dev/ttyUSB0",
			Baud: 115200,
		},
		MQTT: MQTTConfig{
			Broker:         "tcp://broker.hivemq.com:1883",
			ClientID:       "gripmate",
			ControlTopic:   "gripmate/control",
			TelemetryTopic: "gripmate/telemetry",
		},
		Telemetry: TelemetryConfig{
			Interval: 20 * time.Millisecond,
			Listen:   ":8080",
		},
		Sim: SimConfig{
			Noise:      20,
			Burst:      900,
			Hold:       3 * time.Second,
			Rest:       3 * time.Second,
			ObjectAt:   60,
			Stiffness:  60,
			ForceNoise: 10,
		},
		Scope: ScopeConfig{
			Window:         10 * time.Second,
			AverageSamples: 0,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Hand converts the configuration into controller parameters.
func (c *Config) Hand() hand.Config {
	return hand.Config{
		Signal: emg.Params{
			VRef:       c.Signal.VRef,
			ADCMax:     c.Signal.ADCMax,
			Midpoint:   c.Signal.Midpoint,
			HighPass:   c.Signal.HighPass,
			LowPass:    c.Signal.LowPass,
			WindowSize: c.Signal.WindowSize,
		},
		Activation: activation.Params{
			Threshold: c.Activation.Threshold,
			Confirm:   c.Activation.Confirm,
			Release:   c.Activation.Release,
			Step:      c.Activation.ThresholdStep,
		},
		Grip: grip.Params{
			OpenAngle:     c.Grip.OpenAngle,
			ClosedAngle:   c.Grip.ClosedAngle,
			StepInterval:  c.Grip.StepInterval,
			CheckInterval: c.Grip.CheckInterval,
			Contact:       c.Grip.Contact,
			MaxForce:      c.Grip.MaxForce,
			SlipMargin:    c.Grip.SlipMargin,
		},
		ServoMin:          c.Actuator.MinAngle,
		ServoMax:          c.Actuator.MaxAngle,
		ForceSlots:        c.Grip.ForceSlots,
		TelemetryInterval: c.Telemetry.Interval,
	}
}

// ensureDefaults ensures that all required fields have default values if missing.
// Threshold and angles are left alone since zero is a legal value for them.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Signal.VRef == 0 {
		c.Signal.VRef = def.Signal.VRef
	}
	if c.Signal.ADCMax == 0 {
		c.Signal.ADCMax = def.Signal.ADCMax
	}
	if c.Signal.HighPass == 0 {
		c.Signal.HighPass = def.Signal.HighPass
	}
	if c.Signal.WindowSize <= 0 {
		c.Signal.WindowSize = def.Signal.WindowSize
	}
	if c.Signal.SamplePeriod <= 0 {
		c.Signal.SamplePeriod = def.Signal.SamplePeriod
	}

	if c.Activation.Confirm == 0 {
		c.Activation.Confirm = def.Activation.Confirm
	}
	if c.Activation.Release == 0 {
		c.Activation.Release = def.Activation.Release
	}
	if c.Activation.ThresholdStep == 0 {
		c.Activation.ThresholdStep = def.Activation.ThresholdStep
	}

	if c.Grip.ClosedAngle == 0 {
		c.Grip.ClosedAngle = def.Grip.ClosedAngle
	}
	if c.Grip.StepInterval == 0 {
		c.Grip.StepInterval = def.Grip.StepInterval
	}
	if c.Grip.CheckInterval == 0 {
		c.Grip.CheckInterval = def.Grip.CheckInterval
	}
	if c.Grip.Contact == 0 {
		c.Grip.Contact = def.Grip.Contact
	}
	if c.Grip.MaxForce == 0 {
		c.Grip.MaxForce = def.Grip.MaxForce
	}
	if c.Grip.ForceSlots <= 0 {
		c.Grip.ForceSlots = def.Grip.ForceSlots
	}

	if c.Actuator.Backend == "" {
		c.Actuator.Backend = def.Actuator.Backend
	}
	if c.Actuator.MaxAngle == 0 {
		c.Actuator.MaxAngle = def.Actuator.MaxAngle
	}
	if c.Actuator.MinPulse == 0 {
		c.Actuator.MinPulse = def.Actuator.MinPulse
	}
	if c.Actuator.MaxPulse == 0 {
		c.Actuator.MaxPulse = def.Actuator.MaxPulse
	}
	if c.Actuator.Frequency == 0 {
		c.Actuator.Frequency = def.Actuator.Frequency
	}
	if c.Actuator.Feetech.BaudRate == 0 {
		c.Actuator.Feetech.BaudRate = def.Actuator.Feetech.BaudRate
	}
	if c.Actuator.Feetech.ID == 0 {
		c.Actuator.Feetech.ID = def.Actuator.Feetech.ID
	}
	if c.Actuator.Feetech.MaxPos == 0 {
		c.Actuator.Feetech.MinPos = def.Actuator.Feetech.MinPos
		c.Actuator.Feetech.MaxPos = def.Actuator.Feetech.MaxPos
	}

	if c.Sensors.Backend == "" {
		c.Sensors.Backend = def.Sensors.Backend
	}

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.ControlTopic == "" {
		c.MQTT.ControlTopic = def.MQTT.ControlTopic
	}
	if c.MQTT.TelemetryTopic == "" {
		c.MQTT.TelemetryTopic = def.MQTT.TelemetryTopic
	}

	if c.Telemetry.Interval == 0 {
		c.Telemetry.Interval = def.Telemetry.Interval
	}
	if c.Telemetry.Listen == "" {
		c.Telemetry.Listen = def.Telemetry.Listen
	}

	if c.Sim.Hold == 0 {
		c.Sim.Hold = def.Sim.Hold
	}
	if c.Sim.Rest == 0 {
		c.Sim.Rest = def.Sim.Rest
	}

	if c.Scope.Window <= 0 {
		c.Scope.Window = def.Scope.Window
	}
}
