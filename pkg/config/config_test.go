package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gripmate/pkg/hand"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, float32(3.3), cfg.Signal.VRef)
	assert.Equal(t, float32(4095), cfg.Signal.ADCMax)
	assert.Equal(t, float32(0.9747), cfg.Signal.HighPass)
	assert.Equal(t, float32(0.7), cfg.Signal.LowPass)
	assert.Equal(t, 200, cfg.Signal.WindowSize)
	assert.Equal(t, time.Millisecond, cfg.Signal.SamplePeriod)
	assert.Equal(t, float32(0.055), cfg.Activation.Threshold)
	assert.Equal(t, 300*time.Millisecond, cfg.Activation.Confirm)
	assert.Equal(t, 400*time.Millisecond, cfg.Activation.Release)
	assert.Equal(t, 130, cfg.Grip.ClosedAngle)
	assert.Equal(t, 12*time.Millisecond, cfg.Grip.StepInterval)
	assert.Equal(t, 50*time.Millisecond, cfg.Grip.CheckInterval)
	assert.Equal(t, 200, cfg.Grip.Contact)
	assert.Equal(t, 3000, cfg.Grip.MaxForce)
	assert.Equal(t, 10, cfg.Grip.SlipMargin)
	assert.Equal(t, "gripmate/control", cfg.MQTT.ControlTopic)
	assert.Equal(t, 20*time.Millisecond, cfg.Telemetry.Interval)
}

func TestHand_MatchesControllerDefaults(t *testing.T) {
	assert.Equal(t, hand.DefaultConfig(), Default().Hand())
}

func TestHand_ActuatorRange(t *testing.T) {
	cfg := Default()
	cfg.Actuator.MinAngle, cfg.Actuator.MaxAngle = 15, 120

	h := cfg.Hand()
	assert.Equal(t, 15, h.ServoMin)
	assert.Equal(t, 120, h.ServoMax)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
signal:
  window_size: 100

activation:
  threshold: 0.08
  confirm: 250ms
  release: 500ms

grip:
  closed_angle: 110
  contact: 300
  max_force: 2500
  slip_margin: 5

actuator:
  backend: feetech
  feetech:
    port: /dev/ttyACM1
    id: 6

serial:
  port: "/dev/ttyACM0"

mqtt:
  broker: tcp://localhost:1883
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Signal.WindowSize)
	assert.Equal(t, float32(0.08), cfg.Activation.Threshold)
	assert.Equal(t, 250*time.Millisecond, cfg.Activation.Confirm)
	assert.Equal(t, 500*time.Millisecond, cfg.Activation.Release)
	assert.Equal(t, 110, cfg.Grip.ClosedAngle)
	assert.Equal(t, 300, cfg.Grip.Contact)
	assert.Equal(t, 2500, cfg.Grip.MaxForce)
	assert.Equal(t, 5, cfg.Grip.SlipMargin)
	assert.Equal(t, "feetech", cfg.Actuator.Backend)
	assert.Equal(t, "/dev/ttyACM1", cfg.Actuator.Feetech.Port)
	assert.Equal(t, 1_000_000, cfg.Actuator.Feetech.BaudRate) // default
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "gripmate/control", cfg.MQTT.ControlTopic) // default

	h := cfg.Hand()
	assert.Equal(t, 100, h.Signal.WindowSize)
	assert.Equal(t, 110, h.Grip.ClosedAngle)
	assert.Equal(t, 250*time.Millisecond, h.Activation.Confirm)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_ZeroThresholdKept(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("activation:\n  threshold: 0\n")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Zero(t, cfg.Activation.Threshold)
	assert.Equal(t, 300*time.Millisecond, cfg.Activation.Confirm)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB1"
	cfg.Grip.SlipMargin = 15
	cfg.Activation.Threshold = 0.07

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
