// Package remote relays operator commands and telemetry between an MQTT
// broker and a grip device.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/itohio/gripmate/pkg/config"
	"github.com/itohio/gripmate/pkg/device"
	"github.com/itohio/gripmate/pkg/telemetry"
)

const (
	publishInterval = 100 * time.Millisecond
	disconnectQuiet = 250 // ms
)

// Bridge subscribes to the control topic and forwards single-byte commands to
// a device, and publishes the device's frames to the telemetry topic.
type Bridge struct {
	cfg    config.MQTTConfig
	dev    device.Device
	client mqtt.Client

	// Frames are throttled to one per interval; zero publishes all.
	interval time.Duration
	last     time.Time
}

// NewBridge creates a bridge for dev. The device must already be connected.
func NewBridge(cfg config.MQTTConfig, dev device.Device) *Bridge {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	return &Bridge{
		cfg:      cfg,
		dev:      dev,
		client:   mqtt.NewClient(opts),
		interval: publishInterval,
	}
}

// Run connects to the broker and relays until ctx is cancelled or the device
// frames channel closes.
func (b *Bridge) Run(ctx context.Context) error {
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", b.cfg.Broker, token.Error())
	}
	defer b.client.Disconnect(disconnectQuiet)
	log.Printf("remote: connected to MQTT broker at %s", b.cfg.Broker)

	token := b.client.Subscribe(b.cfg.ControlTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		b.HandleControl(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", b.cfg.ControlTopic, token.Error())
	}
	log.Printf("remote: subscribed to %s", b.cfg.ControlTopic)

	frames := b.dev.Frames()
	for {
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			b.publish(f)
		}
	}
}

// HandleControl forwards a control payload to the device. Only payloads that
// are a single command byte (surrounding whitespace ignored) are accepted.
func (b *Bridge) HandleControl(payload []byte) bool {
	cmd, ok := parseCommand(payload)
	if !ok {
		log.Printf("remote: ignoring control payload %q", payload)
		return false
	}
	if err := b.dev.Send(cmd); err != nil {
		log.Printf("remote: send %q: %v", cmd, err)
		return false
	}
	return true
}

func (b *Bridge) publish(f telemetry.Frame) {
	if b.interval > 0 && !b.last.IsZero() && f.Timestamp.Sub(b.last) < b.interval {
		return
	}
	b.last = f.Timestamp

	payload, err := json.Marshal(f)
	if err != nil {
		log.Printf("remote: marshal frame: %v", err)
		return
	}
	b.client.Publish(b.cfg.TelemetryTopic, 0, false, payload)
}

func parseCommand(payload []byte) (byte, bool) {
	s := strings.TrimSpace(string(payload))
	if len(s) != 1 {
		return 0, false
	}
	return s[0], true
}
