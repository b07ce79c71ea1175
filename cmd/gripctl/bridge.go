package main

import (
	"log"

	"github.com/itohio/gripmate/pkg/remote"
)

type BridgeCommand struct {
	DeviceOptions
	Broker string `long:"broker" description:"MQTT broker URL (overrides config)"`
}

func (c *BridgeCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.Broker != "" {
		cfg.MQTT.Broker = c.Broker
	}

	dev, err := c.open(cfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		for line := range dev.Logs() {
			log.Printf("controller: %s", line)
		}
	}()

	return remote.NewBridge(cfg.MQTT, dev).Run(ctx)
}
