package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/itohio/gripmate/pkg/config"
	"github.com/itohio/gripmate/pkg/device"
)

type Options struct {
	Config string `short:"c" long:"config" default:"config.yaml" description:"Configuration file path"`

	Run     RunCommand     `command:"run" description:"Run the grip controller on this machine (ADS1115 + servo, or simulated)"`
	Monitor MonitorCommand `command:"monitor" description:"Plot live telemetry from a controller in the terminal"`
	Bridge  BridgeCommand  `command:"bridge" description:"Relay commands and telemetry between a controller and MQTT"`
	Serve   ServeCommand   `command:"serve" description:"Stream telemetry to websocket clients"`
	Ports   PortsCommand   `command:"ports" description:"List serial ports"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "gripctl - adaptive EMG grip controller tools"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", opts.Config, err)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// DeviceOptions selects the controller a host command talks to.
type DeviceOptions struct {
	Port string `short:"p" long:"port" description:"Serial port (overrides config)"`
	Baud int    `short:"b" long:"baud" description:"Baud rate (overrides config)"`
	Mock bool   `long:"mock" description:"Use a simulated controller"`
	Seed uint64 `long:"seed" description:"Simulator seed (0 = random)"`
}

// open creates and connects the selected device.
func (o DeviceOptions) open(cfg *config.Config) (device.Device, error) {
	var dev device.Device
	if o.Mock {
		dev = device.NewMock(cfg, o.Seed)
	} else {
		port := cfg.Serial.Port
		if o.Port != "" {
			port = o.Port
		}
		baud := cfg.Serial.Baud
		if o.Baud > 0 {
			baud = o.Baud
		}
		dev = device.New(port, baud, device.DefaultBufferSize)
	}

	if err := dev.Connect(); err != nil {
		return nil, err
	}
	return dev, nil
}
