//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"context"
	"machine"

	"tinygo.org/x/drivers/servo"

	"github.com/itohio/gripmate/pkg/hand"
	"github.com/itohio/gripmate/pkg/mailbox"
	"github.com/itohio/gripmate/pkg/telemetry"
)

var uart = machine.UART0

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}
	emgIn := newInput(PIN_EMG, adcConfig)
	fsrIn := newInput(PIN_FSR, adcConfig)

	s, err := servo.New(SERVO_PWM, PIN_SERVO)
	if err != nil {
		for {
			println("error creating servo:", err.Error())
			sleep()
		}
	}

	samples := &mailbox.Mailbox{}
	sampler := mailbox.NewSampler(emgIn, samples, mailbox.DefaultPeriod)
	go sampler.Run(context.Background())

	ctrl := hand.New(hand.DefaultConfig(), hand.Hardware{
		Samples: samples,
		Force:   fsrIn,
		Servo:   jaw{s},
	},
		hand.WithCommands(uartCommands{uart}),
		hand.WithConsole(uart),
		hand.WithTelemetry(telemetry.NewEncoder(uart)),
	)

	ctrl.PrintBanner()
	ctrl.Run(context.Background())
}
