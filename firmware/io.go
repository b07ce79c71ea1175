//go:build tinygo

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/servo"
)

// input reads one analog pin scaled down to 12 bits.
type input struct {
	adc machine.ADC
}

func newInput(pin machine.Pin, cfg machine.ADCConfig) input {
	pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	in := input{adc: machine.ADC{Pin: pin}}
	in.adc.Configure(cfg)
	return in
}

// Read implements mailbox.Channel. machine.ADC always returns 16-bit values.
func (in input) Read() uint16 {
	return in.adc.Get() >> 4
}

// jaw drives the servo with the wider pulse range the gripper was tuned for.
type jaw struct {
	s servo.Servo
}

// SetAngle implements actuator.Servo.
func (j jaw) SetAngle(angle int) error {
	angle = min(max(angle, 0), SERVO_MAX_ANGLE)
	us := SERVO_MIN_US + angle*(SERVO_MAX_US-SERVO_MIN_US)/SERVO_MAX_ANGLE
	j.s.SetMicroseconds(int16(us))
	return nil
}

// uartCommands polls the UART for one command byte per loop iteration,
// skipping line endings and blanks.
type uartCommands struct {
	uart *machine.UART
}

// Poll implements hand.CommandSource.
func (u uartCommands) Poll() (byte, bool) {
	for u.uart.Buffered() > 0 {
		b, err := u.uart.ReadByte()
		if err != nil {
			return 0, false
		}
		switch b {
		case '\r', '\n', ' ', '\t':
			continue
		}
		return b, true
	}
	return 0, false
}

func sleep() {
	time.Sleep(time.Second)
}
