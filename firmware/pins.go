//go:build tinygo

package main

import "machine"

const (
	// Analog inputs
	PIN_EMG = machine.A0
	PIN_FSR = machine.A1

	// Servo output
	PIN_SERVO = machine.D2

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// Servo pulse range for 0-180 degrees
	SERVO_MIN_US    = 500
	SERVO_MAX_US    = 2400
	SERVO_MAX_ANGLE = 180

	// Telemetry is about 110 bytes per frame at 50 frames/s plus
	// transition lines, well inside 115200 baud.
	UART_BAUD_RATE = 115200
)

// SERVO_PWM is the timer that drives PIN_SERVO.
var SERVO_PWM = machine.TCC0
