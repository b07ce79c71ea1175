package device

import "github.com/itohio/gripmate/pkg/telemetry"

// Device defines the interface for grip controllers (real or simulated).
type Device interface {
	Connect() error
	Close() error
	Frames() <-chan telemetry.Frame
	Logs() <-chan string
	Send(cmd byte) error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
