// Package device connects host tools to a grip controller: the firmware over
// a serial port, or an in-process simulation.
package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/itohio/gripmate/pkg/telemetry"
)

const (
	// DefaultBaudRate is the firmware console baud rate.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the frames channel buffer.
	DefaultBufferSize = 100
	// logBufferSize is the size of the console log channel buffer.
	logBufferSize = 64
)

// ErrNotConnected is returned when sending to a closed device.
var ErrNotConnected = errors.New("not connected")

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial is a connection to the grip firmware console.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	frames    chan telemetry.Frame
	logs      chan string
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	wg        sync.WaitGroup
}

// New creates a new Serial device with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		frames:   make(chan telemetry.Frame, bufSize),
		logs:     make(chan string, logBufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port and starts decoding the console stream.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.readLines(port)
	}()

	return nil
}

// Close closes the port, waits for the reader and closes the channels.
func (d *Serial) Close() error {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	d.cancel()
	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("device: error closing serial port: %v", err)
		}
		d.conn = nil
	}
	d.connected = false
	d.mu.Unlock()

	d.wg.Wait()
	close(d.frames)
	close(d.logs)

	return nil
}

// Frames returns the channel of decoded telemetry frames.
func (d *Serial) Frames() <-chan telemetry.Frame {
	return d.frames
}

// Logs returns the channel of console lines that are not telemetry.
func (d *Serial) Logs() <-chan string {
	return d.logs
}

// Send writes a single command byte.
func (d *Serial) Send(cmd byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return ErrNotConnected
	}

	if _, err := d.conn.Write([]byte{cmd}); err != nil {
		return fmt.Errorf("failed to send command %q: %w", cmd, err)
	}

	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readLines decodes console lines from r until EOF or cancellation.
func (d *Serial) readLines(r io.Reader) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("device: panic in readLines: %v", r)
		}
	}()

	var dec telemetry.Decoder
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if d.ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		frame, ok, err := dec.Decode(line)
		switch {
		case errors.Is(err, telemetry.ErrNotTelemetry):
			d.pushLog(line)
		case err != nil:
			log.Printf("device: failed to parse line %q: %v", line, err)
		case ok:
			frame.Timestamp = time.Now()
			d.pushFrame(frame)
		}
	}

	if err := scanner.Err(); err != nil && d.ctx.Err() == nil {
		log.Printf("device: error reading from serial port: %v", err)
	}
}

func (d *Serial) pushFrame(f telemetry.Frame) {
	select {
	case d.frames <- f:
	case <-d.ctx.Done():
	default:
		log.Printf("device: frames channel full, dropping frame")
	}
}

func (d *Serial) pushLog(line string) {
	select {
	case d.logs <- line:
	default:
	}
}
