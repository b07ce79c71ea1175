package device

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/itohio/gripmate/pkg/clock"
	"github.com/itohio/gripmate/pkg/config"
	"github.com/itohio/gripmate/pkg/hand"
	"github.com/itohio/gripmate/pkg/mailbox"
	"github.com/itohio/gripmate/pkg/telemetry"
)

// mockYield paces the simulated control loop.
const mockYield = 200 * time.Microsecond

// Mock runs a complete controller in-process against a Simulator.
type Mock struct {
	cfg  *config.Config
	seed uint64

	frames    chan telemetry.Frame
	logs      chan string
	commands  *hand.Queue
	mu        sync.RWMutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	connected bool
	sim       *Simulator
}

// NewMock creates a simulated device. A nil cfg uses config.Default().
// A zero seed picks a random one.
func NewMock(cfg *config.Config, seed uint64) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}
	if seed == 0 {
		seed = simulationSeed()
	}

	return &Mock{
		cfg:      cfg,
		seed:     seed,
		frames:   make(chan telemetry.Frame, DefaultBufferSize),
		logs:     make(chan string, logBufferSize),
		commands: hand.NewQueue(16),
	}
}

// Connect starts the sampler and the control loop.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	clk := clock.NewMonotonic()
	m.sim = NewSimulator(m.cfg.Sim, clk, m.seed)

	box := &mailbox.Mailbox{}
	sampler := mailbox.NewSampler(m.sim.EMG(), box, m.cfg.Signal.SamplePeriod)

	hcfg := m.cfg.Hand()
	hcfg.Yield = mockYield
	ctl := hand.New(hcfg, hand.Hardware{
		Samples: box,
		Force:   m.sim.Force(),
		Servo:   m.sim,
	},
		hand.WithClock(clk),
		hand.WithCommands(m.commands),
		hand.WithConsole(&lineWriter{push: m.pushLog}),
		hand.WithTelemetry(telemetry.SinkFunc(m.pushFrame)),
	)
	ctl.PrintBanner()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.connected = true

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		sampler.Run(ctx)
	}()
	go func() {
		defer m.wg.Done()
		ctl.Run(ctx)
	}()

	return nil
}

// Close stops the simulation and closes the channels.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.cancel()
	m.connected = false
	m.mu.Unlock()

	m.wg.Wait()
	close(m.frames)
	close(m.logs)

	return nil
}

// Frames returns the channel of telemetry frames.
func (m *Mock) Frames() <-chan telemetry.Frame {
	return m.frames
}

// Logs returns the channel of console lines.
func (m *Mock) Logs() <-chan string {
	return m.logs
}

// Send queues a command for the control loop.
func (m *Mock) Send(cmd byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return ErrNotConnected
	}
	if !m.commands.Send(cmd) {
		return fmt.Errorf("command queue full, dropped %q", cmd)
	}
	return nil
}

// IsConnected returns whether the simulation is running.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Simulator returns the running simulator, or nil before Connect.
func (m *Mock) Simulator() *Simulator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sim
}

func (m *Mock) pushFrame(f telemetry.Frame) {
	f.Timestamp = time.Now()
	select {
	case m.frames <- f:
	default:
	}
}

func (m *Mock) pushLog(line string) {
	select {
	case m.logs <- line:
	default:
	}
}

// lineWriter splits console output into lines.
type lineWriter struct {
	buf  []byte
	push func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		if line := string(bytes.TrimSpace(w.buf[:i])); line != "" {
			w.push(line)
		}
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}
