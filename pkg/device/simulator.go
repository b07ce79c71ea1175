package device

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/itohio/gripmate/pkg/clock"
	"github.com/itohio/gripmate/pkg/config"
	"github.com/itohio/gripmate/pkg/mailbox"
)

const midScale = 2048

// Simulator produces synthetic EMG and force readings. The subject flexes for
// cfg.Hold and relaxes for cfg.Rest, repeatedly; the force sensor responds to
// the jaw angle it is given through SetAngle.
type Simulator struct {
	cfg   config.SimConfig
	clock clock.Clock

	mu       sync.Mutex
	angle    int
	override *bool

	emgRand   *rand.Rand
	forceRand *rand.Rand
}

// NewSimulator creates a simulator. seed makes the noise reproducible.
func NewSimulator(cfg config.SimConfig, clk clock.Clock, seed uint64) *Simulator {
	return &Simulator{
		cfg:       cfg,
		clock:     clk,
		emgRand:   rand.New(rand.NewPCG(seed, 1)),
		forceRand: rand.New(rand.NewPCG(seed, 2)),
	}
}

// Flexing reports whether the simulated muscle is contracted now.
func (s *Simulator) Flexing() bool {
	s.mu.Lock()
	override := s.override
	s.mu.Unlock()
	if override != nil {
		return *override
	}

	period := s.cfg.Hold + s.cfg.Rest
	if period <= 0 {
		return false
	}
	return s.clock.Now()%period < s.cfg.Hold
}

// Hold forces the muscle state, disabling the automatic cycle.
func (s *Simulator) Hold(flex bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = &flex
}

// Cycle restores the automatic flex/relax cycle.
func (s *Simulator) Cycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = nil
}

// EMG returns the muscle channel. Only the sampler goroutine may read it.
func (s *Simulator) EMG() mailbox.Channel {
	return mailbox.ChannelFunc(func() uint16 {
		v := midScale + s.cfg.Noise*(2*s.emgRand.Float64()-1)
		if s.Flexing() {
			v += s.cfg.Burst * s.emgRand.NormFloat64()
		}
		return clampRaw(v)
	})
}

// Force returns the force channel. Only the control goroutine may read it.
func (s *Simulator) Force() mailbox.Channel {
	return mailbox.ChannelFunc(func() uint16 {
		s.mu.Lock()
		angle := s.angle
		s.mu.Unlock()

		v := s.cfg.ForceNoise * s.forceRand.Float64()
		if s.cfg.ObjectAt > 0 && angle >= s.cfg.ObjectAt {
			v += float64(angle-s.cfg.ObjectAt+1) * s.cfg.Stiffness
		}
		return clampRaw(v)
	})
}

// SetAngle implements actuator.Servo so the force model follows the jaw.
func (s *Simulator) SetAngle(angle int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.angle = angle
	return nil
}

// Angle returns the last commanded jaw angle.
func (s *Simulator) Angle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angle
}

func clampRaw(v float64) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= mailbox.MaxRaw {
		return mailbox.MaxRaw
	}
	return uint16(v)
}

// simulationSeed is used when a reproducible run is not requested.
func simulationSeed() uint64 {
	return uint64(time.Now().UnixNano())
}
