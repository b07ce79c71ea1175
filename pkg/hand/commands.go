package hand

import (
	"context"
	"io"
	"sort"
)

// CommandSource delivers single-byte operator commands. Poll never blocks.
type CommandSource interface {
	Poll() (byte, bool)
}

// NoCommands is a source that never has a command.
type NoCommands struct{}

// Poll implements CommandSource.
func (NoCommands) Poll() (byte, bool) { return 0, false }

// Queue is a buffered CommandSource fed from other goroutines.
type Queue struct {
	ch chan byte
}

// NewQueue creates a queue holding up to size pending commands.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 16
	}
	return &Queue{ch: make(chan byte, size)}
}

// Send enqueues b, dropping it if the queue is full.
func (q *Queue) Send(b byte) bool {
	select {
	case q.ch <- b:
		return true
	default:
		return false
	}
}

// Poll implements CommandSource.
func (q *Queue) Poll() (byte, bool) {
	select {
	case b := <-q.ch:
		return b, true
	default:
		return 0, false
	}
}

// Pump copies bytes from r into q until r fails or ctx is cancelled. Line
// endings and spaces are skipped.
func (q *Queue) Pump(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			switch b {
			case '\r', '\n', ' ', '\t':
				continue
			}
			q.Send(b)
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Command is an operator console command.
type Command struct {
	Flag        byte
	Run         func(*Controller)
	Description string
}

var (
	ForceOpenCommand = &Command{
		Flag: 'o',
		Run: func(c *Controller) {
			c.println(c.machine.ForceOpen(c.clock.Now()).String())
		},
		Description: "force open",
	}
	StatusCommand = &Command{
		Flag: 't',
		Run: func(c *Controller) {
			c.printStatus()
		},
		Description: "print values",
	}
	RaiseThresholdCommand = &Command{
		Flag: '+',
		Run: func(c *Controller) {
			c.printf("Threshold -> %.4f\n", c.detector.Raise())
		},
		Description: "raise threshold",
	}
	LowerThresholdCommand = &Command{
		Flag: '-',
		Run: func(c *Controller) {
			c.printf("Threshold -> %.4f\n", c.detector.Lower())
		},
		Description: "lower threshold",
	}
	HelpCommand = &Command{
		Flag: 'h',
		Run: func(c *Controller) {
			c.printHelp()
		},
		Description: "list commands",
	}
)

// Commands lists every console command.
var Commands = []*Command{
	ForceOpenCommand,
	StatusCommand,
	RaiseThresholdCommand,
	LowerThresholdCommand,
	HelpCommand,
}

func commandTable() map[byte]*Command {
	m := make(map[byte]*Command, len(Commands))
	for _, cmd := range Commands {
		m[cmd.Flag] = cmd
	}
	return m
}

// Execute runs the command for b. Unknown bytes are ignored.
func (c *Controller) Execute(b byte) bool {
	cmd, ok := c.table[b]
	if !ok {
		return false
	}
	cmd.Run(c)
	return true
}

func (c *Controller) printStatus() {
	f := c.Frame()
	muscle := 0
	if f.Active {
		muscle = 1
	}
	c.printf("RMS:%.4f  Thresh:%.4f  Muscle:%d  FSR:%d  Angle:%d  State:%d\n",
		f.Envelope, f.Threshold, muscle, f.ForceSmoothed, f.Angle, f.State)
}

func (c *Controller) printHelp() {
	cmds := make([]*Command, 0, len(c.table))
	for _, cmd := range c.table {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Flag < cmds[j].Flag })
	for _, cmd := range cmds {
		c.printf("  %c  %s\n", cmd.Flag, cmd.Description)
	}
}
