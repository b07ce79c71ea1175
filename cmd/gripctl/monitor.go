package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/itohio/gripmate/pkg/device"
	"github.com/itohio/gripmate/pkg/grip"
	"github.com/itohio/gripmate/pkg/hand"
	"github.com/itohio/gripmate/pkg/mailbox"
	"github.com/itohio/gripmate/pkg/telemetry"
)

type MonitorCommand struct {
	DeviceOptions
	EMGRange float64 `long:"emg-range" default:"0.3" description:"Top of the envelope chart in volts"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log lines to show
	borderSize   = 2 // chart border

	maxAngle = 180.0
)

// Dataset names and colors
const (
	setEnvelope  = "rms"
	setThreshold = "threshold"
	setForce     = "force"
	setAngle     = "angle"
)

var setColors = map[string]string{
	setEnvelope:  "208", // orange
	setThreshold: "196", // red
	setForce:     "51",  // cyan
	setAngle:     "250", // grey
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
)

type monitorModel struct {
	dev      device.Device
	emg      *streamlinechart.Model
	grip     *streamlinechart.Model
	width    int
	height   int
	last     telemetry.Frame
	frames   int
	logs     []string
	quitting bool
}

// Messages from the device
type frameMsg telemetry.Frame
type logMsg string
type closedMsg struct{}

func waitForFrame(dev device.Device) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-dev.Frames()
		if !ok {
			return closedMsg{}
		}
		return frameMsg(f)
	}
}

func waitForLog(dev device.Device) tea.Cmd {
	return func() tea.Msg {
		l, ok := <-dev.Logs()
		if !ok {
			return closedMsg{}
		}
		return logMsg(l)
	}
}

func newChart(yMax float64, sets ...string) *streamlinechart.Model {
	chart := streamlinechart.New(80, 8,
		streamlinechart.WithYRange(0, yMax),
	)
	for _, name := range sets {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(setColors[name]))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}
	return &chart
}

func initialMonitorModel(dev device.Device, emgRange float64) monitorModel {
	return monitorModel{
		dev:  dev,
		emg:  newChart(emgRange, setEnvelope, setThreshold),
		grip: newChart(100, setForce, setAngle),
	}
}

func (m *monitorModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// chartSize splits the space left after header, legend and log box between
// the two charts.
func (m *monitorModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 8
	}
	width = max(m.width-borderSize-2, 40)
	height = max((m.height-headerHeight-legendHeight-footerHeight)/2-borderSize, 5)
	return width, height
}

func (m *monitorModel) resizeCharts() {
	w, h := m.chartSize()
	m.emg.Resize(w, h)
	m.grip.Resize(w, h)
}

// push adds one frame to both charts. Force and angle share a percent scale.
func (m *monitorModel) push(f telemetry.Frame) {
	m.emg.PushDataSet(setEnvelope, float64(f.Envelope))
	m.emg.PushDataSet(setThreshold, float64(f.Threshold))
	m.grip.PushDataSet(setForce, percent(float64(f.ForceSmoothed), mailbox.MaxRaw))
	m.grip.PushDataSet(setAngle, percent(float64(f.Angle), maxAngle))
	m.emg.DrawAll()
	m.grip.DrawAll()
	m.last = f
	m.frames++
}

func percent(v, full float64) float64 {
	return min(max(v/full*100, 0), 100)
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		waitForFrame(m.dev),
		waitForLog(m.dev),
	)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeCharts()
		return m, nil

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		default:
			if cmd := commandForKey(key); cmd != nil {
				if err := m.dev.Send(cmd.Flag); err != nil {
					m.addLog(fmt.Sprintf("send %c: %v", cmd.Flag, err))
				}
			}
		}

	case frameMsg:
		m.push(telemetry.Frame(msg))
		return m, waitForFrame(m.dev)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.dev)

	case closedMsg:
		m.addLog("connection closed")
		return m, nil
	}

	return m, nil
}

// commandForKey maps a key press to a controller command.
func commandForKey(key string) *hand.Command {
	if len(key) != 1 {
		return nil
	}
	for _, cmd := range hand.Commands {
		if cmd.Flag == key[0] {
			return cmd
		}
	}
	return nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Monitor stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Grip Monitor"))
	sb.WriteString("  ")
	sb.WriteString(m.status())
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.emg.View()))
	sb.WriteString("\n")
	sb.WriteString(chartStyle.Render(m.grip.View()))
	sb.WriteString("\n")

	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render(helpLine())
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m monitorModel) status() string {
	if m.frames == 0 {
		return statusStyle.Render("waiting for telemetry...")
	}
	state := grip.Kind(m.last.State).String()
	if m.last.Active {
		state += " " + activeStyle.Render("ACTIVE")
	}
	return state + statusStyle.Render(fmt.Sprintf("  rms %.4f  thr %.4f  fsr %d  angle %d",
		m.last.Envelope, m.last.Threshold, m.last.ForceSmoothed, m.last.Angle))
}

func renderLegend() string {
	var items []string
	for _, name := range []string{setEnvelope, setThreshold, setForce, setAngle} {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(setColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+name)
	}
	return strings.Join(items, "  ")
}

func helpLine() string {
	var items []string
	for _, cmd := range hand.Commands {
		items = append(items, fmt.Sprintf("%c %s", cmd.Flag, cmd.Description))
	}
	return strings.Join(append(items, "q quit"), " | ")
}

func (c *MonitorCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dev, err := c.open(cfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	p := tea.NewProgram(initialMonitorModel(dev, c.EMGRange), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	return nil
}
