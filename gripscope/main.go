package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gripmate/pkg/config"
	"github.com/itohio/gripmate/pkg/device"
	"github.com/itohio/gripmate/pkg/meter"
	"github.com/itohio/gripmate/pkg/sample"
	"github.com/itohio/gripmate/pkg/scope"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use simulated controller instead of serial port")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of frames to average (0 = disabled, overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *averageSamplesFlag >= 0 {
		cfg.Scope.AverageSamples = *averageSamplesFlag
	}

	application := app.NewWithID("com.itohio.gripmate")

	window := application.NewWindow("Grip Scope")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		gripMeter:  meter.New(cfg.Scope.Window, sample.ForceFraction(cfg.Grip.Contact)),
		window:     window,
		useMock:    *mockFlag,
	}

	toolbar := createToolbar(state)

	state.scopeWidget = scope.New(cfg.Scope.Window)
	state.console = newConsole()

	content := container.NewBorder(
		toolbar,
		state.console.object(),
		nil,
		nil,
		state.scopeWidget,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		closeChain(state.chain)
	})
	window.ShowAndRun()
}

// chain tracks the components of the telemetry chain for graceful shutdown.
type chain struct {
	device    device.Device
	samples   <-chan sample.Sample
	meterDone chan struct{} // Closed when the meter goroutine exits
	logsDone  chan struct{} // Closed when the log goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	configPath  string
	device      device.Device
	gripMeter   *meter.Meter
	scopeWidget *scope.ScopeWidget
	console     *console
	window      fyne.Window
	connectBtn  *widget.Button
	commandBtns []*widget.Button
	useMock     bool
	chain       *chain

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the toolbar with Connect and Settings on the left and
// the operator command buttons on the right.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	state.commandBtns = createCommandButtons(state)
	right := container.NewHBox()
	for _, btn := range state.commandBtns {
		right.Add(btn)
	}

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn),
		right,
		nil,
	)
}

// closeChain gracefully closes the telemetry chain.
// Waits for all goroutines to finish and channels to drain.
func closeChain(c *chain) {
	if c == nil {
		return
	}

	// Closing the device closes its frame and log channels.
	if c.device != nil {
		c.device.Close()
	}

	if c.logsDone != nil {
		<-c.logsDone
	}
	// The meter goroutine exits once the converters drain.
	if c.meterDone != nil {
		<-c.meterDone
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		closeChain(state.chain)
		state.chain = nil
		state.device = nil
		setCommandsEnabled(state, false)
		if state.useMock {
			fmt.Println("Disconnected from simulated controller")
		} else {
			fmt.Println("Disconnected from serial port")
		}
		return
	}

	var dev device.Device
	if state.useMock {
		dev = device.NewMock(state.cfg, 0)
		fmt.Println("Using simulated controller")
	} else {
		dev = device.New(state.cfg.Serial.Port, state.cfg.Serial.Baud, device.DefaultBufferSize)
	}

	if err := dev.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to start simulated controller: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = dev
	if !state.useMock {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}

	setCommandsEnabled(state, true)

	state.gripMeter.ResetShutdown()

	// Throttle updates to ~60 FPS.
	const updateInterval = 16 * time.Millisecond
	state.gripMeter.OnUpdate(func(samples []sample.Sample, episodes []meter.Episode) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		fyne.Do(func() {
			state.scopeWidget.UpdateData(samples, episodes)
		})
	})

	var convert sample.Converter
	if state.cfg.Scope.AverageSamples > 0 {
		convert = sample.NewAveragingConverter(state.cfg.Scope.AverageSamples, 500, state.cfg.Telemetry.Interval)
	} else {
		convert = sample.NewConverter(500)
	}
	samples := convert(dev.Frames())

	meterDone := make(chan struct{})
	go func() {
		defer close(meterDone)
		state.gripMeter.ProcessSamples(samples)
	}()

	logsDone := make(chan struct{})
	go func() {
		defer close(logsDone)
		for line := range dev.Logs() {
			fyne.Do(func() {
				state.console.append(line)
			})
		}
	}()

	state.chain = &chain{
		device:    dev,
		samples:   samples,
		meterDone: meterDone,
		logsDone:  logsDone,
	}
}
