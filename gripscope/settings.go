package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gripmate/pkg/device"
	"github.com/itohio/gripmate/pkg/meter"
	"github.com/itohio/gripmate/pkg/sample"
	"github.com/itohio/gripmate/pkg/scope"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createActivationTab(state),
		createGripTab(state),
		createScopeTab(state),
		createSimTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

func saveConfig(state *appState) {
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

// reconnect restarts the chain if a device is connected so new settings apply.
func reconnect(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}
	handleConnect(state) // disconnect
	handleConnect(state) // connect
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := device.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.Baud))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud", Widget: baudEntry},
		},
		OnSubmit: func() {
			changed := false
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected
				}
				changed = state.cfg.Serial.Port != selectedPort
				state.cfg.Serial.Port = selectedPort
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				changed = changed || state.cfg.Serial.Baud != baud
				state.cfg.Serial.Baud = baud
			}
			saveConfig(state)

			if changed && !state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createActivationTab creates the muscle activation tab. The values are used
// by the simulated controller; a real controller keeps its own and is tuned
// with the +/- buttons.
func createActivationTab(state *appState) *container.TabItem {
	thresholdEntry := widget.NewEntry()
	thresholdEntry.SetText(fmt.Sprintf("%.4f", state.cfg.Activation.Threshold))

	confirmEntry := widget.NewEntry()
	confirmEntry.SetText(state.cfg.Activation.Confirm.String())

	releaseEntry := widget.NewEntry()
	releaseEntry.SetText(state.cfg.Activation.Release.String())

	stepEntry := widget.NewEntry()
	stepEntry.SetText(fmt.Sprintf("%.4f", state.cfg.Activation.ThresholdStep))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Threshold (V)", Widget: thresholdEntry},
			{Text: "Confirm", Widget: confirmEntry},
			{Text: "Release", Widget: releaseEntry},
			{Text: "Threshold Step (V)", Widget: stepEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(thresholdEntry.Text, 32); err == nil {
				state.cfg.Activation.Threshold = float32(v)
			}
			if d, err := time.ParseDuration(confirmEntry.Text); err == nil {
				state.cfg.Activation.Confirm = d
			}
			if d, err := time.ParseDuration(releaseEntry.Text); err == nil {
				state.cfg.Activation.Release = d
			}
			if v, err := strconv.ParseFloat(stepEntry.Text, 32); err == nil {
				state.cfg.Activation.ThresholdStep = float32(v)
			}
			saveConfig(state)
			if state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Activation", form)
}

// createGripTab creates the grip controller tab.
func createGripTab(state *appState) *container.TabItem {
	closedEntry := widget.NewEntry()
	closedEntry.SetText(strconv.Itoa(state.cfg.Grip.ClosedAngle))

	contactEntry := widget.NewEntry()
	contactEntry.SetText(strconv.Itoa(state.cfg.Grip.Contact))

	maxForceEntry := widget.NewEntry()
	maxForceEntry.SetText(strconv.Itoa(state.cfg.Grip.MaxForce))

	slipEntry := widget.NewEntry()
	slipEntry.SetText(strconv.Itoa(state.cfg.Grip.SlipMargin))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Closed Angle (deg)", Widget: closedEntry},
			{Text: "Contact (ADC)", Widget: contactEntry},
			{Text: "Max Force (ADC)", Widget: maxForceEntry},
			{Text: "Slip Margin (ADC)", Widget: slipEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.Atoi(closedEntry.Text); err == nil {
				state.cfg.Grip.ClosedAngle = v
			}
			if v, err := strconv.Atoi(contactEntry.Text); err == nil {
				state.cfg.Grip.Contact = v
			}
			if v, err := strconv.Atoi(maxForceEntry.Text); err == nil {
				state.cfg.Grip.MaxForce = v
			}
			if v, err := strconv.Atoi(slipEntry.Text); err == nil {
				state.cfg.Grip.SlipMargin = v
			}
			saveConfig(state)
			rebuildMeter(state)
		},
	}

	return container.NewTabItem("Grip", form)
}

// createScopeTab creates the scope tab.
func createScopeTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(state.cfg.Scope.Window.String())

	averageEntry := widget.NewEntry()
	averageEntry.SetText(strconv.Itoa(state.cfg.Scope.AverageSamples))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window", Widget: windowEntry},
			{Text: "Average Samples (0=disabled)", Widget: averageEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(windowEntry.Text); err == nil && d > 0 {
				state.cfg.Scope.Window = d
			}
			if v, err := strconv.Atoi(averageEntry.Text); err == nil && v >= 0 {
				state.cfg.Scope.AverageSamples = v
			}
			saveConfig(state)
			rebuildMeter(state)
		},
	}

	return container.NewTabItem("Scope", form)
}

// createSimTab creates the simulated controller tab.
func createSimTab(state *appState) *container.TabItem {
	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Sim.Noise))

	burstEntry := widget.NewEntry()
	burstEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Sim.Burst))

	holdEntry := widget.NewEntry()
	holdEntry.SetText(state.cfg.Sim.Hold.String())

	restEntry := widget.NewEntry()
	restEntry.SetText(state.cfg.Sim.Rest.String())

	objectEntry := widget.NewEntry()
	objectEntry.SetText(strconv.Itoa(state.cfg.Sim.ObjectAt))

	stiffnessEntry := widget.NewEntry()
	stiffnessEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Sim.Stiffness))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "EMG Noise (ADC)", Widget: noiseEntry},
			{Text: "EMG Burst (ADC)", Widget: burstEntry},
			{Text: "Flex Duration", Widget: holdEntry},
			{Text: "Rest Duration", Widget: restEntry},
			{Text: "Object At (deg, 0=none)", Widget: objectEntry},
			{Text: "Stiffness (ADC/deg)", Widget: stiffnessEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
				state.cfg.Sim.Noise = v
			}
			if v, err := strconv.ParseFloat(burstEntry.Text, 64); err == nil {
				state.cfg.Sim.Burst = v
			}
			if d, err := time.ParseDuration(holdEntry.Text); err == nil {
				state.cfg.Sim.Hold = d
			}
			if d, err := time.ParseDuration(restEntry.Text); err == nil {
				state.cfg.Sim.Rest = d
			}
			if v, err := strconv.Atoi(objectEntry.Text); err == nil {
				state.cfg.Sim.ObjectAt = v
			}
			if v, err := strconv.ParseFloat(stiffnessEntry.Text, 64); err == nil {
				state.cfg.Sim.Stiffness = v
			}
			saveConfig(state)
			if state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Simulator", form)
}

// rebuildMeter replaces the meter and scope so a new window or contact level
// takes effect, reconnecting if needed.
func rebuildMeter(state *appState) {
	connected := state.device != nil && state.device.IsConnected()
	if connected {
		handleConnect(state) // disconnect
	}

	state.gripMeter = meter.New(state.cfg.Scope.Window, sample.ForceFraction(state.cfg.Grip.Contact))
	sw := scope.New(state.cfg.Scope.Window)
	state.scopeWidget = sw
	state.window.SetContent(container.NewBorder(
		createToolbar(state),
		state.console.object(),
		nil,
		nil,
		sw,
	))

	if connected {
		handleConnect(state)
	}
}
