package main

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gripmate/pkg/hand"
)

// consoleLines is how many controller log lines stay visible.
const consoleLines = 6

// createCommandButtons creates one button per operator command except help,
// which only prints to the controller console.
func createCommandButtons(state *appState) []*widget.Button {
	var btns []*widget.Button
	for _, cmd := range hand.Commands {
		if cmd == hand.HelpCommand {
			continue
		}
		btn := widget.NewButton(commandLabel(cmd), func() {
			handleCommand(state, cmd.Flag)
		})
		btn.Disable()
		btns = append(btns, btn)
	}
	return btns
}

func commandLabel(cmd *hand.Command) string {
	return fmt.Sprintf("%c  %s", cmd.Flag, cmd.Description)
}

// handleCommand sends one command byte to the connected controller.
func handleCommand(state *appState, flag byte) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}
	if err := state.device.Send(flag); err != nil {
		dialog.ShowError(fmt.Errorf("failed to send command %q: %w", flag, err), state.window)
	}
}

func setCommandsEnabled(state *appState, enabled bool) {
	for _, btn := range state.commandBtns {
		if enabled {
			btn.Enable()
		} else {
			btn.Disable()
		}
	}
}

// console shows the most recent controller log lines below the scope.
type console struct {
	lines []string
	label *widget.Label
}

func newConsole() *console {
	l := widget.NewLabel("")
	l.TextStyle = fyne.TextStyle{Monospace: true}
	return &console{label: l}
}

func (c *console) object() fyne.CanvasObject {
	return c.label
}

// append must be called on the Fyne main thread.
func (c *console) append(line string) {
	c.lines = appendLine(c.lines, line, consoleLines)
	c.label.SetText(strings.Join(c.lines, "\n"))
}

// appendLine appends line and keeps at most n of the newest lines.
func appendLine(lines []string, line string, n int) []string {
	lines = append(lines, line)
	if len(lines) > n {
		lines = append(lines[:0], lines[len(lines)-n:]...)
	}
	return lines
}
