package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotTelemetry is returned for console lines that are not Teleplot values,
// such as state transition messages.
var ErrNotTelemetry = errors.New("not a telemetry line")

// Decoder reassembles frames from Teleplot lines. A frame is complete when
// the "state" line arrives; fields not seen since the previous frame keep
// their previous values.
type Decoder struct {
	frame Frame
}

// Decode consumes one line and returns the frame if it is now complete.
func (d *Decoder) Decode(line string) (Frame, bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ">") {
		return Frame{}, false, ErrNotTelemetry
	}

	name, value, ok := strings.Cut(line[1:], ":")
	if !ok || !isName(name) {
		return Frame{}, false, ErrNotTelemetry
	}

	v, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return Frame{}, false, fmt.Errorf("parse %s value %q: %w", name, value, err)
	}

	switch name {
	case "rms":
		d.frame.Envelope = float32(v)
	case "threshold":
		d.frame.Threshold = float32(v)
	case "muscle":
		d.frame.Active = v >= 0.5
	case "fsrRaw":
		d.frame.ForceRaw = int(v)
	case "fsrSmooth":
		d.frame.ForceSmoothed = int(v)
	case "angle":
		d.frame.Angle = int(v)
	case "state":
		d.frame.State = int(v)
		return d.frame, true, nil
	}
	return Frame{}, false, nil
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}
