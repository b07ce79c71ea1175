package telemetry

import (
	"fmt"
	"io"
	"log"
)

// Encoder writes frames as Teleplot ">name:value" lines.
type Encoder struct {
	w   io.Writer
	buf []byte
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, buf: make([]byte, 0, 160)}
}

// Encode writes one frame in a single Write call.
func (e *Encoder) Encode(f Frame) error {
	e.buf = AppendTeleplot(e.buf[:0], f)
	if _, err := e.w.Write(e.buf); err != nil {
		return fmt.Errorf("write telemetry: %w", err)
	}
	return nil
}

// Emit implements Sink, logging write errors.
func (e *Encoder) Emit(f Frame) {
	if err := e.Encode(f); err != nil {
		log.Printf("telemetry: %v", err)
	}
}

// AppendTeleplot appends the Teleplot lines for f to b.
func AppendTeleplot(b []byte, f Frame) []byte {
	muscle := float32(0)
	if f.Active {
		muscle = 1
	}
	b = fmt.Appendf(b, ">rms:%.4f\n", f.Envelope)
	b = fmt.Appendf(b, ">threshold:%.4f\n", f.Threshold)
	b = fmt.Appendf(b, ">muscle:%.1f\n", muscle)
	b = fmt.Appendf(b, ">fsrRaw:%.1f\n", float32(f.ForceRaw))
	b = fmt.Appendf(b, ">fsrSmooth:%.1f\n", float32(f.ForceSmoothed))
	b = fmt.Appendf(b, ">angle:%.1f\n", float32(f.Angle))
	b = fmt.Appendf(b, ">state:%.1f\n", float32(f.State))
	return b
}
