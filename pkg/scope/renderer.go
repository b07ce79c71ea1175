package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/gripmate/pkg/meter"
	"github.com/itohio/gripmate/pkg/sample"
)

var (
	colorGrid      = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	colorLabel     = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	colorEnvelope  = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	colorThreshold = color.RGBA{R: 220, G: 60, B: 60, A: 255}
	colorActive    = color.RGBA{R: 80, G: 200, B: 80, A: 255}
	colorForce     = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	colorAngle     = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	colorEpisode   = color.RGBA{R: 0, G: 100, B: 200, A: 60}
)

// plot is the pixel rectangle of one panel.
type plot struct {
	x, y, w, h float32
}

// px maps a timestamp to a horizontal pixel position.
func (p plot) px(t, xMin, xMax time.Time) float32 {
	span := xMax.Sub(xMin).Seconds()
	if span <= 0 {
		return p.x
	}
	return p.x + float32(t.Sub(xMin).Seconds()/span)*p.w
}

// py maps a value in [0, top] to a vertical pixel position, clamped to the panel.
func (p plot) py(v, top float64) float32 {
	if top <= 0 {
		return p.y + p.h
	}
	f := min(max(v/top, 0), 1)
	return p.y + p.h - float32(f)*p.h
}

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	grid    *canvas.Rectangle
	objects []fyne.CanvasObject

	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	episodes := r.scope.episodes
	envMax := r.scope.envMax
	forceMax := r.scope.forceMax
	xMin := r.scope.xMin
	xMax := r.scope.xMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}

	const (
		marginLeft   = 60
		marginRight  = 50
		marginTop    = 20
		marginBottom = 40
		gap          = 20
	)
	width := size.Width - marginLeft - marginRight
	height := (size.Height - marginTop - marginBottom - gap) / 2
	emg := plot{x: marginLeft, y: marginTop, w: width, h: height}
	grip := plot{x: marginLeft, y: marginTop + height + gap, w: width, h: height}

	r.drawEpisodes(emg, grip, episodes, samples, xMin, xMax)

	r.drawGrid(emg, envMax, "%.3fV", xMin, xMax, false)
	r.drawGrid(grip, forceMax*100, "%.0f%%", xMin, xMax, true)
	r.drawAngleAxis(grip)

	r.drawActive(emg, samples, xMin, xMax)
	r.drawTrace(emg, samples, xMin, xMax, envMax, colorThreshold, 1, func(s sample.Sample) float64 { return s.Threshold })
	r.drawTrace(emg, samples, xMin, xMax, envMax, colorEnvelope, 1.5, func(s sample.Sample) float64 { return s.Envelope })
	r.drawTrace(grip, samples, xMin, xMax, MaxAngle, colorAngle, 1, func(s sample.Sample) float64 { return s.Angle })
	r.drawTrace(grip, samples, xMin, xMax, forceMax, colorForce, 2, func(s sample.Sample) float64 { return s.Force })

	if n := len(samples); n > 0 {
		r.drawStatus(emg, samples[n-1])
	}
}

// drawGrid draws the oscilloscope-style grid for one panel.
func (r *scopeRenderer) drawGrid(p plot, top float64, format string, xMin, xMax time.Time, timeLabels bool) {
	const numHLines = 4
	for i := range numHLines + 1 {
		y := p.y + float32(i)*p.h/numHLines
		r.line(colorGrid, 1, fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y))

		value := top - float64(i)*top/numHLines
		r.text(fmt.Sprintf(format, value), colorLabel, 10, fyne.TextAlignTrailing, fyne.NewPos(p.x-5, y-6))
	}

	const numVLines = 10
	for i := range numVLines + 1 {
		x := p.x + float32(i)*p.w/numVLines
		r.line(colorGrid, 1, fyne.NewPos(x, p.y), fyne.NewPos(x, p.y+p.h))

		if timeLabels {
			offset := time.Duration(float64(xMax.Sub(xMin)) * float64(i) / numVLines)
			r.text(formatTime(offset), colorLabel, 10, fyne.TextAlignCenter, fyne.NewPos(x-20, p.y+p.h+5))
		}
	}
}

// drawAngleAxis labels the right edge of the grip panel in degrees.
func (r *scopeRenderer) drawAngleAxis(p plot) {
	const numHLines = 4
	for i := range numHLines + 1 {
		y := p.y + float32(i)*p.h/numHLines
		value := MaxAngle - float64(i)*MaxAngle/numHLines
		r.text(fmt.Sprintf("%.0f°", value), colorAngle, 10, fyne.TextAlignLeading, fyne.NewPos(p.x+p.w+5, y-6))
	}
}

// drawTrace draws one value of the samples as connected segments.
func (r *scopeRenderer) drawTrace(p plot, samples []sample.Sample, xMin, xMax time.Time, top float64, c color.Color, width float32, value func(sample.Sample) float64) {
	if len(samples) < 2 {
		return
	}

	prev := fyne.NewPos(p.px(samples[0].Timestamp, xMin, xMax), p.py(value(samples[0]), top))
	for _, s := range samples[1:] {
		pos := fyne.NewPos(p.px(s.Timestamp, xMin, xMax), p.py(value(s), top))
		r.line(c, width, prev, pos)
		prev = pos
	}
}

// drawActive draws a strip along the bottom of the EMG panel while the muscle
// is active.
func (r *scopeRenderer) drawActive(p plot, samples []sample.Sample, xMin, xMax time.Time) {
	for i := 0; i+1 < len(samples); i++ {
		if !samples[i].Active {
			continue
		}
		y := p.y + p.h - 2
		r.line(colorActive, 4,
			fyne.NewPos(p.px(samples[i].Timestamp, xMin, xMax), y),
			fyne.NewPos(p.px(samples[i+1].Timestamp, xMin, xMax), y))
	}
}

// drawEpisodes shades each grasp episode across both panels and labels it
// with the hold angle and peak force.
func (r *scopeRenderer) drawEpisodes(emg, grip plot, episodes []meter.Episode, samples []sample.Sample, xMin, xMax time.Time) {
	for _, e := range episodes {
		if e.StartIndex < 0 || e.EndIndex >= len(samples) {
			continue
		}
		x0 := emg.px(samples[e.StartIndex].Timestamp, xMin, xMax)
		x1 := emg.px(samples[e.EndIndex].Timestamp, xMin, xMax)
		if x1-x0 < 1 {
			x1 = x0 + 1
		}

		rect := canvas.NewRectangle(colorEpisode)
		rect.Move(fyne.NewPos(x0, emg.y))
		rect.Resize(fyne.NewSize(x1-x0, grip.y+grip.h-emg.y))
		r.objects = append(r.objects, rect)

		r.text(episodeLabel(e), colorForce, 11, fyne.TextAlignLeading, fyne.NewPos(x0+2, grip.y+2))
	}
}

// drawStatus prints the newest sample's state in the EMG panel corner.
func (r *scopeRenderer) drawStatus(p plot, s sample.Sample) {
	r.text(statusLabel(s), colorLabel, 11, fyne.TextAlignLeading, fyne.NewPos(p.x+10, p.y+5))
}

func (r *scopeRenderer) line(c color.Color, width float32, from, to fyne.Position) {
	l := canvas.NewLine(c)
	l.Position1 = from
	l.Position2 = to
	l.StrokeWidth = width
	r.objects = append(r.objects, l)
}

func (r *scopeRenderer) text(s string, c color.Color, size float32, align fyne.TextAlign, pos fyne.Position) {
	t := canvas.NewText(s, c)
	t.TextSize = size
	t.Alignment = align
	t.Move(pos)
	r.objects = append(r.objects, t)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

func episodeLabel(e meter.Episode) string {
	label := fmt.Sprintf("%.0f° %.0f%%", e.HoldAngle, e.PeakForce*100)
	if !e.Contact {
		label += " empty"
	}
	if e.Slips > 0 {
		label += fmt.Sprintf(" slip×%d", e.Slips)
	}
	return label
}

func statusLabel(s sample.Sample) string {
	active := "relaxed"
	if s.Active {
		active = "active"
	}
	return fmt.Sprintf("%s  %s  RMS %.4fV / %.4fV", s.State, active, s.Envelope, s.Threshold)
}

func formatTime(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
