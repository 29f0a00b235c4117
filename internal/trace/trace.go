package trace

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/plate-rectify/internal/imaging"
	"github.com/ironsheep/plate-rectify/internal/pipeline"
)

// Overlay colors.
var (
	regionColor     = color.RGBA{R: 255, G: 215, A: 255}
	segmentColor    = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	horizontalColor = color.RGBA{R: 255, A: 255}
	verticalColor   = color.RGBA{B: 255, A: 255}
	cornerColor     = color.RGBA{G: 200, A: 255}
	contourColor    = color.RGBA{R: 255, B: 255, A: 255}
	labelFG         = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	labelBG         = color.RGBA{A: 200}
)

var cornerNames = [4]string{"TL", "TR", "BR", "BL"}

// LogTracer logs a summary of every event.
type LogTracer struct {
	Log   logrus.FieldLogger
	Level logrus.Level
}

// NewLogTracer logs events at debug level.
func NewLogTracer(log logrus.FieldLogger) *LogTracer {
	return &LogTracer{Log: log, Level: logrus.DebugLevel}
}

// Trace implements pipeline.Tracer.
func (t *LogTracer) Trace(ev pipeline.Event) {
	t.Log.WithFields(Fields(ev)).Log(t.Level, "trace")
}

// Fields summarizes ev as log fields.
func Fields(ev pipeline.Event) logrus.Fields {
	fields := logrus.Fields{
		"id":     ev.ID.String(),
		"from":   ev.From,
		"to":     ev.To,
		"region": ev.Region.String(),
	}
	if ev.Reason != "" {
		fields["reason"] = ev.Reason
	}
	if len(ev.Segments) > 0 {
		fields["segments"] = len(ev.Segments)
	}
	if ev.Lines != nil {
		fields["horizontal"] = len(ev.Lines.Horizontal)
		fields["vertical"] = len(ev.Lines.Vertical)
	}
	if ev.Corners != nil {
		fields["corners"] = fmt.Sprintf("%.1f", ev.Corners[:])
	}
	if ev.Contour != nil {
		fields["contour"] = ev.Contour.Bounds.String()
	}
	return fields
}

// DumpTracer writes an overlay PNG for every event carrying evidence, named
// <id>_<from>.png inside Dir.
type DumpTracer struct {
	Dir string
	Log logrus.FieldLogger
}

// NewDumpTracer creates a tracer writing into dir.
func NewDumpTracer(dir string, log logrus.FieldLogger) *DumpTracer {
	return &DumpTracer{Dir: dir, Log: log}
}

// Trace implements pipeline.Tracer. Write failures are logged and otherwise
// ignored.
func (d *DumpTracer) Trace(ev pipeline.Event) {
	if ev.Source == nil || !hasEvidence(ev) {
		return
	}
	path := d.Path(ev)
	if err := imaging.Save(path, Overlay(ev)); err != nil {
		d.Log.WithError(err).WithField("path", path).Warn("failed to write trace overlay")
		return
	}
	d.Log.WithField("path", path).Debug("trace overlay written")
}

// Path returns the file ev is dumped to.
func (d *DumpTracer) Path(ev pipeline.Event) string {
	return filepath.Join(d.Dir, fmt.Sprintf("%s_%s.png", ev.ID, ev.From))
}

func hasEvidence(ev pipeline.Event) bool {
	return len(ev.Segments) > 0 || ev.Lines != nil || ev.Corners != nil || ev.Contour != nil
}

// Overlay draws the evidence of ev over a copy of its source image: the
// working region in yellow, raw segments in gray, horizontal lines in red,
// vertical lines in blue, the contour box in magenta and labelled corners in
// green.
func Overlay(ev pipeline.Event) *image.RGBA {
	canvas := imaging.NewCanvas(ev.Source)

	drawRect(canvas, ev.Region, regionColor)
	for _, s := range ev.Segments {
		imaging.DrawLine(canvas, s.A.X, s.A.Y, s.B.X, s.B.Y, segmentColor)
	}
	if ev.Lines != nil {
		for _, l := range ev.Lines.Horizontal {
			imaging.DrawLine(canvas, l.A.X, l.A.Y, l.B.X, l.B.Y, horizontalColor)
		}
		for _, l := range ev.Lines.Vertical {
			imaging.DrawLine(canvas, l.A.X, l.A.Y, l.B.X, l.B.Y, verticalColor)
		}
	}
	if ev.Contour != nil {
		drawRect(canvas, ev.Contour.Bounds, contourColor)
	}
	if ev.Corners != nil {
		for i, p := range ev.Corners {
			q := ev.Corners[(i+1)%4]
			imaging.DrawLine(canvas, p.X, p.Y, q.X, q.Y, cornerColor)
			imaging.DrawMarker(canvas, p.X, p.Y, 3, cornerColor)
			imaging.DrawLabel(canvas, int(p.X)+4, int(p.Y)+4, cornerNames[i], labelFG, labelBG)
		}
	}

	b := canvas.Bounds()
	imaging.DrawLabel(canvas, b.Min.X+2, b.Min.Y+2, fmt.Sprintf("%s -> %s", ev.From, ev.To), labelFG, labelBG)
	return canvas
}

func drawRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	if r.Empty() {
		return
	}
	x0, y0 := float64(r.Min.X), float64(r.Min.Y)
	x1, y1 := float64(r.Max.X-1), float64(r.Max.Y-1)
	imaging.DrawLine(dst, x0, y0, x1, y0, c)
	imaging.DrawLine(dst, x1, y0, x1, y1, c)
	imaging.DrawLine(dst, x1, y1, x0, y1, c)
	imaging.DrawLine(dst, x0, y1, x0, y0, c)
}
