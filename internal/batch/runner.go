package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/plate-rectify/internal/imaging"
	"github.com/ironsheep/plate-rectify/internal/pipeline"
)

// DetectedDir is the output subdirectory for produced plate images.
const DetectedDir = "detected"

// ReportFile is the name of the report written into the output directory.
const ReportFile = "report.json"

// Entry is the outcome of one manifest item.
type Entry struct {
	File   string          `json:"file"`
	ID     string          `json:"id,omitempty"`
	State  pipeline.State  `json:"state,omitempty"`
	Method pipeline.Method `json:"method,omitempty"`
	Reason string          `json:"reason,omitempty"`
	Output string          `json:"output,omitempty"`

	// Error is set when the item could not be processed at all: decode or
	// write failures, invalid detections, panics and cancellation.
	Error string `json:"error,omitempty"`
}

// Report lists every item in manifest order.
type Report struct {
	Items  []Entry  `json:"items"`
	Done   int      `json:"done"`
	Missed []string `json:"missed"`
	Failed []string `json:"failed"`
}

// Runner processes manifest items concurrently with a shared engine.
type Runner struct {
	Engine    *pipeline.Engine
	InputDir  string
	OutputDir string
	Workers   int
	Log       logrus.FieldLogger
}

// Run processes items with up to Workers goroutines and writes the report to
// OutputDir. Missed plates and per-item failures are recorded, not returned.
// When ctx is cancelled no further items are started; the partial report is
// still written and ctx's error is returned.
func (r *Runner) Run(ctx context.Context, items []Item) (*Report, error) {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if err := os.MkdirAll(filepath.Join(r.OutputDir, DetectedDir), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	entries := make([]Entry, len(items))
	started := make([]bool, len(items))

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range items {
		if ctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			entries[i] = r.process(ctx, items[i])
			return nil
		})
	}
	_ = g.Wait()

	for i := range items {
		if !started[i] {
			entries[i] = Entry{File: items[i].File, Error: ctx.Err().Error()}
		}
	}

	report := buildReport(entries)
	if err := WriteReport(filepath.Join(r.OutputDir, ReportFile), report); err != nil {
		return report, err
	}
	r.logger().WithFields(logrus.Fields{
		"items":  len(items),
		"done":   report.Done,
		"missed": len(report.Missed),
		"failed": len(report.Failed),
	}).Info("batch complete")
	return report, ctx.Err()
}

func (r *Runner) process(ctx context.Context, item Item) (entry Entry) {
	entry.File = item.File
	log := r.logger().WithField("file", item.File)

	defer func() {
		if v := recover(); v != nil {
			entry.Error = fmt.Sprintf("panic: %v", v)
			log.WithField("panic", v).Error("image processing panicked")
		}
	}()

	if err := ctx.Err(); err != nil {
		entry.Error = err.Error()
		return entry
	}

	img, err := imaging.Load(filepath.Join(r.InputDir, item.File))
	if err != nil {
		entry.Error = err.Error()
		log.WithError(err).Warn("failed to load image")
		return entry
	}

	res, err := r.Engine.Rectify(img, item.Detection)
	if err != nil {
		entry.Error = err.Error()
		log.WithError(err).Warn("failed to process image")
		return entry
	}
	entry.ID = res.ID.String()
	entry.State = res.State
	entry.Method = res.Method

	if res.State == pipeline.StateMissed {
		entry.Reason = res.Reason.Error()
		return entry
	}

	out := OutputPath(r.OutputDir, item.File)
	if err := imaging.Save(out, res.Image); err != nil {
		entry.Error = err.Error()
		log.WithError(err).Warn("failed to write plate image")
		return entry
	}
	entry.Output = out
	log.WithFields(logrus.Fields{"id": entry.ID, "method": res.Method, "output": out}).Debug("plate written")
	return entry
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

// OutputPath returns <dir>/detected/<name>.png for an input file.
func OutputPath(dir, file string) string {
	base := filepath.Base(file)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, DetectedDir, name+".png")
}

func buildReport(entries []Entry) *Report {
	report := &Report{Items: entries, Missed: []string{}, Failed: []string{}}
	for _, e := range entries {
		switch {
		case e.Error != "":
			report.Failed = append(report.Failed, e.File)
		case e.State == pipeline.StateMissed:
			report.Missed = append(report.Missed, e.File)
		case e.State == pipeline.StateDone:
			report.Done++
		}
	}
	return report
}

// WriteReport writes report as indented JSON.
func WriteReport(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	return nil
}
