package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/ironsheep/plate-rectify/internal/batch"
	"github.com/ironsheep/plate-rectify/internal/config"
	"github.com/ironsheep/plate-rectify/internal/detection"
	"github.com/ironsheep/plate-rectify/internal/ocr"
	"github.com/ironsheep/plate-rectify/internal/pipeline"
	"github.com/ironsheep/plate-rectify/internal/server"
	"github.com/ironsheep/plate-rectify/internal/trace"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Text locators selectable with --locator.
const (
	locatorNone      = "none"
	locatorEdges     = "edges"
	locatorTesseract = "tesseract"
)

func main() {
	// Logs go to stderr; stdout is for MCP protocol.
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cmd := &cli.Command{
		Name:    "plate-rectify",
		Usage:   "Turn license plate detections into cropped or perspective-corrected plate images",
		Version: fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				Sources: cli.EnvVars("PLATE_RECTIFY_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level: debug, info, warn or error",
				Sources: cli.EnvVars("PLATE_RECTIFY_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Low-confidence strategy: crop or rectify",
			},
			&cli.IntFlag{
				Name:  "output-width",
				Usage: fmt.Sprintf("Resize every plate to this width, 0 keeps the natural size (default %d)", config.DefaultOutputWidth),
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Corner candidate search: auto, enumerate or nearest",
			},
			&cli.StringFlag{
				Name:  "corner-mode",
				Usage: "Corner derivation: bounds or intersect",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: fmt.Sprintf("Line extractor backend %v", detection.Backends()),
			},
			&cli.StringFlag{
				Name:  "locator",
				Value: locatorEdges,
				Usage: "Text locator for crop mode: edges, tesseract or none",
			},
			&cli.StringFlag{
				Name:  "trace-dir",
				Usage: "Write an evidence overlay PNG for every state transition into this directory",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := logrus.ParseLevel(cmd.String("log-level"))
			if err != nil {
				return ctx, err
			}
			log.SetLevel(level)
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Process every image of a detection manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "manifest",
						Aliases:  []string{"m"},
						Usage:    "JSON manifest of images and detector boxes",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "input-dir",
						Usage: "Directory manifest file names are relative to (default: the manifest's directory)",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Value:   "output",
						Usage:   "Output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Value: runtime.NumCPU(),
						Usage: "Images processed concurrently",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runBatch(ctx, cmd, log)
				},
			},
			{
				Name:  "serve",
				Usage: "Serve the plate tools over MCP on stdin/stdout",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return serve(cmd, log)
				},
			},
			{
				Name:  "config",
				Usage: "Print the effective configuration as YAML",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "write",
						Aliases: []string{"w"},
						Usage:   "Save the configuration to this file instead of printing it",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					if path := cmd.String("write"); path != "" {
						if err := config.Write(path, cfg); err != nil {
							return err
						}
						log.WithField("path", path).Info("configuration written")
						return nil
					}
					return config.Encode(os.Stdout, cfg)
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cli.Command) (pipeline.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return cfg, err
	}

	if cmd.IsSet("mode") {
		cfg.Mode = pipeline.Mode(cmd.String("mode"))
	}
	if cmd.IsSet("output-width") {
		cfg.OutputWidth = int(cmd.Int("output-width"))
	}
	if cmd.IsSet("strategy") {
		cfg.Quad.Strategy = cmd.String("strategy")
	}
	if cmd.IsSet("corner-mode") {
		cfg.Quad.CornerMode = cmd.String("corner-mode")
	}
	if cmd.IsSet("backend") {
		cfg.Backend = cmd.String("backend")
	}
	return cfg, errors.Wrap(cfg.Validate(), "invalid flags")
}

// engineOptions builds the collaborators selected by flags.
func engineOptions(cmd *cli.Command, log logrus.FieldLogger) ([]pipeline.Option, error) {
	opts := []pipeline.Option{pipeline.WithLogger(log)}

	switch name := cmd.String("locator"); name {
	case locatorEdges:
		opts = append(opts, pipeline.WithTextLocator(detection.NewEdgeDensityLocator()))
	case locatorTesseract:
		opts = append(opts, pipeline.WithTextLocator(ocr.NewTesseractLocator()))
	case locatorNone, "":
	default:
		return nil, errors.Errorf("unknown locator %q", name)
	}

	if dir := cmd.String("trace-dir"); dir != "" {
		opts = append(opts, pipeline.WithTracer(pipeline.Tracers{
			trace.NewLogTracer(log),
			trace.NewDumpTracer(dir, log),
		}))
	}
	return opts, nil
}

func runBatch(ctx context.Context, cmd *cli.Command, log logrus.FieldLogger) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := engineOptions(cmd, log)
	if err != nil {
		return err
	}
	engine, err := pipeline.New(cfg, opts...)
	if err != nil {
		return err
	}

	manifest := cmd.String("manifest")
	items, err := batch.LoadManifest(manifest)
	if err != nil {
		return err
	}
	inputDir := cmd.String("input-dir")
	if inputDir == "" {
		inputDir = filepath.Dir(manifest)
	}

	log.WithFields(logrus.Fields{
		"images":  len(items),
		"mode":    cfg.Mode,
		"workers": cmd.Int("workers"),
	}).Info("processing manifest")

	runner := &batch.Runner{
		Engine:    engine,
		InputDir:  inputDir,
		OutputDir: cmd.String("out"),
		Workers:   int(cmd.Int("workers")),
		Log:       log,
	}
	_, err = runner.Run(ctx, items)
	return err
}

func serve(cmd *cli.Command, log logrus.FieldLogger) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := engineOptions(cmd, log)
	if err != nil {
		return err
	}
	srv, err := server.New(cfg, log, opts...)
	if err != nil {
		return err
	}
	log.WithField("version", Version).Debug("plate-rectify MCP server starting")
	return srv.Run()
}
