// backend-go/cmd/forecast/main.go
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/app"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/config"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/export"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/service"
	"github.com/andresuchdata/inventory-forecast/backend-go/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
)

const appKey = "app"

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("forecast command failed")
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "forecast",
		Usage: "Generate inventory recommendations from sales analytics and live intent",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (console or json)",
				EnvVars: []string{"LOG_FORMAT"},
				Value:   "console",
			},
		},
		Before: func(c *cli.Context) error {
			// stdout carries command output
			logger.SetupWriter(os.Stderr, c.String("log-level"), c.String("log-format"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a forecast over the whole catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write forecasts to this file instead of stdout",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: json or csv",
						Value: "json",
					},
					&cli.BoolFlag{
						Name:  "upload",
						Usage: "Upload the forecasts to snapshot storage",
					},
				},
				Before: func(c *cli.Context) error {
					if _, err := export.ParseFormat(c.String("format")); err != nil {
						return err
					}
					return initApp(c)
				},
				After:  closeApp,
				Action: runForecast,
			},
			{
				Name:      "item",
				Usage:     "Explain the recommendation for a single SKU",
				ArgsUsage: "<sku>",
				Before: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return errors.New("item requires exactly one SKU argument")
					}
					return initApp(c)
				},
				After:  closeApp,
				Action: explainItem,
			},
			{
				Name:  "history",
				Usage: "List recently persisted runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of runs to list",
						Value: 20,
					},
				},
				Before: initApp,
				After:  closeApp,
				Action: listHistory,
			},
		},
	}
}

func initApp(c *cli.Context) error {
	cfg := config.Load()

	application, err := app.New(c.Context, cfg)
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[appKey] = application
	return nil
}

func closeApp(c *cli.Context) error {
	if application, ok := c.App.Metadata[appKey].(*app.App); ok && application != nil {
		application.Close()
	}
	return nil
}

func appFrom(c *cli.Context) *app.App {
	return c.App.Metadata[appKey].(*app.App)
}

func runForecast(c *cli.Context) error {
	application := appFrom(c)
	format, _ := export.ParseFormat(c.String("format"))

	run, err := application.Service.Run(c.Context)
	if err != nil {
		return err
	}

	if run.Status == domain.RunStatusPartial {
		logger.Log.Warn().
			Int("skipped", run.Skipped).
			Interface("skip_reasons", run.SkipReasons).
			Msg("forecast run finished with skipped items")
	}

	out, closeOut, err := openOutput(c.String("output"))
	if err != nil {
		return err
	}
	defer closeOut()

	if err := export.Write(out, format, run.Forecasts); err != nil {
		return err
	}

	if c.Bool("upload") {
		last := application.Service.Status(c.Context).LastRun
		if uploaded, ok := alreadyUploaded(last, format); ok {
			logger.Log.Info().Str("key", uploaded).Msg("snapshot already uploaded by the run")
		} else {
			key, err := application.Service.UploadSnapshot(c.Context, run, format)
			if err != nil {
				return fmt.Errorf("upload snapshot: %w", err)
			}
			logger.Log.Info().Str("key", key).Msg("snapshot uploaded")
		}
	}

	logger.Log.Info().
		Str("status", string(run.Status)).
		Int("forecasts", len(run.Forecasts)).
		Int("skipped", run.Skipped).
		Dur("duration", run.Duration).
		Msg("forecast run finished")
	return nil
}

// alreadyUploaded reports the key when the service uploaded this run's
// snapshot in the same format, which happens with FORECAST_UPLOAD_SNAPSHOTS.
func alreadyUploaded(last *service.RunInfo, format export.Format) (string, bool) {
	if last == nil || last.SnapshotKey == "" {
		return "", false
	}
	if !strings.HasSuffix(last.SnapshotKey, format.Extension()) {
		return "", false
	}
	return last.SnapshotKey, true
}

func explainItem(c *cli.Context) error {
	eval, err := appFrom(c).Service.Explain(c.Context, c.Args().First())
	if err != nil {
		return err
	}

	return writeEvaluation(c.App.Writer, eval)
}

// writeEvaluation prints the full working for one item, multipliers included.
func writeEvaluation(w io.Writer, eval *forecast.Evaluation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(eval)
}

func listHistory(c *cli.Context) error {
	runs, err := appFrom(c).Service.History(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}

	for _, r := range runs {
		fmt.Fprintf(c.App.Writer, "%d\t%s\t%s\tforecasts=%d\tskipped=%d\t%dms\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Status, r.ForecastCount, r.Skipped, r.DurationMS)
	}
	return nil
}

// openOutput returns stdout for an empty path or "-".
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			logger.Log.Warn().Err(err).Str("path", path).Msg("close output file failed")
		}
	}, nil
}
