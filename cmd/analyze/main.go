// Command analyze runs a single activity analysis for a GitHub user and prints
// the insights, or the full report as JSON.
//
// Usage:
//
//	go run ./cmd/analyze --orgs golang,kubernetes --start 2024-03-01 --end 2024-03-30 octocat
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/activity-insights-service/internal/config"
	"github.com/couchcryptid/activity-insights-service/internal/domain"
	"github.com/couchcryptid/activity-insights-service/internal/observability"
	"github.com/couchcryptid/activity-insights-service/internal/pipeline"
	"github.com/urfave/cli/v2"
)

const helpTemplate = `{{.Name}} - {{.Usage}}

Usage: {{.HelpName}} [options] <username>

Options:
   {{range .VisibleFlags}}{{.}}
   {{end}}`

func main() {
	log.SetFlags(0)

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	cli.AppHelpTemplate = helpTemplate

	return &cli.App{
		Name:  "analyze",
		Usage: "Compare a GitHub user's push activity with a baseline and local weather",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "token",
				Aliases: []string{"t"},
				Usage:   "GitHub personal access token",
				EnvVars: []string{"GITHUB_TOKEN"},
			},
			&cli.StringSliceFlag{
				Name:    "orgs",
				Aliases: []string{"o"},
				Usage:   "Baseline organizations (defaults to BASELINE_ORGS)",
			},
			&cli.StringFlag{
				Name:  "start",
				Usage: "First day of the range, YYYY-MM-DD",
			},
			&cli.StringFlag{
				Name:  "end",
				Usage: "Last day of the range, YYYY-MM-DD (defaults to today)",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Print the full report as JSON",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log fetch progress to stderr",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowAppHelp(c)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.IsSet("token") {
		cfg.GitHubToken = c.String("token")
	}

	logger := newCLILogger(os.Stderr, cfg, c.Bool("verbose"))

	p, err := pipeline.NewFromConfig(cfg, nil, logger, observability.NewMetrics())
	if err != nil {
		return err
	}

	req := domain.AnalysisRequest{
		Username: c.Args().First(),
		Start:    c.String("start"),
		End:      c.String("end"),
	}
	if c.IsSet("orgs") {
		req.Orgs = c.StringSlice("orgs")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := p.Analyze(ctx, req)
	if err != nil {
		return cli.Exit(fmt.Sprintf("analysis failed: %v", err), 1)
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, report)
	}
	printReport(c.App.Writer, report)
	return nil
}

// newCLILogger logs text to w, keeping stdout for the report. Only errors are
// shown unless verbose.
func newCLILogger(w io.Writer, cfg *config.Config, verbose bool) *slog.Logger {
	logCfg := *cfg
	logCfg.LogFormat = "text"
	logCfg.LogLevel = "error"
	if verbose {
		logCfg.LogLevel = "debug"
	}
	return observability.NewLoggerTo(w, &logCfg)
}

func writeJSON(w io.Writer, report domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
