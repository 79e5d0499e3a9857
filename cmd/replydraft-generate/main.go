// Command replydraft-generate runs a reply-drafting pass over the recent
// inbox: it suggests a reply for each unseen message and saves it as a
// threaded draft. By default it runs once and exits, suitable for cron; with
// -interval it keeps running on a schedule until interrupted.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mvidal/replydraft/internal/app"
	"github.com/mvidal/replydraft/internal/model"
	"github.com/mvidal/replydraft/internal/pipeline"
)

type generateConfig struct {
	configPath string
	dbPath     string
	limit      int
	reprocess  bool
	interval   time.Duration
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		app.NewLogger().WithError(err).Error("replydraft-generate failed")
		os.Exit(1)
	}
}

func parseFlags() generateConfig {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	dbPath := flag.String("db", "", "path to sqlite database (defaults to config value)")
	limit := flag.Int("limit", 10, "number of recent inbox messages to examine")
	reprocess := flag.Bool("reprocess", false, "draft replies even for already processed messages")
	interval := flag.Duration("interval", 0, "keep running a pass every interval (0 runs once and exits)")
	flag.Parse()

	return generateConfig{
		configPath: *configPath,
		dbPath:     *dbPath,
		limit:      *limit,
		reprocess:  *reprocess,
		interval:   *interval,
	}
}

func run(cfg generateConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfg.configPath, cfg.dbPath)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := pipeline.Options{
		Limit:     cfg.limit,
		Reprocess: cfg.reprocess,
	}

	if cfg.interval > 0 {
		return watch(ctx, a, opts, cfg.interval)
	}

	report, err := a.Pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}
	logReport(a.Log, report)
	return nil
}

// watch runs the pipeline on a schedule until the context is cancelled.
// Run errors are logged by the runner and the loop keeps going; only
// cancellation ends it.
func watch(ctx context.Context, a *app.App, opts pipeline.Options, interval time.Duration) error {
	runner := pipeline.NewRunner(a.Pipeline, opts, interval, a.Log.WithField("component", "runner"))
	runner.Start(ctx)
	defer runner.Stop()

	a.Log.WithField("interval", interval.String()).Info("watching inbox")
	for {
		select {
		case <-ctx.Done():
			return nil
		case report := <-runner.Results():
			logReport(a.Log, report)
		}
	}
}

func logReport(log *logrus.Logger, report *pipeline.RunReport) {
	rlog := log.WithField("run_id", report.RunID)
	for _, res := range report.Results {
		rlog.WithFields(logrus.Fields{
			"message_id": res.MessageID,
			"subject":    res.Subject,
			"outcome":    res.Outcome,
			"detail":     res.Detail,
		}).Info("message result")
	}
	rlog.WithFields(logrus.Fields{
		"fetched": report.Fetched,
		"corpus":  report.CorpusSize,
		"drafted": report.Drafted(),
	}).Info("run complete")
}
