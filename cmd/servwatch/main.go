package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/servwatch/internal/alerter"
	"codeberg.org/mutker/servwatch/internal/bot"
	"codeberg.org/mutker/servwatch/internal/collector"
	"codeberg.org/mutker/servwatch/internal/config"
	"codeberg.org/mutker/servwatch/internal/errors"
	"codeberg.org/mutker/servwatch/internal/history"
	"codeberg.org/mutker/servwatch/internal/logger"
	"codeberg.org/mutker/servwatch/internal/pid"
	"github.com/robfig/cron/v3"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	debug := cfg.Debug || cfg.LogLevel == "debug"
	verbose := cfg.Verbose || cfg.LogLevel == "info"
	logger.Init(debug, verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

// fatal logs with the error code when the error carries one.
func fatal(msg string, err error) {
	var coded errors.Error
	if errors.As(err, &coded) {
		logger.FatalWithCode(coded).Msg(msg)
		return
	}
	logger.Fatal().Err(err).Msg(msg)
}

func main() {
	if err := pid.Write(); err != nil {
		fatal("failed to write PID file", err)
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Warn().Err(err).Msg("failed to remove PID file")
		}
	}()

	gpu := collector.NewGPU()
	defer gpu.Shutdown()
	metricSource := collector.New(collector.NewSystem(), gpu)

	recorder, err := history.NewService(history.Config{
		Enabled:       cfg.History.Enabled,
		DBPath:        cfg.History.Database,
		RetentionDays: cfg.History.RetentionDays,
	})
	if err != nil {
		fatal("failed to initialize history", err)
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close history")
		}
	}()

	tgBot, err := bot.New(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.ServerName, metricSource, recorder)
	if err != nil {
		fatal("failed to initialize Telegram bot", err)
	}

	engine := alerter.New(alertConfig(cfg), cfg.ServerName, tgBot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	go tgBot.Run(ctx)

	scheduler := startDailyReport(ctx, tgBot)
	if scheduler != nil {
		defer scheduler.Stop()
	}

	logger.Info().
		Str("server", cfg.ServerName).
		Int("interval", cfg.Interval).
		Msg("Monitoring started")

	if err := loop(ctx, metricSource, engine, recorder); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}

	logger.Info().Msg("Exiting...")
}

func loop(ctx context.Context, source collector.Source, engine *alerter.Engine, recorder history.Recorder) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("invalid interval: %d", cfg.Interval)
	}

	ticker := time.NewTicker(time.Duration(cfg.Interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			tick(ctx, source, engine, recorder)
		}
	}
}

// tick is one evaluation pass: snapshot, alert, record. Faults are
// contained here so a bad pass never stops monitoring.
func tick(ctx context.Context, source collector.Source, engine *alerter.Engine, recorder history.Recorder) {
	snapshot, err := source.Snapshot()
	if err != nil {
		var coded errors.Error
		if errors.As(err, &coded) {
			logger.ErrorWithCode(coded).Msg("failed to collect snapshot")
		} else {
			logger.Error().Err(err).Msg("failed to collect snapshot")
		}
		return
	}

	fired := engine.Evaluate(snapshot)
	if len(fired) > 0 {
		logger.Debug().Int("alerts", len(fired)).Msg("Evaluation pass complete")
	}

	if err := recorder.Record(ctx, &snapshot); err != nil {
		logger.Warn().Err(err).Msg("failed to record snapshot")
	}
}

func startDailyReport(ctx context.Context, tgBot *bot.Bot) *cron.Cron {
	if !cfg.DailyReport.Enabled {
		return nil
	}

	hour, minute, err := config.ParseDailyTime(cfg.DailyReport.Time)
	if err != nil {
		// Validated at load time; treat a mismatch here as fatal config drift.
		logger.Fatal().Err(err).Msg("invalid daily report time")
	}

	scheduler := cron.New()
	schedule := fmt.Sprintf("%d %d * * *", minute, hour)
	if _, err := scheduler.AddFunc(schedule, func() {
		if err := tgBot.SendDailyReport(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to send daily report")
		}
	}); err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule daily report")
	}

	scheduler.Start()
	logger.Info().Str("time", cfg.DailyReport.Time).Msg("Daily report scheduled")

	return scheduler
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func alertConfig(c *config.Config) alerter.Config {
	return alerter.Config{
		Cooldown:          time.Duration(c.Alerts.Cooldown) * time.Second,
		CPUWarning:        c.Alerts.CPUWarning,
		CPUCritical:       c.Alerts.CPUCritical,
		MemoryWarning:     c.Alerts.MemoryWarning,
		MemoryCritical:    c.Alerts.MemoryCritical,
		DiskWarning:       c.Alerts.DiskWarning,
		DiskCritical:      c.Alerts.DiskCritical,
		GPUTempWarning:    c.Alerts.GPUTempWarning,
		GPUTempCritical:   c.Alerts.GPUTempCritical,
		GPUMemoryWarning:  c.Alerts.GPUMemoryWarning,
		GPUMemoryCritical: c.Alerts.GPUMemoryCritical,
	}
}
