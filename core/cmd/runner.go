// Package cmd is the shared main for bots built on core: it loads the
// config, bootstraps the app and runs the Telegram runtime until a signal.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/grocerybot/core/config"
	"github.com/m3rciful/grocerybot/core/logger"
	coretelegram "github.com/m3rciful/grocerybot/core/telegram"
)

// ConfigCarrier exposes the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp builds the run options of a bootstrapped bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options describe how to load configuration, bootstrap the app and run the bot.
type Options[C ConfigCarrier] struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (C, error)
	Bootstrap  func(ctx context.Context, cfg C) (TelegramApp, error)

	// ShutdownLogger and RunTelegram default to the logger and telegram packages.
	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// Run loads configuration, bootstraps the app and blocks until SIGINT or SIGTERM.
func Run[C ConfigCarrier](opts Options[C]) error {
	switch {
	case opts.LoadConfig == nil:
		return errors.New("cmd: LoadConfig is required")
	case opts.Bootstrap == nil:
		return errors.New("cmd: Bootstrap is required")
	}
	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	runTelegram := opts.RunTelegram
	if runTelegram == nil {
		runTelegram = coretelegram.RunTelegram
	}

	path, env := ConfigPath(opts.ConfigEnvVar, opts.DefaultConfigPath)
	if path == "" {
		return fmt.Errorf("cmd: set %s or DefaultConfigPath", env)
	}
	log.Printf("loading config: %s", path)
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return errors.New("cmd: loaded config is missing core configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	app, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap: %w", err)
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown: %v", err)
		}
	}()

	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options: %w", err)
	}
	runOpts.OnStart = announceStart(runOpts.OnStart, started)
	runOpts.OnStop = announceStop(runOpts.OnStop)
	return runTelegram(ctx, runOpts)
}

type hook = func(context.Context, coretelegram.Runtime) error

// announceStart logs readiness after next succeeded.
func announceStart(next hook, started time.Time) hook {
	return func(ctx context.Context, rt coretelegram.Runtime) error {
		if next != nil {
			if err := next(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "ready",
			slog.Duration("startup_duration", logger.RoundMS(time.Since(started))))
		return nil
	}
}

// announceStop logs the shutdown before next runs.
func announceStop(next hook) hook {
	return func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown")
		if next == nil {
			return nil
		}
		return next(ctx, rt)
	}
}

// ConfigPath resolves the config file from envVar (CONFIG_PATH when empty)
// with fallback. The consulted variable name is returned second.
func ConfigPath(envVar, fallback string) (string, string) {
	if envVar == "" {
		envVar = "CONFIG_PATH"
	}
	if p := os.Getenv(envVar); p != "" {
		return p, envVar
	}
	return fallback, envVar
}
