package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/gengo-go/internal/app"
	"github.com/samvad-hq/gengo-go/internal/config"
	"github.com/samvad-hq/gengo-go/internal/logger"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "jobwatch start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("jobwatch", pflag.ExitOnError)
	fs.Bool("gengo_sandbox", false, "watch jobs in the sandbox environment")
	fs.Bool("gengo_debug", false, "log raw request/response exchanges")
	fs.String("publishers_file", "./configs/publishers.yaml", "publishers registry file")
	fs.Int64("poll_interval", 300, "seconds between polls")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sugar, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()
	log := logger.New(sugar)

	logger.InfoObj("jobwatch starting", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := app.NewClient(cfg, sugar, log)
	watcher, err := app.NewWatcher(ctx, cfg, client, log)
	if err != nil {
		logger.ErrorObj("failed to initialize watcher", "error", err.Error())
		return err
	}

	if err := watcher.Run(ctx); err != nil {
		return fmt.Errorf("watcher run: %w", err)
	}

	return nil
}
