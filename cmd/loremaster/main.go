package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/loremaster/internal/adapters/driven/config/file"
	"github.com/custodia-labs/loremaster/internal/adapters/driving/cli"
	"github.com/custodia-labs/loremaster/internal/app"
	"github.com/custodia-labs/loremaster/internal/logger"
)

// version is set by the build (-ldflags "-X main.version=...").
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetBootstrapper(bootstrap)

	err := cli.Execute(ctx)
	stop()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads the config file, configures logging and opens the runtime.
func bootstrap(ctx context.Context, path string, verbose bool) (*cli.Services, error) {
	settings, err := file.LoadSettings(path)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Options{
		Level:      settings.Log.Level,
		File:       settings.Log.File,
		Verbose:    verbose || settings.Log.Verbose,
		MaxSizeMB:  settings.Log.MaxSizeMB,
		MaxBackups: settings.Log.MaxBackups,
	}); err != nil {
		return nil, err
	}
	logger.Debug("Loaded settings from %s", path)

	rt, err := app.Initialize(ctx, settings)
	if err != nil {
		return nil, err
	}

	var checks []cli.HealthCheck
	for _, c := range rt.Checks() {
		checks = append(checks, cli.HealthCheck{Name: c.Name, Hint: c.Hint, Check: c.Run})
	}

	return &cli.Services{
		Settings:    settings,
		Index:       rt.Index,
		Ingestor:    rt.Ingestor,
		Chat:        rt.ChatService,
		Checks:      checks,
		Storage:     rt.StorageLocation(),
		PromptsPath: rt.Prompts.Path(),
		Close:       rt.Close,
	}, nil
}
