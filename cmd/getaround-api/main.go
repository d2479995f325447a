package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"getaround-insights/config"
	"getaround-insights/internal/api"
	"getaround-insights/internal/dataset"
	"getaround-insights/internal/logging"
	"getaround-insights/internal/predictor"
	"getaround-insights/internal/server"
	"getaround-insights/internal/store"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "getaround-api [pricing.csv]",
		Short: "Getaround pricing API: dataset queries and rental price predictions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run,
	}
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, path, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}
	logging.Setup(cfg.Log, "getaround-api")
	if path == "" {
		log.Info().Msg("no configuration file found, using defaults")
	} else {
		log.Info().Str("path", path).Msg("configuration loaded")
	}
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}
	if len(args) > 0 {
		cfg.Data.PricingPath = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cars, err := dataset.LoadPricing(cfg.Data.PricingPath)
	if err != nil {
		return err
	}

	p, err := predictor.New(ctx, cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	handler := api.NewHandler(store.New(cars), p, cfg.Model)
	return server.Run(ctx, cfg.Server.Port, api.NewRouter(handler, cfg.Server))
}
