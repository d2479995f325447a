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
	"getaround-insights/internal/apiclient"
	"getaround-insights/internal/dashboard"
	"getaround-insights/internal/dataset"
	"getaround-insights/internal/logging"
	"getaround-insights/internal/server"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "getaround-dashboard [delay.xlsx] [pricing.csv]",
		Short: "Getaround insights dashboard: rental delay analysis and price estimation",
		Args:  cobra.MaximumNArgs(2),
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
	logging.Setup(cfg.Log, "getaround-dashboard")
	if path == "" {
		log.Info().Msg("no configuration file found, using defaults")
	} else {
		log.Info().Str("path", path).Msg("configuration loaded")
	}
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}
	if len(args) > 0 {
		cfg.Data.DelayPath = args[0]
	}
	if len(args) > 1 {
		cfg.Data.PricingPath = args[1]
	}

	rentals, err := dataset.LoadRentals(cfg.Data.DelayPath)
	if err != nil {
		return err
	}
	cars, err := dataset.LoadPricing(cfg.Data.PricingPath)
	if err != nil {
		return err
	}

	client := apiclient.New(cfg.Dashboard.APIURL, cfg.Dashboard.RequestTimeout)
	d, err := dashboard.New(rentals, cars, client)
	if err != nil {
		return err
	}
	log.Info().Int("rentals", len(rentals)).Int("cars", len(cars)).Str("api_url", cfg.Dashboard.APIURL).Msg("dashboard views computed")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, cfg.Dashboard.Port, dashboard.NewRouter(d, cfg.Dashboard))
}
