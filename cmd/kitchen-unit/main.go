package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmehra2102/Kitchen-Unit/internal/config"
)

type options struct {
	configPath string
	ordersFile string
	source     string
	linger     string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "kitchen-unit",
		Short:         "Simulate a delivery kitchen: cook, shelve and hand orders to couriers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")

	run := &cobra.Command{
		Use:   "run",
		Short: "Run the kitchen until every order is delivered or dropped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runKitchen(cmd.Context(), cfg, opts.linger, cmd.OutOrStdout())
		},
	}
	run.Flags().StringVar(&opts.ordersFile, "orders", "", "orders file, overrides ingestion.orders_file")
	run.Flags().StringVar(&opts.source, "source", "", "order source (file or kafka), overrides ingestion.source")
	run.Flags().StringVar(&opts.linger, "linger", "0s", "keep status endpoints up this long after the final report")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration, then print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg)
		},
	}

	root.AddCommand(run, validate)
	return root
}

func (o *options) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	if o.ordersFile != "" {
		cfg.Ingestion.OrdersFile = o.ordersFile
	}
	if o.source != "" {
		cfg.Ingestion.Source = o.source
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
