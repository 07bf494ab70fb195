package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/railzwaylabs/subscribe/internal/billinganchor"
	"github.com/railzwaylabs/subscribe/internal/clock"
	"github.com/railzwaylabs/subscribe/internal/config"
	"github.com/railzwaylabs/subscribe/internal/db"
	"github.com/railzwaylabs/subscribe/internal/migration"
	"github.com/railzwaylabs/subscribe/internal/observability"
	"github.com/railzwaylabs/subscribe/internal/plan"
	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	"github.com/railzwaylabs/subscribe/internal/providers"
	"github.com/railzwaylabs/subscribe/internal/redis"
	"github.com/railzwaylabs/subscribe/internal/seed"
	"github.com/railzwaylabs/subscribe/internal/server"
	"github.com/railzwaylabs/subscribe/internal/subscription"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "subscribe",
		Short:         "Subscription creation and plan catalog service",
		Version:       readVersionFromEnv(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (yaml, toml or json)")

	load := func() (config.Config, error) {
		return config.Load(configPath)
	}

	root.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newSeedCmd(load),
		newAllCmd(load),
		newAnchorCmd(),
	)
	return root
}

type configLoader func() (config.Config, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			fx.New(serveOptions(cfg)...).Run()
			return nil
		},
	}
}

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the local catalog schema up to date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runOnce(cmd.Context(), "migrate",
				config.Module(cfg),
				observability.Module,
				db.Module,
				migration.Module,
			)
		},
	}
}

func newSeedCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo customer and plans into the local catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runOnce(cmd.Context(), "seed",
				config.Module(cfg),
				observability.Module,
				clock.Module,
				db.Module,
				migration.Module,
				fx.Provide(seed.New),
				fx.Invoke(func(s *seed.Seeder) error {
					return s.EnsureDemoCatalog(context.Background())
				}),
			)
		},
	}
}

func newAllCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Migrate, seed the demo catalog, then serve",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Backend != config.BackendLocal {
				return fmt.Errorf("all requires the %s backend", config.BackendLocal)
			}
			opts := append(serveOptions(cfg),
				migration.Module,
				fx.Provide(seed.New),
				fx.Invoke(func(s *seed.Seeder) error {
					return s.EnsureDemoCatalog(context.Background())
				}),
			)
			fx.New(opts...).Run()
			return nil
		},
	}
}

func newAnchorCmd() *cobra.Command {
	var (
		interval    string
		billingTime string
		at          string
	)

	cmd := &cobra.Command{
		Use:   "anchor",
		Short: "Preview the billing anchor for a plan interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedInterval, err := plandomain.ParseInterval(interval)
			if err != nil {
				return err
			}
			mode, err := subscriptiondomain.ParseBillingTimeMode(billingTime)
			if err != nil {
				return err
			}
			now, err := parseAt(at)
			if err != nil {
				return err
			}

			descriptor := billinganchor.Compute(&plandomain.Plan{Interval: parsedInterval}, mode, now)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, billinganchor.Describe(descriptor))
			if next, ok := billinganchor.Next(descriptor, now); ok {
				fmt.Fprintf(out, "next billing: %s\n", next.Format("2006-01-02"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&interval, "interval", "monthly", "plan interval: weekly, monthly or yearly")
	cmd.Flags().StringVar(&billingTime, "billing-time", "calendar", "billing time: calendar or anniversary")
	cmd.Flags().StringVar(&at, "at", "", "evaluation date (YYYY-MM-DD or RFC3339), defaults to today")
	return cmd
}

func serveOptions(cfg config.Config) []fx.Option {
	opts := []fx.Option{
		config.Module(cfg),
		observability.Module,
		clock.Module,
		redis.Module,
		providers.Module(cfg.Backend),
		plan.Module,
		subscription.Module,
		server.Module,
	}
	if cfg.Backend == config.BackendLocal {
		opts = append(opts, db.Module, plan.CreatorModule)
	}
	return opts
}

func runOnce(ctx context.Context, name string, opts ...fx.Option) error {
	app := fx.New(opts...)

	startCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return app.Stop(context.Background())
}

func parseAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: want YYYY-MM-DD or RFC3339", raw)
	}
	return t, nil
}

func readVersionFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}
	return "dev"
}
