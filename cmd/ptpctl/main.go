package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/marcdasilva/passtheplate/internal/adapters/gemini"
	"github.com/marcdasilva/passtheplate/internal/adapters/http"
	"github.com/marcdasilva/passtheplate/internal/adapters/postgres"
	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/core/usecases"
	"github.com/marcdasilva/passtheplate/internal/pkg/config"
	"github.com/marcdasilva/passtheplate/internal/pkg/logging"
	"github.com/marcdasilva/passtheplate/migrations"
)

var logLevel string

func main() {
	rootCmd := &cobra.Command{
		Use:           "ptpctl",
		Short:         "PassThePlate administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup("passtheplate-ctl", logLevel, "text")
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(backfillLocationsCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load("passtheplate-ctl")
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
	}

	run := func(fn func(ctx context.Context, p *goose.Provider) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := sql.Open("pgx", cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
			if err != nil {
				return fmt.Errorf("goose provider: %w", err)
			}
			return fn(cmd.Context(), provider)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, p *goose.Provider) error {
			results, err := p.Up(ctx)
			for _, r := range results {
				fmt.Printf("OK   %s (%s)\n", r.Source.Path, r.Duration.Round(time.Millisecond))
			}
			if err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			if len(results) == 0 {
				fmt.Println("no pending migrations")
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, p *goose.Provider) error {
			r, err := p.Down(ctx)
			if err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			fmt.Printf("DOWN %s\n", r.Source.Path)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, p *goose.Provider) error {
			statuses, err := p.Status(ctx)
			if err != nil {
				return fmt.Errorf("migrate status: %w", err)
			}
			for _, s := range statuses {
				applied := "pending"
				if s.State == goose.StateApplied {
					applied = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Printf("%-30s %s\n", s.Source.Path, applied)
			}
			return nil
		}),
	})

	return cmd
}

func backfillLocationsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "backfill-locations",
		Short: "Name the coordinates of donations, requests and payments",
		Long: "Collects coordinates from stored donations, requests and monetary donations " +
			"and resolves each through the locations table, naming unknown ones with the AI model.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := postgres.New(ctx, cfg.Database.DSN())
			if err != nil {
				return err
			}
			defer db.Close()

			points, err := collectPoints(ctx, db, limit)
			if err != nil {
				return err
			}

			models := gemini.New(cfg.AI)
			locations := usecases.NewLocationService(
				postgres.NewLocationRepo(db.Pool), nil,
				usecases.NewAIService(models.Vision, models.Text),
				cfg.AI.MaxConcurrency,
			)

			names := locations.NameMany(ctx, points)
			unnamed := 0
			for p, name := range names {
				if name == usecases.FormatCoordinates(p.Lat, p.Lon) {
					unnamed++
				}
			}
			fmt.Printf("resolved %d locations, %d left as coordinates\n", len(names), unnamed)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 500, "rows to read from each table")
	return cmd
}

func collectPoints(ctx context.Context, db *postgres.DB, limit int) ([]domain.GeoPoint, error) {
	var points []domain.GeoPoint

	donations, err := postgres.NewDonationRepo(db.Pool).List(ctx, ports.DonationFilter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	for _, d := range donations {
		points = append(points, domain.GeoPoint{Lat: d.Latitude, Lon: d.Longitude})
	}

	requests, err := postgres.NewRequestRepo(db.Pool).List(ctx, ports.RequestFilter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	for _, r := range requests {
		points = append(points, domain.GeoPoint{Lat: r.Latitude, Lon: r.Longitude})
	}

	payments, err := postgres.NewMonetaryDonationRepo(db.Pool).List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list monetary donations: %w", err)
	}
	for _, m := range payments {
		points = append(points,
			domain.GeoPoint{Lat: m.FromLatitude, Lon: m.FromLongitude},
			domain.GeoPoint{Lat: m.ToLatitude, Lon: m.ToLongitude},
		)
	}
	return points, nil
}

func tokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an access token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret is not set")
			}
			tok, err := http.NewTokens(cfg.Auth.JWTSecret).Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
