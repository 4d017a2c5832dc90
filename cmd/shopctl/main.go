package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	shopservice "cakeshop/contexts/shop/shop-service"
	shoppostgres "cakeshop/contexts/shop/shop-service/adapters/postgres"
	shopports "cakeshop/contexts/shop/shop-service/ports"
	"cakeshop/internal/platform/config"
	"cakeshop/internal/platform/db"
	"cakeshop/internal/platform/httpserver"
	"cakeshop/internal/platform/migrations"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Operator CLI: schema migrations, merchant onboarding and dev tokens.
func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	dsn    string
	secret string
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Operate a cakeshop deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&flags.dsn, "dsn", "", "postgres DSN (defaults to POSTGRES_DSN)")
	root.PersistentFlags().StringVar(&flags.secret, "jwt-secret", "", "token signing secret (defaults to JWT_SECRET)")

	root.AddCommand(
		newMigrateCmd(flags),
		newCreateShopCmd(flags),
		newIssueTokenCmd(flags),
	)
	return root
}

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(flags, func(pg *db.Postgres) error {
				sqlDB, err := pg.SQL()
				if err != nil {
					return err
				}
				if err := migrations.Up(sqlDB, cliLogger(cmd)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(flags, func(pg *db.Postgres) error {
				sqlDB, err := pg.SQL()
				if err != nil {
					return err
				}
				if err := migrations.Down(sqlDB, steps, cliLogger(cmd)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "rolled back")
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back, 0 for all")

	migrate.AddCommand(up, down)
	return migrate
}

func newCreateShopCmd(flags *globalFlags) *cobra.Command {
	var input shopports.CreateShopInput
	cmd := &cobra.Command{
		Use:   "create-shop",
		Short: "Create a shop for a merchant account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(input.OwnerID) == "" {
				input.OwnerID = uuid.NewString()
			}
			return withDatabase(flags, func(pg *db.Postgres) error {
				logger := cliLogger(cmd)
				repo := shoppostgres.NewRepository(pg.DB, logger)
				module := shopservice.NewModule(shopservice.Dependencies{
					Shops:          repo,
					FAQs:           repo,
					Idempotency:    repo,
					Clock:          shoppostgres.SystemClock{},
					IDGenerator:    shoppostgres.UUIDGenerator{},
					IdempotencyTTL: 24 * time.Hour,
					Logger:         logger,
				})
				shop, err := module.Service.CreateShop(cmd.Context(), "shopctl-"+uuid.NewString(), input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "shop %s created for owner %s (slug %s)\n", shop.ShopID, shop.OwnerID, shop.Slug)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input.OwnerID, "owner", "", "merchant account id, generated when empty")
	cmd.Flags().StringVar(&input.Slug, "slug", "", "storefront slug")
	cmd.Flags().StringVar(&input.Name, "name", "", "shop name")
	cmd.Flags().StringVar(&input.Email, "email", "", "shop contact email")
	_ = cmd.MarkFlagRequired("slug")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newIssueTokenCmd(flags *globalFlags) *cobra.Command {
	var (
		subject string
		email   string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Sign a merchant dashboard token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := strings.TrimSpace(flags.secret)
			if secret == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				secret = cfg.JWTSecret
			}
			if secret == "" {
				return errors.New("a signing secret is required: set JWT_SECRET or --jwt-secret")
			}
			token, err := httpserver.NewAuthenticator(secret).Issue(subject, email, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "merchant account id")
	cmd.Flags().StringVar(&email, "email", "", "merchant email")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func withDatabase(flags *globalFlags, fn func(*db.Postgres) error) error {
	dsn := strings.TrimSpace(flags.dsn)
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dsn = cfg.PostgresDSN
	}
	if dsn == "" {
		return errors.New("a postgres DSN is required: set POSTGRES_DSN or --dsn")
	}
	pg, err := db.Connect(dsn)
	if err != nil {
		return err
	}
	defer pg.Close()
	return fn(pg)
}

func cliLogger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
}
