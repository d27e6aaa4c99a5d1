package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dzahariev/respite-users/api"
	"github.com/dzahariev/respite-users/auth"
	"github.com/dzahariev/respite-users/cfg"
	"github.com/dzahariev/respite-users/repo"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "respite-users",
		Short:         "HTTP resource service for users",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	var port string
	var backend string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			config, err := cfg.Load(ctx)
			if err != nil {
				return fmt.Errorf("cannot load configuration: %w", err)
			}
			if port != "" {
				config.Server.Port = port
			}
			if backend != "" {
				config.Store.Backend = backend
			}

			var authClient auth.Client
			if config.Keycloak.Enabled() {
				authClient = auth.NewClient(config.Keycloak)
			}
			server, err := api.NewServer(*config, authClient)
			if err != nil {
				return err
			}
			if gormStore, ok := server.Store.(*repo.GormStore); ok {
				if err := gormStore.Migrate(ctx); err != nil {
					return err
				}
			}
			return server.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "port to listen on, overrides SERVER_PORT")
	cmd.Flags().StringVar(&backend, "backend", "", "store backend (memory or postgres), overrides STORE_BACKEND")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the users table in postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			config, err := cfg.Load(ctx)
			if err != nil {
				return fmt.Errorf("cannot load configuration: %w", err)
			}
			api.InitLogger(config.Logger)
			db, err := api.OpenDB(config.DataBase)
			if err != nil {
				return err
			}
			err = repo.NewGormStore(db).Migrate(ctx)
			if err != nil {
				return err
			}
			slog.Info("Migration finished")
			return nil
		},
	}
}
