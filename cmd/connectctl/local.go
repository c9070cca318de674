package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellojohn-connect/internal/app"
	"github.com/dropDatabas3/hellojohn-connect/internal/config"
	"github.com/dropDatabas3/hellojohn-connect/internal/identity"
	"github.com/dropDatabas3/hellojohn-connect/internal/store"
	migrations "github.com/dropDatabas3/hellojohn-connect/migrations/postgres"
)

func newSessionCmd() *cobra.Command {
	var (
		secret   = envOr("HJC_SESSION_SECRET", "")
		issuer   = envOr("HJC_SESSION_ISSUER", "")
		audience = envOr("HJC_SESSION_AUDIENCE", "")
		userID   string
		aliases  []string
		ttl      = time.Hour
	)
	cmd := &cobra.Command{Use: "session", Short: "Tokens de sesión (desarrollo)"}
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Emitir un token de sesión firmado con el secreto local",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(userID) == "" {
				return fmt.Errorf("--user es requerido")
			}
			res, err := identity.NewResolver(identity.Config{Secret: secret, Issuer: issuer, Audience: audience})
			if err != nil {
				return err
			}
			tok, err := res.Issue(userID, aliases, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	issue.Flags().StringVar(&secret, "secret", secret, "Secreto HS256 (env HJC_SESSION_SECRET)")
	issue.Flags().StringVar(&issuer, "issuer", issuer, "Claim iss (opcional)")
	issue.Flags().StringVar(&audience, "audience", audience, "Claim aud (opcional)")
	issue.Flags().StringVar(&userID, "user", "", "User id (sub)")
	issue.Flags().StringSliceVar(&aliases, "alias", nil, "Ids previos del usuario")
	issue.Flags().DurationVar(&ttl, "ttl", ttl, "Validez del token")
	cmd.AddCommand(issue)
	return cmd
}

func newMigrateCmd() *cobra.Command {
	configPath := os.Getenv("CONFIG_PATH")
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplicar migraciones del store de integraciones (storage.driver=postgres)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("storage.driver=%q: nada que migrar", cfg.Storage.Driver)
			}
			pool, err := app.OpenPostgres(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			res, err := store.NewMigrator(migrations.IntegrationsFS, migrations.IntegrationsDir).Run(cmd.Context(), pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied=%v skipped=%v duration=%s\n", res.Applied, res.Skipped, res.Duration)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", configPath, "Archivo YAML de configuración (env CONFIG_PATH)")
	return cmd
}

func newKeygenCmd() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generar una clave maestra (base64) para security.master_key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size < 32 {
				return fmt.Errorf("--bytes debe ser >= 32")
			}
			b := make([]byte, size)
			if _, err := rand.Read(b); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(b))
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "bytes", 32, "Tamaño de la clave")
	return cmd
}
