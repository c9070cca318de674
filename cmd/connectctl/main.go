// connectctl es la CLI operativa del orquestador de conexiones: consulta y
// gestiona integraciones vía la API y ejecuta tareas locales (migraciones,
// tokens de sesión de desarrollo, claves).
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cl := &client{
		BaseURL:   envOr("HJC_API_URL", "http://localhost:8080"),
		Token:     envOr("HJC_TOKEN", ""),
		OutFormat: envOr("HJC_OUT", "text"),
	}
	timeout := 30 * time.Second

	root := &cobra.Command{
		Use:           "connectctl",
		Short:         "CLI de hellojohn-connect",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cl.BaseURL, "api-url", cl.BaseURL, "URL base del servicio (env HJC_API_URL)")
	root.PersistentFlags().StringVar(&cl.Token, "token", cl.Token, "Token de sesión Bearer (env HJC_TOKEN)")
	root.PersistentFlags().StringVar(&cl.OutFormat, "out", cl.OutFormat, "Formato de salida: json|text")
	root.PersistentFlags().DurationVar(&timeout, "timeout", timeout, "Timeout HTTP")

	// los comandos remotos resuelven el cliente después de parsear flags
	remote := func(cmd *cobra.Command, _ []string) error {
		if cl.Token == "" {
			return fmt.Errorf("falta token de sesión (flag --token o env HJC_TOKEN)")
		}
		cl.HTTP = &http.Client{Timeout: timeout}
		cl.Out = cmd.OutOrStdout()
		return nil
	}

	root.AddCommand(
		newProvidersCmd(cl, remote),
		newIntegrationsCmd(cl, remote),
		newSessionCmd(),
		newMigrateCmd(),
		newKeygenCmd(),
	)
	return root
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
