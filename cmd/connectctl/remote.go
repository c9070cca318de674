package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

type preRun func(cmd *cobra.Command, args []string) error

func newProvidersCmd(cl *client, pre preRun) *cobra.Command {
	cmd := &cobra.Command{Use: "providers", Short: "Providers habilitados"}
	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "Listar providers conectables",
		PreRunE: pre,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := cl.call(cmd.Context(), "providers list", http.MethodGet, "/v2/integrations/providers", nil)
			if err != nil {
				return err
			}
			cl.print(b)
			return nil
		},
	})
	return cmd
}

func newIntegrationsCmd(cl *client, pre preRun) *cobra.Command {
	cmd := &cobra.Command{Use: "integrations", Short: "Integraciones del usuario del token"}

	list := &cobra.Command{
		Use:     "list",
		Short:   "Listar integraciones",
		PreRunE: pre,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := cl.call(cmd.Context(), "integrations list", http.MethodGet, "/v2/integrations", nil)
			if err != nil {
				return err
			}
			cl.print(b)
			return nil
		},
	}

	sync := &cobra.Command{
		Use:     "sync <id>",
		Short:   "Disparar una sincronización",
		Args:    cobra.ExactArgs(1),
		PreRunE: pre,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := cl.call(cmd.Context(), "integrations sync", http.MethodPost, "/v2/integrations/"+url.PathEscape(args[0])+"/sync", nil)
			if err != nil {
				return err
			}
			cl.print(b)
			return nil
		},
	}

	disconnect := &cobra.Command{
		Use:     "disconnect <id>",
		Short:   "Desconectar una integración",
		Args:    cobra.ExactArgs(1),
		PreRunE: pre,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := cl.call(cmd.Context(), "integrations disconnect", http.MethodDelete, "/v2/integrations/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			cl.print(b)
			return nil
		},
	}

	var provider, accessToken string
	test := &cobra.Command{
		Use:     "test",
		Short:   "Probar un access token contra el provider",
		PreRunE: pre,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if provider == "" || accessToken == "" {
				return fmt.Errorf("--provider y --access-token son requeridos")
			}
			b, err := cl.call(cmd.Context(), "integrations test", http.MethodPost, "/v2/integrations/test", map[string]string{
				"provider":    provider,
				"accessToken": accessToken,
			})
			if err != nil {
				return err
			}
			cl.print(b)
			return nil
		},
	}
	test.Flags().StringVar(&provider, "provider", "", "Provider id (ej. hubspot)")
	test.Flags().StringVar(&accessToken, "access-token", "", "Access token a probar")

	cmd.AddCommand(list, sync, disconnect, test)
	return cmd
}
