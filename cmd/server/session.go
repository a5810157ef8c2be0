package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"oidcop/internal/oidc/models"
	"oidcop/internal/platform/config"
	httptransport "oidcop/internal/transport/http"
	"oidcop/pkg/platform/secretbox"
)

// newSessionCmd mints the session cookie a login service would set. It is
// meant for local development against the memory driver.
func newSessionCmd(envFiles *[]string) *cobra.Command {
	var (
		subject string
		attrs   []string
		acr     string
	)
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Print a signed-in session cookie for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFiles...)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			key, err := secretbox.DecodeKey(cfg.Crypto.PayloadKey)
			if err != nil {
				return err
			}
			box, err := secretbox.New(cfg.Crypto.PayloadCipher, key)
			if err != nil {
				return err
			}

			attributes := map[string][]string{}
			for _, a := range attrs {
				name, value, ok := strings.Cut(a, "=")
				if !ok || name == "" {
					return fmt.Errorf("attribute %q is not name=value", a)
				}
				attributes[name] = append(attributes[name], value)
			}
			cookie, err := httptransport.NewSessions(box).Cookie(models.Subject{
				ID:          subject,
				Attributes:  attributes,
				AuthInstant: time.Now(),
				ACR:         acr,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cookie.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "subject identifier")
	cmd.Flags().StringArrayVar(&attrs, "attr", nil, "user attribute as name=value, repeatable")
	cmd.Flags().StringVar(&acr, "acr", "", "authentication context class")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
