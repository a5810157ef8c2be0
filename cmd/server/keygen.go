package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	jwttoken "oidcop/internal/jwt_token"
	"oidcop/pkg/platform/secretbox"
)

func newKeygenCmd() *cobra.Command {
	var (
		out  string
		bits int
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an RSA signing key and a payload encryption key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := jwttoken.GenerateKey(bits)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, jwttoken.EncodePrivateKeyPEM(key), 0o600); err != nil {
				return fmt.Errorf("write signing key: %w", err)
			}

			payload := make([]byte, secretbox.KeySize)
			if _, err := rand.Read(payload); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "OIDC_CRYPTO_SIGNING_KEY_PATH=%s\n", out)
			fmt.Fprintf(w, "OIDC_CRYPTO_PAYLOAD_KEY=%s\n", base64.StdEncoding.EncodeToString(payload))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "signing.pem", "where to write the PEM encoded signing key")
	cmd.Flags().IntVar(&bits, "bits", 2048, "RSA key size")
	return cmd
}
