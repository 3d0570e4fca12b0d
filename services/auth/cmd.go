package auth

import (
	"errors"

	"github.com/medchat-io/medchat/pkg/httpserver"
	"github.com/medchat-io/medchat/pkg/koanf"
	"github.com/medchat-io/medchat/services/auth/config"
	"github.com/medchat-io/medchat/services/auth/db"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func Command() *cobra.Command {
	cnf := koanf.Provide("auth", config.AuthConfig{
		Http: koanf.HttpServer{Address: ":8251"},
	})

	cmd := &cobra.Command{
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}

			logger = logger.Named("auth")

			if cnf.Token.SigningSecret == "" {
				return errors.New("token signing secret is not set")
			}

			database, err := db.New(cnf.Postgres, logger)
			if err != nil {
				return err
			}
			if err := database.Initialize(); err != nil {
				return err
			}

			authServer := &Server{
				logger:     logger,
				signingKey: []byte(cnf.Token.SigningSecret),
				db:         database,
			}
			if cnf.Token.OidcIssuer != "" {
				verifier, err := newOidcVerifier(cmd.Context(), cnf.Token.OidcIssuer, cnf.Token.OidcClientID)
				if err != nil {
					return err
				}
				authServer.verifier = verifier
			}

			cmd.SilenceUsage = true

			return httpserver.RegisterAndStart(
				logger,
				cnf.Http.Address,
				&httpRoutes{
					logger:     logger,
					signingKey: []byte(cnf.Token.SigningSecret),
					db:         database,
					authServer: authServer,
				},
			)
		},
	}

	return cmd
}
