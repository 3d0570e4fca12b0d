package chat

import (
	"time"

	"github.com/medchat-io/medchat/pkg/httpserver"
	"github.com/medchat-io/medchat/pkg/koanf"
	"github.com/medchat-io/medchat/services/auth/client"
	"github.com/medchat-io/medchat/services/chat/api"
	"github.com/medchat-io/medchat/services/chat/config"
	"github.com/medchat-io/medchat/services/chat/openai"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func Command() *cobra.Command {
	cnf := koanf.Provide("chat", config.ChatConfig{
		OpenAI: config.OpenAI{
			ModelName:      "gpt-4o-mini",
			MaxTokens:      512,
			TimeoutSeconds: 60,
		},
		Http: koanf.HttpServer{Address: ":8250"},
	})

	cmd := &cobra.Command{
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}

			logger = logger.Named("chat")

			oc, err := openai.New(logger, cnf.OpenAI.Token, cnf.OpenAI.BaseURL, cnf.OpenAI.ModelName, cnf.OpenAI.MaxTokens)
			if err != nil {
				return err
			}

			var authClient client.AuthServiceClient
			if cnf.Auth.BaseURL != "" {
				authClient = client.NewAuthClient(cnf.Auth.BaseURL)
			}

			cmd.SilenceUsage = true

			return httpserver.RegisterAndStart(
				logger,
				cnf.Http.Address,
				api.New(logger, oc, authClient, time.Duration(cnf.OpenAI.TimeoutSeconds)*time.Second),
			)
		},
	}

	return cmd
}
