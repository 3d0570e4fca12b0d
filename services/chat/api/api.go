package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/medchat-io/medchat/services/auth/client"
	"github.com/medchat-io/medchat/services/chat/api/chat"
	"github.com/medchat-io/medchat/services/chat/openai"
	"github.com/medchat-io/medchat/services/chat/ui"
	"go.uber.org/zap"
)

type API struct {
	logger          *zap.Logger
	assistant       *openai.Service
	authClient      client.AuthServiceClient
	upstreamTimeout time.Duration
}

func New(
	logger *zap.Logger,
	assistant *openai.Service,
	authClient client.AuthServiceClient,
	upstreamTimeout time.Duration,
) *API {
	return &API{
		logger:          logger.Named("api"),
		assistant:       assistant,
		authClient:      authClient,
		upstreamTimeout: upstreamTimeout,
	}
}

func (api *API) Register(e *echo.Echo) {
	ui.Register(e)

	g := e.Group("/api/v1/chat")
	if api.authClient != nil {
		g.Use(client.Middleware(api.authClient, api.logger))
	}

	h := chat.New(api.logger, api.assistant, api.upstreamTimeout)
	h.Register(g)
}
