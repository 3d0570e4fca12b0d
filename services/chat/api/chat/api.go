package chat

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/medchat-io/medchat/pkg/api"
	"github.com/medchat-io/medchat/pkg/httpserver"
	"github.com/medchat-io/medchat/services/chat/api/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var RelayRequestsCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "medchat",
	Subsystem: "relay",
	Name:      "requests_total",
	Help:      "Count of relay requests by result",
}, []string{"result"})

var RelayRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "medchat",
	Subsystem: "relay",
	Name:      "request_duration_seconds",
	Help:      "Duration of upstream completion calls",
	Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
}, []string{"result"})

// Generator produces an answer for a free-text question.
type Generator interface {
	Answer(ctx context.Context, query string) (string, error)
}

type API struct {
	logger          *zap.Logger
	generator       Generator
	upstreamTimeout time.Duration
}

func New(logger *zap.Logger, generator Generator, upstreamTimeout time.Duration) API {
	return API{
		logger:          logger.Named("chat"),
		generator:       generator,
		upstreamTimeout: upstreamTimeout,
	}
}

// Ask godoc
//
//	@Summary		Ask a question
//	@Description	Forwards the question to the completion API and returns its answer.
//	@Security		BearerToken
//	@Tags			chat
//	@Produce		json
//	@Param			request	body		entity.AskRequest	true	"Request Body"
//	@Success		200		{object}	entity.AskResponse
//	@Failure		500		{object}	echo.HTTPError
//	@Router			/chat/api/v1/chat [post]
func (s API) Ask(c echo.Context) error {
	var req entity.AskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if s.upstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.upstreamTimeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := s.generator.Answer(ctx, req.Query)
	if err != nil {
		RelayRequestsCount.WithLabelValues("failure").Inc()
		RelayRequestsDuration.WithLabelValues("failure").Observe(time.Since(start).Seconds())
		s.logger.Error("failed to get answer from the completion api", zap.Error(err))

		return echo.ErrInternalServerError
	}
	RelayRequestsCount.WithLabelValues("success").Inc()
	RelayRequestsDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, entity.AskResponse{Answer: answer})
}

func (s API) Register(g *echo.Group) {
	g.POST("", httpserver.AuthorizeHandler(s.Ask, api.ViewerRole))
}
