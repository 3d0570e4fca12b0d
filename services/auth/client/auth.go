package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/medchat-io/medchat/pkg/httpclient"
	"github.com/medchat-io/medchat/pkg/httpserver"
	"github.com/medchat-io/medchat/services/auth/api"
	"go.uber.org/zap"
)

type AuthServiceClient interface {
	Check(ctx context.Context, authorizationHeader string) (*api.CheckResponse, error)
	ListUsers(ctx *httpclient.Context) ([]api.GetUsersResponse, error)
}

type authClient struct {
	baseURL string
}

func NewAuthClient(baseURL string) AuthServiceClient {
	return &authClient{baseURL: baseURL}
}

func (s *authClient) Check(ctx context.Context, authorizationHeader string) (*api.CheckResponse, error) {
	url := fmt.Sprintf("%s/api/v1/check", s.baseURL)

	var resp api.CheckResponse
	headers := map[string]string{
		echo.HeaderAuthorization: authorizationHeader,
	}
	if statusCode, err := httpclient.DoRequest(ctx, http.MethodGet, url, headers, nil, &resp); err != nil {
		if 400 <= statusCode && statusCode < 500 {
			return nil, echo.NewHTTPError(statusCode, err.Error())
		}
		return nil, err
	}
	return &resp, nil
}

func (s *authClient) ListUsers(ctx *httpclient.Context) ([]api.GetUsersResponse, error) {
	url := fmt.Sprintf("%s/api/v1/users", s.baseURL)

	var users []api.GetUsersResponse
	if statusCode, err := httpclient.DoRequest(ctx.Ctx, http.MethodGet, url, ctx.ToHeaders(), nil, &users); err != nil {
		if 400 <= statusCode && statusCode < 500 {
			return nil, echo.NewHTTPError(statusCode, err.Error())
		}
		return nil, err
	}
	return users, nil
}

// Middleware verifies the inbound bearer token against the auth service and
// installs the returned identity headers on the request. Requests that fail
// verification never reach the wrapped handlers.
func Middleware(client AuthServiceClient, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res, err := client.Check(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				logger.Warn("denied access due to unsuccessful token verification", zap.Error(err))
				return echo.NewHTTPError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
			}

			c.Request().Header.Set(httpserver.XMedChatUserIDHeader, res.UserID)
			c.Request().Header.Set(httpserver.XMedChatUserRoleHeader, string(res.RoleName))
			c.Request().Header.Set(httpserver.XMedChatUserEmailHeader, res.Email)

			return next(c)
		}
	}
}
