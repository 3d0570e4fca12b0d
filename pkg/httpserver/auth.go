package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/medchat-io/medchat/pkg/api"
)

const (
	XMedChatUserIDHeader    = "X-MedChat-UserId"
	XMedChatUserRoleHeader  = "X-MedChat-UserRole"
	XMedChatUserEmailHeader = "X-MedChat-UserEmail"
)

func AuthorizeHandler(h echo.HandlerFunc, minRole api.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if err := RequireMinRole(ctx, minRole); err != nil {
			return err
		}

		return h(ctx)
	}
}

func RequireMinRole(ctx echo.Context, minRole api.Role) error {
	role := ctx.Request().Header.Get(XMedChatUserRoleHeader)
	if strings.TrimSpace(role) == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	if !hasAccess(api.GetRole(role), minRole) {
		return echo.NewHTTPError(http.StatusForbidden, "missing required permission")
	}

	return nil
}

func GetUserID(ctx echo.Context) string {
	id := ctx.Request().Header.Get(XMedChatUserIDHeader)
	if strings.TrimSpace(id) == "" {
		panic(fmt.Errorf("header %s is missing", XMedChatUserIDHeader))
	}

	return id
}

func GetUserRole(ctx echo.Context) api.Role {
	role := ctx.Request().Header.Get(XMedChatUserRoleHeader)
	if strings.TrimSpace(role) == "" {
		panic(fmt.Errorf("header %s is missing", XMedChatUserRoleHeader))
	}

	return api.GetRole(role)
}

func GetUserEmail(ctx echo.Context) string {
	return ctx.Request().Header.Get(XMedChatUserEmailHeader)
}

func roleToPriority(role api.Role) int {
	switch role {
	case api.ViewerRole:
		return 0
	case api.EditorRole:
		return 1
	case api.AdminRole:
		return 2
	default:
		panic("unsupported role: " + role)
	}
}

func hasAccess(currRole, minRole api.Role) bool {
	return roleToPriority(currRole) >= roleToPriority(minRole)
}
