package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/medchat-io/medchat/pkg/api"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeHandler(t *testing.T) {
	okHandler := func(ctx echo.Context) error {
		return ctx.NoContent(http.StatusOK)
	}

	tests := []struct {
		name         string
		role         string
		minRole      api.Role
		expectedCode int
	}{
		{name: "missing role header", role: "", minRole: api.ViewerRole, expectedCode: http.StatusUnauthorized},
		{name: "viewer may read", role: "viewer", minRole: api.ViewerRole, expectedCode: http.StatusOK},
		{name: "viewer may not administer", role: "viewer", minRole: api.AdminRole, expectedCode: http.StatusForbidden},
		{name: "editor may edit", role: "editor", minRole: api.EditorRole, expectedCode: http.StatusOK},
		{name: "editor may not administer", role: "editor", minRole: api.AdminRole, expectedCode: http.StatusForbidden},
		{name: "admin may do everything", role: "admin", minRole: api.AdminRole, expectedCode: http.StatusOK},
		{name: "unknown role downgraded to viewer", role: "superuser", minRole: api.EditorRole, expectedCode: http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/", AuthorizeHandler(okHandler, tc.minRole))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.role != "" {
				req.Header.Set(XMedChatUserRoleHeader, tc.role)
			}
			recorder := httptest.NewRecorder()
			e.ServeHTTP(recorder, req)

			require.Equal(t, tc.expectedCode, recorder.Code)
		})
	}
}

func TestGetUserIdentity(t *testing.T) {
	require := require.New(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(XMedChatUserIDHeader, "local|user@example.com")
	req.Header.Set(XMedChatUserRoleHeader, "editor")
	req.Header.Set(XMedChatUserEmailHeader, "user@example.com")
	ctx := e.NewContext(req, httptest.NewRecorder())

	require.Equal("local|user@example.com", GetUserID(ctx))
	require.Equal(api.EditorRole, GetUserRole(ctx))
	require.Equal("user@example.com", GetUserEmail(ctx))

	bare := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	require.Panics(func() { GetUserID(bare) })
	require.Panics(func() { GetUserRole(bare) })
	require.Empty(GetUserEmail(bare))
}
