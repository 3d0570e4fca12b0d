package ui

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed index.html
var indexHTML []byte

// Register mounts the chat page at the root path.
func Register(e *echo.Echo) {
	e.GET("/", func(ctx echo.Context) error {
		return ctx.HTMLBlob(http.StatusOK, indexHTML)
	})
}
