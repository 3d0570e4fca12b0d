package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/medchat-io/medchat/pkg/api"
	"github.com/medchat-io/medchat/pkg/httpserver"
)

var client = &http.Client{Timeout: 30 * time.Second}

// Context carries the caller identity between services. Its headers are
// trusted by the receiving service the same way gateway-installed identity
// headers are.
type Context struct {
	Ctx context.Context

	UserID    string
	UserRole  api.Role
	UserEmail string
}

func (c *Context) ToHeaders() map[string]string {
	headers := map[string]string{}
	if c.UserID != "" {
		headers[httpserver.XMedChatUserIDHeader] = c.UserID
	}
	if c.UserRole != "" {
		headers[httpserver.XMedChatUserRoleHeader] = string(c.UserRole)
	}
	if c.UserEmail != "" {
		headers[httpserver.XMedChatUserEmailHeader] = c.UserEmail
	}
	return headers
}

// DoRequest performs a JSON request and decodes the response body into v
// when v is not nil. It returns the response status code alongside any
// error so callers can translate client errors.
func DoRequest(ctx context.Context, method, url string, headers map[string]string, payload []byte, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set(echo.HeaderContentType, "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	res, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return res.StatusCode, fmt.Errorf("http status %d: %s", res.StatusCode, string(body))
	}

	if v == nil {
		return res.StatusCode, nil
	}

	return res.StatusCode, json.Unmarshal(body, v)
}
