package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/medchat-io/medchat/pkg/api"
	"github.com/medchat-io/medchat/pkg/httpserver"
	"github.com/medchat-io/medchat/services/chat/api/entity"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	answer    string
	err       error
	block     bool
	lastQuery string
}

func (f *fakeGenerator) Answer(ctx context.Context, query string) (string, error) {
	f.lastQuery = query
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type chatRoutes struct {
	handler API
}

func (r *chatRoutes) Register(e *echo.Echo) {
	r.handler.Register(e.Group("/api/v1/chat"))
}

type ChatAPISuite struct {
	suite.Suite

	generator *fakeGenerator
	router    *echo.Echo
}

func TestChatAPI(t *testing.T) {
	suite.Run(t, &ChatAPISuite{})
}

func (s *ChatAPISuite) SetupTest() {
	s.generator = &fakeGenerator{answer: "Symptoms include frequent urination..."}
	s.router = httpserver.Register(zap.NewNop(), &chatRoutes{
		handler: New(zap.NewNop(), s.generator, 5*time.Second),
	})
}

func (s *ChatAPISuite) doAsk(role string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if role != "" {
		req.Header.Set(httpserver.XMedChatUserRoleHeader, role)
		req.Header.Set(httpserver.XMedChatUserIDHeader, "local|tester@example.com")
	}

	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)
	return recorder
}

func (s *ChatAPISuite) TestAskReturnsAnswer() {
	require := s.Require()

	recorder := s.doAsk(string(api.ViewerRole), entity.AskRequest{Query: "What are the symptoms of diabetes?"})
	require.Equal(http.StatusOK, recorder.Code, recorder.Body.String())

	var resp entity.AskResponse
	require.NoError(json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Equal("Symptoms include frequent urination...", resp.Answer)
	require.Equal("What are the symptoms of diabetes?", s.generator.lastQuery)
}

func (s *ChatAPISuite) TestAskWithoutIdentityRejected() {
	require := s.Require()

	recorder := s.doAsk("", entity.AskRequest{Query: "anything"})
	require.Equal(http.StatusUnauthorized, recorder.Code, recorder.Body.String())
	require.Equal("", s.generator.lastQuery)
}

func (s *ChatAPISuite) TestAskWithoutQueryRejected() {
	require := s.Require()

	recorder := s.doAsk(string(api.ViewerRole), map[string]any{})
	require.Equal(http.StatusBadRequest, recorder.Code, recorder.Body.String())
}

func (s *ChatAPISuite) TestAskUpstreamFailureIsGenericServerError() {
	require := s.Require()

	s.generator.err = errors.New("upstream unreachable")

	recorder := s.doAsk(string(api.ViewerRole), entity.AskRequest{Query: "anything"})
	require.Equal(http.StatusInternalServerError, recorder.Code, recorder.Body.String())
}

func (s *ChatAPISuite) TestAskUpstreamTimeoutIsGenericServerError() {
	require := s.Require()

	blocking := &fakeGenerator{block: true}
	router := httpserver.Register(zap.NewNop(), &chatRoutes{
		handler: New(zap.NewNop(), blocking, 20*time.Millisecond),
	})

	failuresBefore := testutil.ToFloat64(RelayRequestsCount.WithLabelValues("failure"))

	payload, err := json.Marshal(entity.AskRequest{Query: "anything"})
	require.NoError(err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(httpserver.XMedChatUserRoleHeader, string(api.ViewerRole))
	req.Header.Set(httpserver.XMedChatUserIDHeader, "local|tester@example.com")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(http.StatusInternalServerError, recorder.Code, recorder.Body.String())
	require.Equal(failuresBefore+1, testutil.ToFloat64(RelayRequestsCount.WithLabelValues("failure")))
}
