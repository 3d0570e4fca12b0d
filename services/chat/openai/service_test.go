package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai2 "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockUpstream(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Service) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := New(zap.NewNop(), "test-token", server.URL+"/v1", "gpt-4o-mini", 256)
	require.NoError(t, err)

	return server, svc
}

func TestAnswerForwardsTemplatedPromptVerbatim(t *testing.T) {
	require := require.New(t)

	var gotReq openai2.ChatCompletionRequest
	_, svc := newMockUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		err := json.NewDecoder(r.Body).Decode(&gotReq)
		require.NoError(err)

		w.Header().Set("Content-Type", "application/json")
		err = json.NewEncoder(w).Encode(openai2.ChatCompletionResponse{
			Choices: []openai2.ChatCompletionChoice{
				{Message: openai2.ChatCompletionMessage{Role: openai2.ChatMessageRoleAssistant, Content: "Symptoms include frequent urination..."}},
			},
		})
		require.NoError(err)
	})

	query := "What are the symptoms of diabetes?"
	answer, err := svc.Answer(context.Background(), query)
	require.NoError(err)
	require.Equal("Symptoms include frequent urination...", answer)

	expectedPrompt, err := svc.RenderPrompt(query)
	require.NoError(err)

	require.Len(gotReq.Messages, 1)
	require.Equal(openai2.ChatMessageRoleUser, gotReq.Messages[0].Role)
	require.Equal(expectedPrompt, gotReq.Messages[0].Content)
	require.Contains(gotReq.Messages[0].Content, query)
	require.Equal("gpt-4o-mini", gotReq.Model)
	require.Equal(256, gotReq.MaxTokens)
}

func TestAnswerReturnsUpstreamTextUnmodified(t *testing.T) {
	require := require.New(t)

	const upstreamText = "  an answer with\nnewlines and  spacing preserved "
	_, svc := newMockUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai2.ChatCompletionResponse{
			Choices: []openai2.ChatCompletionChoice{
				{Message: openai2.ChatCompletionMessage{Role: openai2.ChatMessageRoleAssistant, Content: upstreamText}},
			},
		})
	})

	answer, err := svc.Answer(context.Background(), "anything")
	require.NoError(err)
	require.Equal(upstreamText, answer)
}

func TestAnswerPropagatesUpstreamFailure(t *testing.T) {
	require := require.New(t)

	_, svc := newMockUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	})

	_, err := svc.Answer(context.Background(), "anything")
	require.Error(err)
}

func TestAnswerFailsOnEmptyChoices(t *testing.T) {
	require := require.New(t)

	_, svc := newMockUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai2.ChatCompletionResponse{})
	})

	_, err := svc.Answer(context.Background(), "anything")
	require.Error(err)
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(zap.NewNop(), "", "", "gpt-4o-mini", 256)
	require.Error(t, err)
}
