package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// answerPromptTemplate is the fixed prompt wrapped around every incoming
// question. The question is substituted verbatim.
const answerPromptTemplate = `You are a medical information assistant. Answer the following patient question clearly and concisely. Do not provide a diagnosis; recommend consulting a healthcare professional where appropriate.

Question: {{ .Query }}

Answer:`

type Service struct {
	logger *zap.Logger

	Model     string
	MaxTokens int

	promptTemplate *template.Template
	client         *openai.Client
}

func New(logger *zap.Logger, token, baseURL, modelName string, maxTokens int) (*Service, error) {
	if token == "" {
		return nil, errors.New("openai token is required")
	}

	config := openai.DefaultConfig(token)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	tmpl, err := template.New("answer").Parse(answerPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template due to %v", err)
	}

	return &Service{
		logger:         logger,
		Model:          modelName,
		MaxTokens:      maxTokens,
		promptTemplate: tmpl,
		client:         openai.NewClientWithConfig(config),
	}, nil
}

// RenderPrompt substitutes the query into the fixed prompt template.
func (s *Service) RenderPrompt(query string) (string, error) {
	var out bytes.Buffer
	if err := s.promptTemplate.Execute(&out, struct{ Query string }{Query: query}); err != nil {
		return "", fmt.Errorf("failed to render prompt due to %v", err)
	}

	return out.String(), nil
}

// Answer forwards the query to the completion API and returns the generated
// text unmodified. One outbound call per invocation, no retries.
func (s *Service) Answer(ctx context.Context, query string) (string, error) {
	prompt, err := s.RenderPrompt(query)
	if err != nil {
		return "", err
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.Model,
		MaxTokens: s.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion due to %v", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (s *Service) Client() *openai.Client {
	return s.client
}
