package config

import "github.com/medchat-io/medchat/pkg/koanf"

type OpenAI struct {
	Token          string `json:"token,omitempty" koanf:"token"`
	BaseURL        string `json:"base_url,omitempty" koanf:"base_url"`
	ModelName      string `json:"model_name,omitempty" koanf:"model_name"`
	MaxTokens      int    `json:"max_tokens,omitempty" koanf:"max_tokens"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" koanf:"timeout_seconds"`
}

type ChatConfig struct {
	OpenAI OpenAI               `json:"openai,omitempty" koanf:"openai"`
	Auth   koanf.MedChatService `json:"auth,omitempty" koanf:"auth"`
	Http   koanf.HttpServer     `json:"http,omitempty" koanf:"http"`
}
