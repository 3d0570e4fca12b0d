package config

import "github.com/medchat-io/medchat/pkg/koanf"

type Token struct {
	SigningSecret string `json:"signing_secret,omitempty" koanf:"signing_secret"`
	OidcIssuer    string `json:"oidc_issuer,omitempty" koanf:"oidc_issuer"`
	OidcClientID  string `json:"oidc_client_id,omitempty" koanf:"oidc_client_id"`
}

type AuthConfig struct {
	Postgres koanf.Postgres   `json:"postgres,omitempty" koanf:"postgres"`
	Token    Token            `json:"token,omitempty" koanf:"token"`
	Http     koanf.HttpServer `json:"http,omitempty" koanf:"http"`
}
