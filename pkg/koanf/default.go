package koanf

type Postgres struct {
	Host     string `json:"host,omitempty" koanf:"host"`
	Port     string `json:"port,omitempty" koanf:"port"`
	DB       string `json:"db,omitempty" koanf:"db"`
	Username string `json:"username,omitempty" koanf:"username"`
	Password string `json:"password,omitempty" koanf:"password"`
	SSLMode  string `json:"ssl_mode,omitempty" koanf:"ssl_mode"`
}

type HttpServer struct {
	Address string `json:"address,omitempty" koanf:"address"`
}

type MedChatService struct {
	BaseURL string `json:"base_url,omitempty" koanf:"base_url"`
}
