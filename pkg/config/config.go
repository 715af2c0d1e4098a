package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting, populated from the environment.
// A .env file in the working directory is loaded first when present.
type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:"limitless.db"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`

	OneInchAPIKey  string `envconfig:"ONEINCH_API_KEY" required:"true"`
	OneInchBaseURL string `envconfig:"ONEINCH_BASE_URL" default:"https://api.1inch.dev"`

	PrivyAppID     string `envconfig:"PRIVY_APP_ID" required:"true"`
	PrivyAppSecret string `envconfig:"PRIVY_APP_SECRET" required:"true"`

	// Swap execution credentials. When RPCURL or PrivateKey is empty the swap
	// service runs in quotes-only mode: quotes are returned for client-side
	// execution and no orders are signed server-side.
	RPCURL     string `envconfig:"RPC_URL"`
	PrivateKey string `envconfig:"PRIVATE_KEY"`

	// AI loop tuning.
	AIMaxIterations  int `envconfig:"AI_MAX_ITERATIONS" default:"5"`
	AIHistoryWindow  int `envconfig:"AI_HISTORY_WINDOW" default:"10"`
	AIRequestTimeout int `envconfig:"AI_REQUEST_TIMEOUT_SECONDS" default:"120"`
}

// SwapExecutionEnabled reports whether server-side swap execution is
// configured. When false the swap service only produces quotes.
func (c *Config) SwapExecutionEnabled() bool {
	return c.RPCURL != "" && c.PrivateKey != ""
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}
