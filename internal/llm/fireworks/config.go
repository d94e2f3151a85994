package fireworks

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the Fireworks vision client.
type Config struct {
	APIKey        string        // if empty, falls back to env FIREWORKS_API_KEY
	BaseURL       string        // default https://api.fireworks.ai/inference/v1
	Model         string        // primary vision model
	FallbackModel string        // used for the single fallback attempt
	Timeout       time.Duration // http client timeout
	MaxTokens     int
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("FIREWORKS_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.fireworks.ai/inference/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "accounts/fireworks/models/qwen2p5-vl-32b-instruct"
	}
	if cfg.FallbackModel == "" {
		cfg.FallbackModel = cfg.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}
