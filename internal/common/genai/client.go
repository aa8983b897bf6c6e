// internal/common/genai/client.go
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	commonhttp "enrichment-workers/internal/common/http"
)

var (
	ErrGeneratorTimeout     = errors.New("GENERATOR_TIMEOUT")
	ErrGeneratorUnavailable = errors.New("GENERATOR_UNAVAILABLE")
	ErrEmptyCompletion      = errors.New("GENERATOR_EMPTY_COMPLETION")
)

type Config struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:8000",
		Timeout:     30 * time.Second,
		MaxTokens:   1500,
		Temperature: 0.2,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("genai base_url is required")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("genai max_tokens must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("genai temperature must be between 0 and 2")
	}
	return nil
}

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Client calls the text generation service. It makes exactly one request per
// Generate call and never retries.
type Client struct {
	config Config
	http   *commonhttp.Client
}

func NewClient(config Config) *Client {
	return &Client{
		config: config,
		// Generate sets the deadline on the request context.
		http: commonhttp.NewClient(0),
	}
}

// NewClientWithHTTP is used by tests to inject a transport.
func NewClientWithHTTP(config Config, hc *commonhttp.Client) *Client {
	return &Client{config: config, http: hc}
}

// Generate posts the prompt to {base}/api/ai/generate and returns the text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	headers := map[string]string{}
	if c.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.config.APIKey
	}

	var resp generateResponse
	err := c.http.PostJSON(ctx, strings.TrimRight(c.config.BaseURL, "/")+"/api/ai/generate", headers, generateRequest{
		Prompt:      prompt,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}, &resp)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrGeneratorTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Text, nil
}
