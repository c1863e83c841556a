// Package imagegen wraps the remote image-generation provider behind a small
// Generator interface so the workflow can be exercised without the network.
package imagegen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"
)

// Generator produces one image for a prompt and returns its URL.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds the provider configuration.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Size        string
	Timeout     time.Duration
	MaxInFlight int64
}

// DefaultConfig returns the default configuration: one square high-resolution
// image per request from the dall-e-3 model.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		Model:       openai.CreateImageModelDallE3,
		Size:        openai.CreateImageSize1024x1024,
		Timeout:     60 * time.Second,
		MaxInFlight: 3,
	}
}

// Client generates images through the OpenAI Images API.
type Client struct {
	client *openai.Client
	config *Config
	sem    *semaphore.Weighted
}

// NewClient creates a provider client. A missing API key is not an error
// here; requests simply fail at the remote boundary.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Model == "" {
		cfg.Model = openai.CreateImageModelDallE3
	}
	if cfg.Size == "" {
		cfg.Size = openai.CreateImageSize1024x1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 3
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		// Generation is slow and billed per image; cap in-flight requests.
		sem: semaphore.NewWeighted(cfg.MaxInFlight),
	}
}

// Generate requests exactly one image for the prompt and returns its URL.
// Single attempt, no retry; the configured timeout bounds the whole call.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.config.Model,
		N:              1,
		Size:           c.config.Size,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("empty image response")
	}

	slog.Debug("image generated",
		"model", c.config.Model,
		"duration_ms", time.Since(start).Milliseconds())
	return resp.Data[0].URL, nil
}

var _ Generator = (*Client)(nil)
