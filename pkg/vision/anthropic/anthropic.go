// Package anthropic implements vision.Model on top of the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/thumbnail"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/vision"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 1024
	DefaultTimeout   = 60 * time.Second
)

// Config holds configuration for the Anthropic vision model.
type Config struct {
	APIKey string

	// Model defaults to DefaultModel if empty.
	Model string

	// MaxTokens defaults to DefaultMaxTokens if zero.
	MaxTokens int64

	// Timeout bounds a single Compare call. Defaults to DefaultTimeout.
	Timeout time.Duration

	// BaseURL overrides the API endpoint. Used in tests.
	BaseURL string
}

// Model compares images with a Claude model.
type Model struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// New creates a new Anthropic-backed vision model.
func New(cfg Config) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	m := &Model{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}
	if m.model == "" {
		m.model = DefaultModel
	}
	if m.maxTokens <= 0 {
		m.maxTokens = DefaultMaxTokens
	}
	if m.timeout <= 0 {
		m.timeout = DefaultTimeout
	}

	return m, nil
}

// Compare sends the images followed by the prompt as a single user message
// and returns the concatenated text blocks of the reply.
func (m *Model) Compare(ctx context.Context, prompt string, images []*thumbnail.Image) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(images)+1)
	for _, img := range images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MediaType, base64.StdEncoding.EncodeToString(img.Data)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))

	resp, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: m.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", vision.ErrModel, err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: response contained no text", vision.ErrModel)
	}

	return sb.String(), nil
}

var _ vision.Model = (*Model)(nil)
