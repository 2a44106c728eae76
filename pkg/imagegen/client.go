// Package imagegen talks to a hosted text-to-image inference API.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrEmptyPrompt is returned when Generate is called without a prompt
	ErrEmptyPrompt = errors.New("image prompt cannot be empty")
	// ErrRequestFailed is returned when the inference API answers with a non-2xx status
	ErrRequestFailed = errors.New("image generation request failed")
	// ErrEmptyImage is returned when the inference API answers 2xx with no body
	ErrEmptyImage = errors.New("image generation returned no data")
	// ErrImageTooLarge is returned when the response body exceeds the size limit
	ErrImageTooLarge = errors.New("image generation response too large")
)

const (
	DefaultSteps         = 20
	DefaultGuidanceScale = 7.5
	DefaultWidth         = 512
	DefaultHeight        = 512
	DefaultTimeout       = 120 * time.Second

	// DefaultMaxImageBytes caps the response body read from the inference API
	DefaultMaxImageBytes = 20 << 20
)

// Params are the sampling parameters sent with every prompt.
type Params struct {
	Steps         int     `json:"num_inference_steps"`
	GuidanceScale float64 `json:"guidance_scale"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
}

// DefaultParams returns 20 steps, guidance 7.5, 512x512.
func DefaultParams() Params {
	return Params{
		Steps:         DefaultSteps,
		GuidanceScale: DefaultGuidanceScale,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
	}
}

// Image is a generated image as raw bytes.
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURI encodes the image as data:<mime>;base64,<payload>.
func (img *Image) DataURI() string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Generator produces an image from a text prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, params Params) (*Image, error)
}

// Config configures HFClient.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
	// MaxImageBytes limits the accepted image size; 0 means DefaultMaxImageBytes
	MaxImageBytes int64
}

// HFClient calls the Hugging Face inference API
// (POST {base_url}/{model} with {"inputs": ..., "parameters": ...}).
type HFClient struct {
	endpoint   string
	apiKey     string
	maxBytes   int64
	httpClient *http.Client
	logger     *zap.Logger
}

type inferenceRequest struct {
	Inputs     string `json:"inputs"`
	Parameters Params `json:"parameters"`
}

// NewHFClient creates a client for the configured model endpoint.
func NewHFClient(cfg Config, logger *zap.Logger) (*HFClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("image base URL is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("image model is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("image API key is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}

	return &HFClient{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.TrimLeft(cfg.Model, "/"),
		apiKey:   cfg.APIKey,
		maxBytes: cfg.MaxImageBytes,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With(zap.String("component", "imagegen")),
	}, nil
}

// Endpoint returns the full model URL.
func (c *HFClient) Endpoint() string {
	return c.endpoint
}

// Generate posts the prompt once; there is no retry.
func (c *HFClient) Generate(ctx context.Context, prompt string, params Params) (*Image, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	body, err := json.Marshal(inferenceRequest{Inputs: prompt, Parameters: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("Image API error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response_body", string(detail)),
		)
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	// One extra byte tells a full-size image apart from a truncated one
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, c.maxBytes)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	c.logger.Debug("Image generated",
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)),
	)

	return &Image{Data: data, MIMEType: detectMIME(data, resp.Header.Get("Content-Type"))}, nil
}

func detectMIME(data []byte, header string) string {
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if strings.HasPrefix(header, "image/") {
		return strings.TrimSpace(strings.SplitN(header, ";", 2)[0])
	}
	return "image/png"
}

// Verify interface implementation
var _ Generator = (*HFClient)(nil)
