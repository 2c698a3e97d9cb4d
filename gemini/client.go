package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/tranquility"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ tranquility.Model = (*Client)(nil)

// Client implements [tranquility.Model] with the genai SDK.
type Client struct {
	client     *genai.Client
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is [DefaultModel].
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets the HTTP client used by the SDK. Wrap its transport
// with transport.Client.RoundTripper to retry rate limits.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	c := &Client{model: DefaultModel}
	for _, o := range opts {
		o(c)
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions.BaseURL = c.baseURL
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c.client = gc
	return c, nil
}

// Generate sends env and returns the text of the first candidate.
func (c *Client) Generate(ctx context.Context, env tranquility.Envelope) (string, error) {
	if err := env.Validate(); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	res, err := c.client.Models.GenerateContent(ctx, c.model, ConvertTurns(env.Turns), buildConfig(env))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", classify(err))
	}
	text := res.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: candidate has no text: %w", tranquility.ErrEmptyCompletion)
	}
	return text, nil
}

// classify maps SDK errors onto the domain error kinds.
func classify(err error) error {
	if errors.Is(err, tranquility.ErrRateLimitExhausted) ||
		errors.Is(err, tranquility.ErrNetworkExhausted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return fmt.Errorf("%v: %w", err, tranquility.ErrRateLimitExhausted)
		}
		return fmt.Errorf("%v: %w", err, tranquility.ErrFatal)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%v: %w", err, tranquility.ErrNetworkExhausted)
	}
	return fmt.Errorf("%v: %w", err, tranquility.ErrFatal)
}

func buildConfig(env tranquility.Envelope) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if env.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: env.SystemInstruction}},
		}
	}
	if env.ResponseSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = ConvertSchema(env.ResponseSchema)
	}
	return config
}

// ConvertTurns converts domain turns to genai Contents.
// Exported for testing.
func ConvertTurns(turns []tranquility.Turn) []*genai.Content {
	result := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		parts := make([]*genai.Part, 0, len(t.Parts))
		for _, p := range t.Parts {
			switch p := p.(type) {
			case tranquility.TextPart:
				parts = append(parts, &genai.Part{Text: p.Text})
			case tranquility.InlineDataPart:
				parts = append(parts, &genai.Part{InlineData: &genai.Blob{
					MIMEType: p.MIMEType,
					Data:     p.Data,
				}})
			}
		}
		result = append(result, &genai.Content{Role: string(t.Role), Parts: parts})
	}
	return result
}

// ConvertSchema converts a domain schema to a genai Schema.
// Exported for testing.
func ConvertSchema(s *tranquility.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(s.Type),
		Description: s.Description,
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = ConvertSchema(v)
		}
	}
	return out
}
