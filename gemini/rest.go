package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/fwojciec/tranquility"
)

// Interface compliance check.
var _ tranquility.Model = (*RESTClient)(nil)

// RESTClient implements [tranquility.Model] by posting generateContent
// requests through a [tranquility.Transport].
type RESTClient struct {
	transport tranquility.Transport
	apiKey    string
	baseURL   string
	model     string
}

// RESTOption configures a [RESTClient].
type RESTOption func(*RESTClient)

// WithRESTBaseURL sets the API base URL. Useful for testing with httptest.
func WithRESTBaseURL(u string) RESTOption {
	return func(c *RESTClient) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithRESTModel sets the model ID. Default is [DefaultModel].
func WithRESTModel(model string) RESTOption {
	return func(c *RESTClient) { c.model = model }
}

// NewREST creates a [RESTClient] sending through t.
func NewREST(apiKey string, t tranquility.Transport, opts ...RESTOption) *RESTClient {
	c := &RESTClient{
		transport: t,
		apiKey:    apiKey,
		baseURL:   DefaultBaseURL,
		model:     DefaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate sends env and returns the text of the first candidate.
func (c *RESTClient) Generate(ctx context.Context, env tranquility.Envelope) (string, error) {
	if err := env.Validate(); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	raw, err := c.transport.Send(ctx, c.endpoint(), BuildRequest(env))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("gemini: decode response: %v: %w", err, tranquility.ErrFatal)
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini: prompt blocked (%s): %w", resp.PromptFeedback.BlockReason, tranquility.ErrEmptyCompletion)
		}
		return "", fmt.Errorf("gemini: no candidates: %w", tranquility.ErrEmptyCompletion)
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if !p.Thought {
			b.WriteString(p.Text)
		}
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: candidate has no text (finish reason %q): %w",
			resp.Candidates[0].FinishReason, tranquility.ErrEmptyCompletion)
	}
	return text, nil
}

func (c *RESTClient) endpoint() string {
	return fmt.Sprintf("%s/%s/models/%s:generateContent?key=%s",
		c.baseURL, apiVersion, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
}

// BuildRequest converts an envelope to the generateContent request body.
// Exported for testing.
func BuildRequest(env tranquility.Envelope) any {
	req := apiRequest{Contents: make([]apiContent, 0, len(env.Turns))}
	for _, t := range env.Turns {
		req.Contents = append(req.Contents, apiContent{Role: string(t.Role), Parts: convertAPIParts(t.Parts)})
	}
	if env.SystemInstruction != "" {
		req.SystemInstruction = &apiContent{Parts: []apiPart{{Text: env.SystemInstruction}}}
	}
	if env.ResponseSchema != nil {
		req.GenerationConfig = &apiGenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   convertAPISchema(env.ResponseSchema),
		}
	}
	return req
}

func convertAPIParts(parts []tranquility.Part) []apiPart {
	result := make([]apiPart, 0, len(parts))
	for _, p := range parts {
		switch p := p.(type) {
		case tranquility.TextPart:
			result = append(result, apiPart{Text: p.Text})
		case tranquility.InlineDataPart:
			result = append(result, apiPart{InlineData: &apiBlob{
				MIMEType: p.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(p.Data),
			}})
		}
	}
	return result
}

func convertAPISchema(s *tranquility.Schema) *apiSchema {
	if s == nil {
		return nil
	}
	out := &apiSchema{Type: string(s.Type), Description: s.Description, Required: s.Required}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*apiSchema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = convertAPISchema(v)
		}
	}
	return out
}
