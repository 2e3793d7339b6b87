// Package gemini calls the Google Generative Language REST API for both
// text generation and embeddings.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Client talks to the Gemini API. One instance per process; safe for
// concurrent use.
type Client struct {
	http       *resty.Client
	apiKey     string
	genModel   string
	embedModel string
}

// New creates a Gemini client. baseURL overrides the public endpoint when
// non-empty (used by tests).
func New(apiKey, genModel, embedModel, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(60 * time.Second)

	return &Client{http: c, apiKey: apiKey, genModel: genModel, embedModel: embedModel}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error"`
}

type embedRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Generate produces a completion for the prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}
	var out generateResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(&reqBody).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.genModel))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("gemini status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error != nil {
		return "", fmt.Errorf("gemini error %d: %s", out.Error.Code, out.Error.Message)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// Embed generates a dense vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}
	reqBody := embedRequest{
		Model:   "models/" + c.embedModel,
		Content: content{Parts: []part{{Text: text}}},
	}
	var out embedResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(&reqBody).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:embedContent", c.embedModel))
	if err != nil {
		return nil, fmt.Errorf("gemini embed request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("gemini embed status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error != nil {
		return nil, fmt.Errorf("gemini embed error %d: %s", out.Error.Code, out.Error.Message)
	}
	return out.Embedding.Values, nil
}

// HealthPing verifies the API is reachable with the configured key.
func (c *Client) HealthPing(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetQueryParam("pageSize", "1").
		Get("/v1beta/models")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("gemini status %d", resp.StatusCode())
	}
	return nil
}
