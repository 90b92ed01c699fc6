// Package brief generates one-sentence story briefs via an external
// text-generation provider.
package brief

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Unavailable is the sentinel written when generation fails. Stories
// carrying it are eligible for a retry on a later run, budget permitting.
const Unavailable = "Brief unavailable."

const defaultModel = "gemini-2.5-flash"

const promptTemplate = `You are a veteran technology reporter. In ONE sentence
(max 40 words), state the single most newsworthy development in the story
below. Lead with the subject, cut all hype and marketing language, and do
not restate the headline.

Headline: %s

Context:
%s

Return ONLY the sentence, no quotes, no preamble.`

// Generator calls the Gemini text-generation API over plain HTTP.
type Generator struct {
	client  *http.Client
	apiKey  string
	model   string
	baseURL string
}

// NewGenerator creates a brief generator.
func NewGenerator(apiKey, model, baseURL string) *Generator {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &Generator{
		client:  &http.Client{Timeout: 60 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
	}
}

// Generate produces a one-sentence brief from the headline and whatever
// page context is available. On any failure it returns the Unavailable
// sentinel and the underlying error.
func (g *Generator) Generate(ctx context.Context, title, pageContext string) (string, error) {
	if strings.TrimSpace(pageContext) == "" {
		pageContext = title
	}
	if len(pageContext) > 8000 {
		pageContext = pageContext[:8000]
	}

	prompt := fmt.Sprintf(promptTemplate, title, pageContext)

	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	body, _ := json.Marshal(payload)
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Unavailable, fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Unavailable, fmt.Errorf("call generate api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return Unavailable, fmt.Errorf("generate api status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Unavailable, fmt.Errorf("decode generate response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return Unavailable, fmt.Errorf("generate api: empty response")
	}

	text := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return Unavailable, fmt.Errorf("generate api: blank brief")
	}
	return text, nil
}
