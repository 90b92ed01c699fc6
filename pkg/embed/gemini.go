package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultEmbedModel = "gemini-embedding-001"

// Gemini calls the Gemini batch embedding API over plain HTTP. Batches are
// bounded and separated by a mandatory pause to respect the upstream rate
// limit.
type Gemini struct {
	client    *http.Client
	apiKey    string
	model     string
	baseURL   string
	batchSize int
	delay     time.Duration
}

// NewGemini creates a Gemini embedding client.
func NewGemini(apiKey, model, baseURL string, batchSize int, delay time.Duration) *Gemini {
	if model == "" {
		model = defaultEmbedModel
	}
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Gemini{
		client:    &http.Client{Timeout: 60 * time.Second},
		apiKey:    apiKey,
		model:     model,
		baseURL:   baseURL,
		batchSize: batchSize,
		delay:     delay,
	}
}

// EmbedBatch returns one vector per text, nil where embedding failed.
// A failed batch degrades to all-nil for that batch only.
func (g *Gemini) EmbedBatch(ctx context.Context, texts []string) [][]float64 {
	vectors := make([][]float64, len(texts))

	for start := 0; start < len(texts); start += g.batchSize {
		end := start + g.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		if start > 0 {
			select {
			case <-ctx.Done():
				return vectors
			case <-time.After(g.delay):
			}
		}

		batch, err := g.embedOnce(ctx, texts[start:end])
		if err != nil {
			fmt.Fprintf(os.Stderr, "  embed batch %d-%d error: %v\n", start, end, err)
			continue // vectors stay nil for this batch
		}
		copy(vectors[start:], batch)
	}

	return vectors
}

func (g *Gemini) embedOnce(ctx context.Context, texts []string) ([][]float64, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Parts []part `json:"parts"`
	}
	type request struct {
		Model    string  `json:"model"`
		Content  content `json:"content"`
		TaskType string  `json:"taskType"`
	}

	reqs := make([]request, len(texts))
	for i, t := range texts {
		reqs[i] = request{
			Model:    "models/" + g.model,
			Content:  content{Parts: []part{{Text: t}}},
			TaskType: "CLUSTERING",
		}
	}

	body, _ := json.Marshal(map[string]any{"requests": reqs})
	url := fmt.Sprintf("%s/v1beta/models/%s:batchEmbedContents?key=%s", g.baseURL, g.model, g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call embed api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("embed api status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Embeddings []struct {
			Values []float64 `json:"values"`
		} `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed api returned %d vectors for %d texts", len(result.Embeddings), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for i, e := range result.Embeddings {
		if len(e.Values) > 0 {
			vectors[i] = e.Values
		}
	}
	return vectors, nil
}
