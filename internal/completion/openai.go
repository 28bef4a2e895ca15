package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// OpenAIClient calls an OpenAI-compatible chat completions API (OpenAI,
// OpenRouter, Groq, and the like) over plain HTTP.
type OpenAIClient struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
	limiter *rate.Limiter
}

// NewOpenAIClient creates a client for baseURL (e.g. https://api.openai.com/v1).
// rps > 0 throttles outbound requests client-side; rps <= 0 disables the
// limiter.
func NewOpenAIClient(apiKey, baseURL, model string, rps float64) *OpenAIClient {
	c := &OpenAIClient{
		http:    &http.Client{Timeout: 120 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

func (c *OpenAIClient) Name() string { return "openai:" + c.model }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message and returns the first
// choice's content. Non-2xx statuses other than 408 and 429 below 500 are
// wrapped as PermanentError.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("completion: unexpected status %s: %s", resp.Status, string(snippet))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusRequestTimeout {
			return "", NewPermanentError(err)
		}
		return "", err
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("completion: decoding response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}
