package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPGenerator talks to any OpenAI-compatible chat completions endpoint.
type HTTPGenerator struct {
	apiKey     string
	apiBase    string
	model      string
	httpClient *http.Client
}

func NewHTTPGenerator(apiKey, apiBase, model string, timeout time.Duration) *HTTPGenerator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPGenerator{
		apiKey:     apiKey,
		apiBase:    strings.TrimRight(apiBase, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, input string, tc TalkContext) (string, error) {
	const op = "generate"

	requestBody := map[string]interface{}{
		"model":    g.model,
		"messages": BuildMessages(input, tc),
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", permanentErr(op, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiBase+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", permanentErr(op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// Transport-level failures (timeouts, resets) are retryable.
		return "", retryableErr(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return "", retryableErr(op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusErr(op, resp.StatusCode, fmt.Errorf("body: %s", TrimToChars(string(body), 300)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", retryableErr(op, fmt.Errorf("unmarshal response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", retryableErr(op, fmt.Errorf("empty choices in response"))
	}

	reply := CleanReply(parsed.Choices[0].Message.Content)
	if reply == "" {
		return "", retryableErr(op, fmt.Errorf("blank reply"))
	}
	return reply, nil
}
