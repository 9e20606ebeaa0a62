package slack

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// JokeSource produces a dad joke. Implementations are soft dependencies:
// callers always have a local fallback.
type JokeSource interface {
	Joke(ctx context.Context) (string, error)
}

// DadJokeClient fetches jokes from icanhazdadjoke.com.
type DadJokeClient struct {
	url  string
	http *http.Client
}

// NewDadJokeClient creates a joke client with a short timeout, so a slow
// joke service can never hold up a webhook request.
func NewDadJokeClient() *DadJokeClient {
	return &DadJokeClient{
		url:  "https://icanhazdadjoke.com/",
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

// Joke fetches one joke as plain text.
func (c *DadJokeClient) Joke(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build joke request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("joke request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("joke service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read joke response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}
