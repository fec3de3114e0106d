// Package search provides the external property-information lookup via the
// DuckDuckGo Instant Answer API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.duckduckgo.com"

// Client queries DuckDuckGo with a bounded timeout.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a search client. timeout bounds the whole request;
// zero means 10 seconds.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
	}
}

// NewClientWithBaseURL is used by tests to point at a stub server.
func NewClientWithBaseURL(baseURL string, timeout time.Duration) *Client {
	c := NewClient(timeout)
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

type instantAnswer struct {
	Heading       string         `json:"Heading"`
	AbstractText  string         `json:"AbstractText"`
	AbstractURL   string         `json:"AbstractURL"`
	RelatedTopics []relatedTopic `json:"RelatedTopics"`
}

type relatedTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

// Search runs an instant-answer query and returns a formatted snippet list.
// An empty string with nil error means no results were found.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	endpoint := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("search: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search: unexpected status %d", resp.StatusCode)
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return "", fmt.Errorf("search: decode response: %w", err)
	}

	return formatAnswer(&answer), nil
}

// formatAnswer renders the abstract and up to five related topics as
// title/snippet blocks.
func formatAnswer(answer *instantAnswer) string {
	var b strings.Builder
	if answer.AbstractText != "" {
		if answer.Heading != "" {
			fmt.Fprintf(&b, "Title: %s\n", answer.Heading)
		}
		fmt.Fprintf(&b, "Snippet: %s\n", answer.AbstractText)
	}
	count := 0
	for _, topic := range answer.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("---\n")
		}
		fmt.Fprintf(&b, "Snippet: %s\n", topic.Text)
		count++
		if count == 5 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
