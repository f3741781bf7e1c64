package associative

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultReaderBaseURL = "https://r.jina.ai"

// ReaderClient fetches a pre-cleaned, readable rendition of a web page
// through a content-extraction proxy.
type ReaderClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewReaderClient builds a reader client. apiKey may be empty; the proxy then
// runs unauthenticated with lower rate limits.
func NewReaderClient(apiKey string) *ReaderClient {
	return &ReaderClient{
		apiKey:     apiKey,
		baseURL:    defaultReaderBaseURL,
		httpClient: &http.Client{},
	}
}

// WithBaseURL points the client at a different proxy, e.g. a test server.
func (c *ReaderClient) WithBaseURL(baseURL string) *ReaderClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Fetch returns the extracted plain-text content for link.
func (c *ReaderClient) Fetch(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/"+link, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	if strings.TrimSpace(c.apiKey) != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reader proxy returned status %d for %s", resp.StatusCode, link)
	}

	return string(body), nil
}
