package associative

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/linq"
	"go.uber.org/zap"
)

const defaultSearchBaseURL = "https://www.googleapis.com/customsearch/v1"

// maximum results per page allowed by the search API
const searchPageSize = 10

// SearchResult is one web search hit. It lives only for the duration of a
// pipeline run.
type SearchResult struct {
	Link    string `json:"link"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// SearchClient queries a programmable web search API with pagination.
type SearchClient struct {
	engineID   string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewSearchClient(engineID, apiKey string) *SearchClient {
	return &SearchClient{
		engineID:   engineID,
		apiKey:     apiKey,
		baseURL:    defaultSearchBaseURL,
		httpClient: &http.Client{},
	}
}

// WithBaseURL points the client at a different endpoint, e.g. a test server.
func (c *SearchClient) WithBaseURL(baseURL string) *SearchClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *SearchClient) configured() bool {
	return c.engineID != "" && c.apiKey != ""
}

// Search pages through the API in steps of up to 10 results until count is
// satisfied. A zero-result page means the index is exhausted; a failed page
// request aborts pagination. Both keep whatever was gathered so far — partial
// results are never an error. Results whose title, snippet or link contain a
// block-list substring are dropped.
func (c *SearchClient) Search(ctx context.Context, query string, count int, blockList []string) []SearchResult {
	var all []SearchResult
	start := 1

	for count > 0 {
		pageSize := count
		if pageSize > searchPageSize {
			pageSize = searchPageSize
		}

		items, err := c.fetchPage(ctx, query, pageSize, start)
		if err != nil {
			logger.Error("search page request failed, keeping partial results",
				zap.Int("start", start), zap.Error(err))
			break
		}
		if len(items) == 0 {
			break
		}

		all = append(all, items...)
		count -= len(items)
		start += searchPageSize
	}

	if len(blockList) == 0 {
		return all
	}

	filtered, err := linq.Pipe2(
		linq.FromSlice(ctx, all),

		linq.Where(func(r SearchResult) bool {
			return !matchesBlockList(r, blockList)
		}),

		linq.ToSlice[SearchResult](),
	)
	if err != nil {
		logger.Error("failed to filter search results", zap.Error(err))
		return all
	}
	return filtered
}

func (c *SearchClient) fetchPage(ctx context.Context, query string, num, start int) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("key", c.apiKey)
	params.Set("num", strconv.Itoa(num))
	params.Set("start", strconv.Itoa(start))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d: %s", resp.StatusCode, string(body))
	}

	var page searchPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	return page.Items, nil
}

func matchesBlockList(r SearchResult, blockList []string) bool {
	for _, blocked := range blockList {
		if strings.Contains(r.Title, blocked) ||
			strings.Contains(r.Snippet, blocked) ||
			strings.Contains(r.Link, blocked) {
			return true
		}
	}
	return false
}

type searchPage struct {
	Items []SearchResult `json:"items"`
}
