package associative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperchat/paperchat/llm"
)

// fakeLLM scripts the keyword-extraction completion.
type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Complete(ctx context.Context, messages []llm.Message, opts ...llm.LLMOption) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) StreamComplete(ctx context.Context, messages []llm.Message, callback func(chunk string) error, opts ...llm.LLMOption) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeLLM) GetModel() string { return "fake-model" }

const testAbstract = "A study of the effects of long-term caloric restriction on cellular aging in mammals over ten years."

func retrievalReason(t *testing.T, err error) RetrievalReason {
	t.Helper()
	var retErr *RetrievalError
	require.ErrorAs(t, err, &retErr)
	return retErr.Reason
}

func TestRetrieveEndToEndAndCache(t *testing.T) {
	var searchCalls, readerCalls int

	searchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		searchCalls++
		assert.Equal(t, "cellular aging caloric restriction", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(searchPage{Items: []SearchResult{
			{Link: "https://example.org/paper", Title: "Related paper"},
		}})
	}))
	defer searchServer.Close()

	readerServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		readerCalls++
		assert.Equal(t, "/https://example.org/paper", r.URL.Path)
		fmt.Fprint(w, "Extracted article body.")
	}))
	defer readerServer.Close()

	client := &fakeLLM{response: "cellular aging, caloric restriction"}
	retriever := NewRetriever(
		client,
		NewSearchClient("engine-id", "api-key").WithBaseURL(searchServer.URL),
		NewReaderClient("").WithBaseURL(readerServer.URL),
		NewCache(),
		WithResultCount(1),
		WithLabelPrefix("Retrieved related article: "),
	)

	content, err := async.Await(retriever.Retrieve(context.Background(), "doc1", testAbstract))
	require.NoError(t, err)
	assert.Equal(t, "Retrieved related article: Related paper\nExtracted article body.", content)

	// Second call for the same abstract: served from cache, zero network calls.
	cached, err := async.Await(retriever.Retrieve(context.Background(), "doc1", testAbstract))
	require.NoError(t, err)
	assert.Equal(t, content, cached)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, 1, searchCalls)
	assert.Equal(t, 1, readerCalls)
}

func TestRetrieveAbstractTooShort(t *testing.T) {
	retriever := NewRetriever(&fakeLLM{}, NewSearchClient("id", "key"), NewReaderClient(""), NewCache())

	_, err := async.Await(retriever.Retrieve(context.Background(), "doc1", "too short"))
	assert.Equal(t, ReasonAbstractTooShort, retrievalReason(t, err))

	_, err = async.Await(retriever.Retrieve(context.Background(), "doc1", "   \n "))
	assert.Equal(t, ReasonAbstractTooShort, retrievalReason(t, err))
}

func TestRetrieveMissingSearchConfig(t *testing.T) {
	retriever := NewRetriever(&fakeLLM{}, NewSearchClient("", ""), NewReaderClient(""), NewCache())

	_, err := async.Await(retriever.Retrieve(context.Background(), "doc1", testAbstract))
	assert.Equal(t, ReasonMissingConfig, retrievalReason(t, err))
}

func TestRetrieveNoKeywords(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeLLM
	}{
		{"empty response", &fakeLLM{response: ""}},
		{"only separators", &fakeLLM{response: " , , "}},
		{"completion error", &fakeLLM{err: errors.New("model unavailable")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever := NewRetriever(tt.client, NewSearchClient("id", "key"), NewReaderClient(""), NewCache())

			_, err := async.Await(retriever.Retrieve(context.Background(), "doc1", testAbstract))
			assert.Equal(t, ReasonNoKeywords, retrievalReason(t, err))
		})
	}
}

func TestRetrieveNoSearchResults(t *testing.T) {
	searchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchPage{})
	}))
	defer searchServer.Close()

	retriever := NewRetriever(
		&fakeLLM{response: "x, y"},
		NewSearchClient("id", "key").WithBaseURL(searchServer.URL),
		NewReaderClient(""),
		NewCache(),
	)

	_, err := async.Await(retriever.Retrieve(context.Background(), "doc1", testAbstract))
	assert.Equal(t, ReasonNoSearchResults, retrievalReason(t, err))
}

func TestRetrieveAllFetchesFailed(t *testing.T) {
	searchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchPage{Items: []SearchResult{
			{Link: "https://example.org/a"},
			{Link: "https://example.org/b"},
		}})
	}))
	defer searchServer.Close()

	readerServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer readerServer.Close()

	retriever := NewRetriever(
		&fakeLLM{response: "x, y"},
		NewSearchClient("id", "key").WithBaseURL(searchServer.URL),
		NewReaderClient("").WithBaseURL(readerServer.URL),
		NewCache(),
		WithResultCount(2),
	)

	_, err := async.Await(retriever.Retrieve(context.Background(), "doc1", testAbstract))
	assert.Equal(t, ReasonAllFetchesFailed, retrievalReason(t, err))
}

func TestRetrievePartialFetchFailureTolerated(t *testing.T) {
	searchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchPage{Items: []SearchResult{
			{Link: "https://example.org/bad", Title: "Broken"},
			{Link: "https://example.org/good", Title: "Working"},
		}})
	}))
	defer searchServer.Close()

	readerServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "body")
	}))
	defer readerServer.Close()

	retriever := NewRetriever(
		&fakeLLM{response: "x, y"},
		NewSearchClient("id", "key").WithBaseURL(searchServer.URL),
		NewReaderClient("").WithBaseURL(readerServer.URL),
		NewCache(),
		WithResultCount(2),
	)

	content, err := async.Await(retriever.Retrieve(context.Background(), "doc1", testAbstract))
	require.NoError(t, err)
	assert.Equal(t, "Retrieved related article: Working\nbody", content)
}

func TestRetrieveCacheIsPerDocument(t *testing.T) {
	var searchCalls int
	searchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		searchCalls++
		json.NewEncoder(w).Encode(searchPage{Items: []SearchResult{{Link: "https://example.org/a"}}})
	}))
	defer searchServer.Close()

	readerServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "body")
	}))
	defer readerServer.Close()

	retriever := NewRetriever(
		&fakeLLM{response: "x, y"},
		NewSearchClient("id", "key").WithBaseURL(searchServer.URL),
		NewReaderClient("").WithBaseURL(readerServer.URL),
		NewCache(),
		WithResultCount(1),
	)

	_, err := async.Await(retriever.Retrieve(context.Background(), "doc1", testAbstract))
	require.NoError(t, err)
	_, err = async.Await(retriever.Retrieve(context.Background(), "doc2", testAbstract))
	require.NoError(t, err)

	// Same abstract under a different document misses the cache.
	assert.Equal(t, 2, searchCalls)
}
