package associative

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/go-collection-boot/linq"
	"go.uber.org/zap"

	"github.com/paperchat/paperchat/llm"
	"github.com/paperchat/paperchat/prompts"
)

const minAbstractLen = 50

const defaultResultCount = 5

// Retriever turns a document abstract into web-search-derived context text:
// extract keywords, run a paginated search, fetch readable page content for
// each hit, concatenate. Any single failed keyword, page or link is tolerated;
// only total failure at a stage surfaces as an error, and that error never
// escapes past this pipeline as anything but a RetrievalError value.
type Retriever struct {
	client      llm.LLMClient
	search      *SearchClient
	reader      *ReaderClient
	cache       *Cache
	resultCount int
	blockList   []string
	labelPrefix string
}

type RetrieverOption func(*Retriever)

func WithResultCount(count int) RetrieverOption {
	return func(r *Retriever) {
		if count > 0 {
			r.resultCount = count
		}
	}
}

func WithBlockList(blockList []string) RetrieverOption {
	return func(r *Retriever) { r.blockList = blockList }
}

// WithLabelPrefix sets the label prepended to each retrieved article.
func WithLabelPrefix(prefix string) RetrieverOption {
	return func(r *Retriever) { r.labelPrefix = prefix }
}

func NewRetriever(client llm.LLMClient, search *SearchClient, reader *ReaderClient, cache *Cache, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		client:      client,
		search:      search,
		reader:      reader,
		cache:       cache,
		resultCount: defaultResultCount,
		labelPrefix: "Retrieved related article: ",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve runs the pipeline for one document abstract. The cache is checked
// before any network call; a fresh result is cached under the abstract's
// fingerprint before being returned.
func (r *Retriever) Retrieve(ctx context.Context, docID, abstract string) <-chan async.Result[string] {
	return async.Go(func() (string, error) {
		trimmed := strings.TrimSpace(abstract)
		if len([]rune(trimmed)) < minAbstractLen {
			return "", &RetrievalError{Reason: ReasonAbstractTooShort, Msg: "abstract too short"}
		}
		if !r.search.configured() {
			return "", &RetrievalError{Reason: ReasonMissingConfig, Msg: "search engine id/key not set"}
		}

		fingerprint := Fingerprint(abstract)
		if content, ok := r.cache.Get(docID, fingerprint); ok {
			logger.Info("using cached associative content", zap.String("docID", docID))
			return content, nil
		}

		keywords, err := r.extractKeywords(ctx, trimmed)
		if err != nil {
			return "", err
		}

		query := strings.Join(keywords, " ")
		logger.Info("searching associative content", zap.String("query", query))

		results := r.search.Search(ctx, query, r.resultCount, r.blockList)
		if len(results) == 0 {
			return "", &RetrievalError{Reason: ReasonNoSearchResults, Msg: "no associative results for generated keywords"}
		}

		// Sequential on purpose: skip-on-failure with preserved order, and no
		// burst against the proxy's rate limits.
		var contents []string
		for _, result := range results {
			text, err := r.reader.Fetch(ctx, result.Link)
			if err != nil {
				logger.Error("content fetch failed, skipping link",
					zap.String("link", result.Link), zap.Error(err))
				continue
			}

			label := result.Title
			if label == "" {
				label = result.Link
			}
			contents = append(contents, r.labelPrefix+label+"\n"+text)
		}

		if len(contents) == 0 {
			return "", &RetrievalError{
				Reason: ReasonAllFetchesFailed,
				Msg:    "retrieval succeeded but content extraction failed for all links",
			}
		}

		content := strings.Join(contents, "\n\n")
		r.cache.Put(docID, fingerprint, content)
		return content, nil
	})
}

// extractKeywords asks the model for 3-5 comma-separated generalized English
// search keywords for the abstract.
func (r *Retriever) extractKeywords(ctx context.Context, abstract string) ([]string, error) {
	systemPrompt, err := prompts.KeywordExtraction()
	if err != nil {
		return nil, &RetrievalError{Reason: ReasonNoKeywords, Msg: "failed to load keyword prompt", Err: err}
	}

	response, err := r.client.Complete(ctx,
		[]llm.Message{llm.TextMessage("user", abstract)},
		llm.WithSystemPrompt(systemPrompt),
		llm.WithTemperature(0.5),
		llm.WithMaxTokens(50),
	)
	if err != nil {
		return nil, &RetrievalError{Reason: ReasonNoKeywords, Msg: "failed to generate keywords from abstract", Err: err}
	}

	keywords, err := linq.Pipe3(
		linq.FromSlice(ctx, strings.Split(response, ",")),

		linq.Select(func(kw string) string {
			return strings.TrimSpace(kw)
		}),

		linq.Where(func(kw string) bool {
			return kw != ""
		}),

		linq.ToSlice[string](),
	)
	if err != nil {
		return nil, &RetrievalError{Reason: ReasonNoKeywords, Msg: "failed to parse keywords", Err: err}
	}
	if len(keywords) == 0 {
		return nil, &RetrievalError{Reason: ReasonNoKeywords, Msg: "model returned no keywords"}
	}

	return keywords, nil
}

// RetrievalReason classifies pipeline failures.
type RetrievalReason int

const (
	ReasonMissingConfig RetrievalReason = iota
	ReasonAbstractTooShort
	ReasonNoKeywords
	ReasonNoSearchResults
	ReasonAllFetchesFailed
)

// RetrievalError is the structured failure value of the pipeline. It is
// surfaced as inline text in the answer area and never aborts the base turn.
type RetrievalError struct {
	Reason RetrievalReason
	Msg    string
	Err    error
}

func (e *RetrievalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
