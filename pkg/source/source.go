// Package source reads items from a WordPress-style content API.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/dtnitsch/wordcount-report/pkg/caching"
	"github.com/dtnitsch/wordcount-report/pkg/db"
	"github.com/dtnitsch/wordcount-report/pkg/fetcher"
)

// DefaultContentPath selects the rendered body of a WordPress post or page.
const DefaultContentPath = "$.content.rendered"

var (
	// ErrNotList means the payload was valid JSON but not an array.
	ErrNotList = errors.New("payload is not a list")
	// ErrMalformed means the payload was not JSON.
	ErrMalformed = errors.New("payload is not valid JSON")
	// ErrEmptyPayload means the payload was an empty array.
	ErrEmptyPayload = errors.New("payload is empty")
)

// Item is one post or page. Content is empty when the item had no
// string at the content path.
type Item struct {
	ID      string
	Content string
}

// Getter performs the HTTP read. *fetcher.Fetcher satisfies it.
type Getter interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// Source turns a URL into a list of items.
type Source struct {
	getter  Getter
	content jp.Expr
	id      jp.Expr
	cache   *caching.Cache
	log     *db.DB
	logger  *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithCache serves fresh responses from c and stores new ones in it.
func WithCache(c *caching.Cache) Option {
	return func(s *Source) { s.cache = c }
}

// WithFetchLog records every fetch attempt in database.
func WithFetchLog(database *db.DB) Option {
	return func(s *Source) { s.log = database }
}

// WithLogger sets the logger used for non-fatal bookkeeping problems.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) { s.logger = logger }
}

// New builds a Source. contentPath is a JSONPath evaluated against each
// item; empty selects DefaultContentPath.
func New(getter Getter, contentPath string, opts ...Option) (*Source, error) {
	if contentPath == "" {
		contentPath = DefaultContentPath
	}
	content, err := jp.ParseString(contentPath)
	if err != nil {
		return nil, fmt.Errorf("invalid content path %q: %w", contentPath, err)
	}

	s := &Source{
		getter:  getter,
		content: content,
		id:      jp.MustParseString("$.id"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Items fetches url and returns its items. The response must be a
// non-empty JSON array; anything else is an error.
func (s *Source) Items(ctx context.Context, report, url string) ([]Item, error) {
	start := time.Now()
	rec := db.FetchRecord{}

	body, fromCache, err := s.read(ctx, url)
	rec.FromCache = fromCache
	if err != nil {
		rec.ErrorType, rec.ErrorMessage = classify(err), err.Error()
		var statusErr *fetcher.StatusError
		if errors.As(err, &statusErr) {
			rec.StatusCode = statusErr.StatusCode
		}
		s.record(report, url, rec, start)
		return nil, err
	}
	rec.StatusCode = 200

	items, err := s.parse(body)
	if err != nil {
		rec.ErrorType, rec.ErrorMessage = classify(err), err.Error()
		s.record(report, url, rec, start)
		return nil, err
	}
	rec.ItemCount = len(items)
	s.record(report, url, rec, start)

	if s.cache != nil && !fromCache {
		if err := s.cache.Set(url, body); err != nil {
			s.logger.Warn("Failed to cache response", "url", url, "error", err)
		}
	}
	return items, nil
}

func (s *Source) read(ctx context.Context, url string) ([]byte, bool, error) {
	if s.cache != nil {
		if body, ok := s.cache.Get(url); ok {
			return body, true, nil
		}
	}
	body, err := s.getter.GetBytes(ctx, url)
	if err != nil {
		return nil, false, err
	}
	return body, false, nil
}

func (s *Source) parse(body []byte) ([]Item, error) {
	data, err := oj.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	list, ok := data.([]interface{})
	if !ok {
		return nil, ErrNotList
	}
	if len(list) == 0 {
		return nil, ErrEmptyPayload
	}

	items := make([]Item, len(list))
	for i, raw := range list {
		items[i] = Item{
			ID:      firstID(s.id.Get(raw)),
			Content: firstString(s.content.Get(raw)),
		}
	}
	return items, nil
}

// firstString returns the first result when it is a string. Anything else
// counts as missing content.
func firstString(results []interface{}) string {
	if len(results) == 0 {
		return ""
	}
	s, _ := results[0].(string)
	return s
}

func firstID(results []interface{}) string {
	if len(results) == 0 {
		return ""
	}
	switch v := results[0].(type) {
	case string:
		return v
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	}
	return ""
}

func classify(err error) string {
	var statusErr *fetcher.StatusError
	switch {
	case errors.As(err, &statusErr):
		return "status_error"
	case errors.Is(err, ErrEmptyPayload):
		return "empty_payload"
	case errors.Is(err, ErrNotList):
		return "not_list"
	case errors.Is(err, ErrMalformed):
		return "parse_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "fetch_error"
}

func (s *Source) record(report, url string, rec db.FetchRecord, start time.Time) {
	if s.log == nil {
		return
	}
	rec.Duration = time.Since(start)

	sourceID, err := s.log.InsertSource(url, report)
	if err != nil {
		s.logger.Warn("Failed to insert source to DB", "url", url, "error", err)
		return
	}
	if err := s.log.RecordFetch(sourceID, rec); err != nil {
		s.logger.Warn("Failed to record fetch to DB", "url", url, "error", err)
	}
}
