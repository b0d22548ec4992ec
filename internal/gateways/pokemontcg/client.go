package pokemontcg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/domain/logger"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL           = "https://api.pokemontcg.io/v2"
	DefaultPageSize          = 250
	DefaultRequestsPerSecond = 5
	defaultRequestTimeout    = 30 * time.Second
	defaultMaxRetries        = 3
	defaultInitialBackoff    = 1 * time.Second
	maxBackoff               = 16 * time.Second
	userAgent                = "PokePacks/1.0"
)

var errNotFound = errors.New("resource not found")

type Config struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	PageSize          int
	Timeout           time.Duration
	MaxRetries        int
	InitialBackoff    time.Duration
	HTTPClient        *http.Client
}

// Client talks to the Pokémon TCG API. It paces requests with a token bucket
// and retries network errors, 429s and 5xx responses with exponential backoff.
type Client struct {
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	baseURL        string
	apiKey         string
	pageSize       int
	maxRetries     int
	initialBackoff time.Duration
	now            func() time.Time
}

var _ catalog.Client = (*Client)(nil)

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient:     httpClient,
		rateLimiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		pageSize:       cfg.PageSize,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		now:            time.Now,
	}
}

// GetCard retrieves a card by its catalog id.
func (c *Client) GetCard(ctx context.Context, id string) (catalog.Card, error) {
	var resp singleResponse[Card]
	if err := c.doRequest(ctx, "get card", "/cards/"+url.PathEscape(id), nil, &resp); err != nil {
		return catalog.Card{}, c.classify("get card", "card", id, err)
	}
	return resp.Data.toCatalog(c.now()), nil
}

// GetSet retrieves a set by its catalog id.
func (c *Client) GetSet(ctx context.Context, id string) (catalog.Set, error) {
	var resp singleResponse[Set]
	if err := c.doRequest(ctx, "get set", "/sets/"+url.PathEscape(id), nil, &resp); err != nil {
		return catalog.Set{}, c.classify("get set", "set", id, err)
	}
	return resp.Data.toCatalog(), nil
}

// SearchCards returns every card matching query, across all pages.
func (c *Client) SearchCards(ctx context.Context, query string) ([]catalog.Card, error) {
	pricedAt := c.now()
	cards, err := searchAll(ctx, c, "search cards", "/cards", query, "", func(card Card) catalog.Card {
		return card.toCatalog(pricedAt)
	})
	if err != nil {
		return nil, c.classify("search cards", "cards", query, err)
	}
	return cards, nil
}

// SearchSets returns every set matching query, oldest first. An empty query
// lists the whole catalog.
func (c *Client) SearchSets(ctx context.Context, query string) ([]catalog.Set, error) {
	sets, err := searchAll(ctx, c, "search sets", "/sets", query, "releaseDate", Set.toCatalog)
	if err != nil {
		return nil, c.classify("search sets", "sets", query, err)
	}
	return sets, nil
}

// searchAll walks the pages of a search until the catalog runs dry.
func searchAll[T, R any](ctx context.Context, c *Client, op, path, query, orderBy string, convert func(T) R) ([]R, error) {
	var out []R
	for page := 1; ; page++ {
		params := url.Values{}
		if query != "" {
			params.Set("q", query)
		}
		if orderBy != "" {
			params.Set("orderBy", orderBy)
		}
		params.Set("page", strconv.Itoa(page))
		params.Set("pageSize", strconv.Itoa(c.pageSize))

		var resp pageResponse[T]
		if err := c.doRequest(ctx, op, path, params, &resp); err != nil {
			return nil, err
		}
		for _, item := range resp.Data {
			out = append(out, convert(item))
		}

		pageSize := resp.PageSize
		if pageSize <= 0 {
			pageSize = c.pageSize
		}
		if resp.Count == 0 || len(resp.Data) == 0 || page*pageSize >= resp.TotalCount {
			return out, nil
		}
	}
}

// classify turns transport errors into catalog errors.
func (c *Client) classify(op, entity, id string, err error) error {
	if errors.Is(err, errNotFound) {
		return &catalog.NotFoundError{Entity: entity, ID: id}
	}
	return &catalog.RemoteFetchError{Op: op, Err: err}
}

// doRequest performs a GET with rate limiting and retries.
func (c *Client) doRequest(ctx context.Context, op, path string, params url.Values, result any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	backoff := c.initialBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = min(backoff*2, maxBackoff)
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		ql := logger.NewRequestLogger(op, path, "params", params.Encode(), "attempt", attempt+1)
		retry, wait, err := c.do(ctx, endpoint, result)
		if errors.Is(err, errNotFound) {
			ql.Log(nil, 0)
		} else {
			ql.Log(err, 0)
		}
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
		if wait > backoff {
			backoff = min(wait, maxBackoff)
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// do runs one attempt. It reports whether a failure is worth retrying and
// how long the server asked us to wait.
func (c *Client) do(ctx context.Context, endpoint string, result any) (bool, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, 0, ctx.Err()
		}
		return true, 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return false, 0, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return false, 0, nil

	case resp.StatusCode == http.StatusNotFound:
		return false, 0, errNotFound

	case resp.StatusCode == http.StatusTooManyRequests:
		var wait time.Duration
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			wait = time.Duration(s) * time.Second
		}
		return true, wait, errors.New("rate limited (HTTP 429)")

	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return true, 0, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, body)

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, 0, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, body)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
