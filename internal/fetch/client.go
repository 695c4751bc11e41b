// Package fetch pulls inventory records from the Maintainly API, one
// page at a time.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stocktide/stockwatch/pkg/model"
)

// ErrNoData reports that the API returned no records at all. The rest
// of the pipeline has nothing to work with, so this is fatal.
var ErrNoData = errors.New("no inventory records returned")

// DefaultPerPage matches the API's page size ceiling.
const DefaultPerPage = 25

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, for example https://app.maintainly.com/v1.
	BaseURL string
	// Organization is the tenant path segment in inventory URLs.
	Organization string
	// Token is the personal access token sent as a bearer credential.
	Token string
	// PerPage caps how many records one page request asks for.
	PerPage int
	// Timeout bounds each page request.
	Timeout time.Duration
	// Snapshot, when set, receives the raw JSON of everything fetched
	// before FetchAll returns. Snapshot failures are logged, not fatal.
	Snapshot func(data []byte) error
}

// Client pages through one organization's inventory records.
type Client struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a fetch client. Unset options fall back to the API
// defaults.
func NewClient(opts Options, logger *slog.Logger) *Client {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger,
	}
}

// FetchAll walks the inventories endpoint page by page until a page
// comes back short or empty. A page failure ends the walk but keeps the
// records fetched before it; only an entirely empty result is an error.
func (c *Client) FetchAll(ctx context.Context) ([]model.RawRecord, error) {
	var records []model.RawRecord

	for page := 1; ; page++ {
		batch, err := c.fetchPage(ctx, page)
		if err != nil {
			c.logger.Warn("aborting fetch after page error",
				"page", page, "records_so_far", len(records), "error", err)
			break
		}
		records = append(records, batch...)
		if len(batch) < c.opts.PerPage {
			break
		}
	}

	c.snapshot(records)

	if len(records) == 0 {
		return nil, ErrNoData
	}
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) ([]model.RawRecord, error) {
	endpoint := fmt.Sprintf("%s/%s/inventories", c.opts.BaseURL, c.opts.Organization)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create page request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	req.Header.Set("Accept", "application/json")

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(c.opts.PerPage))
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("page %d returned status %d", page, resp.StatusCode)
	}

	// Pages arrive wrapped in a data envelope. A missing or empty data
	// key means the walk is done, not that the page failed.
	var payload struct {
		Data []model.RawRecord `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}
	return payload.Data, nil
}

// snapshot hands the raw record payload to the configured sink, so a
// bad run can be replayed from what was actually fetched.
func (c *Client) snapshot(records []model.RawRecord) {
	if c.opts.Snapshot == nil {
		return
	}
	if records == nil {
		records = []model.RawRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		c.logger.Warn("marshal snapshot", "error", err)
		return
	}
	if err := c.opts.Snapshot(data); err != nil {
		c.logger.Warn("write snapshot", "error", err)
	}
}
