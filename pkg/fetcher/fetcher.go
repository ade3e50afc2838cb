// Package fetcher pages through the n8n workflows API.
package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/younsl/n8n-model-tracker/pkg/models"
)

const (
	APIKeyHeader    = "X-N8N-API-KEY"
	WorkflowsPath   = "/api/v1/workflows"
	DefaultPageSize = 20
)

// Batch is one element of a fetch sequence: either a page of workflows or
// the terminal error.
type Batch struct {
	Workflows []models.Workflow
	Err       error
}

type Options struct {
	Endpoint string
	APIKey   string
	PageSize int
	// Timeout applies per request. Zero means no timeout.
	Timeout time.Duration
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Fetcher lists workflows using cursor pagination
type Fetcher struct {
	endpoint string
	apiKey   string
	pageSize int
	client   *http.Client
}

type workflowPage struct {
	Data       []models.Workflow `json:"data"`
	NextCursor string            `json:"nextCursor"`
}

// New creates a Fetcher. Options are validated lazily by Fetch so that a
// misconfiguration is reported through the sequence like any other failure.
func New(opts Options) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{
		endpoint: opts.Endpoint,
		apiKey:   opts.APIKey,
		pageSize: opts.PageSize,
		client:   client,
	}
}

// ResolveEndpoint turns an n8n base URL into the workflows endpoint.
// An empty base URL resolves to an empty endpoint.
func ResolveEndpoint(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return ""
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(baseURL, WorkflowsPath) {
		return baseURL
	}
	return baseURL + WorkflowsPath
}

// Fetch returns a lazy sequence of workflow batches. Each batch is requested
// only when the consumer asks for it. The sequence ends after the page without
// a next cursor, or after a single batch carrying an error.
func (f *Fetcher) Fetch(ctx context.Context) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		if err := f.validate(); err != nil {
			logrus.WithError(err).Warn("Workflow fetch aborted before the first request")
			yield(Batch{Err: err})
			return
		}

		cursor := ""
		for page := 1; ; page++ {
			workflows, next, err := f.fetchPage(ctx, cursor)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"page":  page,
					"error": err,
				}).Warn("Workflow page request failed")
				yield(Batch{Err: err})
				return
			}

			logrus.WithFields(logrus.Fields{
				"page":      page,
				"count":     len(workflows),
				"hasCursor": next != "",
			}).Debug("Fetched workflow page")

			if !yield(Batch{Workflows: workflows}) {
				return
			}
			if next == "" {
				return
			}
			cursor = next
		}
	}
}

func (f *Fetcher) validate() error {
	if f.apiKey == "" {
		return ErrMissingAPIKey
	}
	if f.endpoint == "" {
		return ErrMissingEndpoint
	}
	if f.pageSize < 1 {
		return ErrInvalidPageSize
	}
	return nil
}

// fetchPage requests a single page and returns its workflows and next cursor.
// The response body is fully read and closed before returning.
func (f *Fetcher) fetchPage(ctx context.Context, cursor string) ([]models.Workflow, string, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return nil, "", &RequestError{URL: f.endpoint, Err: err}
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(f.pageSize))
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	u.RawQuery = q.Encode()
	reqURL := u.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", &RequestError{URL: reqURL, Err: err}
	}
	req.Header.Set(APIKeyHeader, f.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", &RequestError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &RequestError{URL: reqURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &StatusError{
			StatusCode: resp.StatusCode,
			URL:        reqURL,
			Body:       excerpt(body),
		}
	}

	var page workflowPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", &DecodeError{
			StatusCode: resp.StatusCode,
			URL:        reqURL,
			Body:       excerpt(body),
			Err:        err,
		}
	}

	return page.Data, page.NextCursor, nil
}
