package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/offerradar/internal/model"
)

const userAgent = "offerradar/1.0 (+https://github.com/amishk599/offerradar)"

// offersResponse is the top-level offers API page.
type offersResponse struct {
	Results    []model.RawOffer `json:"results"`
	Total      *int             `json:"total"`
	Page       *int             `json:"page"`
	TotalPages *int             `json:"totalPages"`
	HasMore    *bool            `json:"hasMore"` // optional explicit end-of-pages flag
}

// OffersAdapter fetches pages from the job-offers API.
type OffersAdapter struct {
	baseURL string
	client  *http.Client
}

// NewOffersAdapter creates an adapter for GET {baseURL}?days=&page=.
func NewOffersAdapter(baseURL string, client *http.Client) *OffersAdapter {
	return &OffersAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// FetchPage retrieves a single page of raw offers. It does not retry; wrap it
// with retry.NewRetryFetcher for that.
func (a *OffersAdapter) FetchPage(ctx context.Context, days, page int) (model.Page, error) {
	if days < 0 {
		return model.Page{}, fmt.Errorf("offers fetch: %w: days must be >= 0, got %d", model.ErrInvalidRequest, days)
	}
	if page < 1 {
		return model.Page{}, fmt.Errorf("offers fetch: %w: page must be >= 1, got %d", model.ErrInvalidRequest, page)
	}

	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	q.Set("page", strconv.Itoa(page))
	reqURL := a.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.Page{}, fmt.Errorf("offers fetch page %d: %w", page, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return model.Page{}, fmt.Errorf("offers fetch page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return model.Page{}, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfter(resp.Header.Get("Retry-After"), time.Now()),
			Err:        fmt.Errorf("offers fetch page %d: %s", page, strings.TrimSpace(string(snippet))),
		}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var body offersResponse
	if err := dec.Decode(&body); err != nil {
		return model.Page{}, fmt.Errorf("offers fetch page %d: decode: %w", page, err)
	}
	if body.Results == nil {
		return model.Page{}, fmt.Errorf("offers fetch page %d: %w", page, errMissingResults)
	}

	return toPage(page, body), nil
}

var errMissingResults = fmt.Errorf("%w: no results array", model.ErrInvalidResponse)

// toPage decides HasMore: an empty page, an explicit hasMore=false, or reaching
// totalPages all end pagination.
func toPage(page int, body offersResponse) model.Page {
	p := model.Page{
		Number: page,
		Offers: body.Results,
	}
	if body.TotalPages != nil {
		p.TotalPages = *body.TotalPages
	}

	switch {
	case len(body.Results) == 0:
		p.HasMore = false
	case body.HasMore != nil:
		p.HasMore = *body.HasMore
	case body.TotalPages != nil:
		p.HasMore = page < *body.TotalPages
	default:
		p.HasMore = true
	}
	return p
}
