package adzuna

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/job-screener/internal/jobs"
	"github.com/spigell/job-screener/internal/utils"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

type searchResponse struct {
	Count   int           `json:"count"`
	Results []jobs.Posting `json:"results"`
}

// FetchPostings downloads up to pages result pages. Any failed page aborts the
// whole fetch so callers never build a catalog from a partial listing.
// Fetching stops early once a page comes back empty.
func (c *Client) FetchPostings(ctx context.Context, pages, perPage int) ([]jobs.Posting, error) {
	if pages < 1 {
		return nil, fmt.Errorf("pages must be positive, got %d", pages)
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	var postings []jobs.Posting
	for page := 1; page <= pages; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		response, err := c.searchPage(ctx, page, perPage)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}

		for _, p := range response.Results {
			if desc, ok := p[jobs.FieldDescription].(string); ok {
				p[jobs.FieldDescription] = utils.PlainText(desc)
			}
			postings = append(postings, p)
		}

		c.logger.Debug("got response from Adzuna",
			zap.Int("page", page),
			zap.Int("results", len(response.Results)),
			zap.Int("total_available", response.Count),
			zap.Int("fetched", len(postings)),
		)

		if len(response.Results) == 0 {
			break
		}
	}

	c.logger.Info("postings fetched", zap.Int("postings", len(postings)))

	return postings, nil
}

func (c *Client) searchPage(ctx context.Context, page, perPage int) (*searchResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", c.APIURL, url.PathEscape(c.country), page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("app_id", c.appID)
	q.Set("app_key", c.apiKey)
	q.Set("results_per_page", strconv.Itoa(perPage))
	q.Set("content-type", contentType)
	req.URL.RawQuery = q.Encode()

	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	c.logger.Debug("make request", zap.String("url", redact(req.URL)))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	// Transparent decompression is disabled once Accept-Encoding is set by hand.
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	var response searchResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &response, nil
}

// redact hides credentials in logged URLs.
func redact(u *url.URL) string {
	c := *u
	q := c.Query()
	if q.Has("app_key") {
		q.Set("app_key", "***")
	}
	c.RawQuery = q.Encode()
	return c.String()
}
