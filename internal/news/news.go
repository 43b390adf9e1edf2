package news

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

	"go.uber.org/zap"

	"github.com/spigell/job-screener/internal/logger"
	"github.com/spigell/job-screener/internal/utils"
)

const (
	apiURL       = "https://newsapi.org/v2/everything"
	defaultLimit = 2
	sortBy       = "popularity"
	dateLayout   = "2006-01-02"
)

// ErrNotFound is returned when NewsAPI answers 404.
var ErrNotFound = errors.New("news resource not found")

// APIError is any other unsuccessful NewsAPI response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("newsapi: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("newsapi: status %d", e.StatusCode)
}

type Config struct {
	APIKey string
	Limit  int
}

// Article is a single headline about a company.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
}

type Client struct {
	apiKey     string
	limit      int
	logger     *zap.Logger
	HTTPClient *http.Client
	APIURL     string
}

func New(cfg Config, log *zap.Logger) *Client {
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Client{
		apiKey: cfg.APIKey,
		limit:  limit,
		logger: logger.OrNop(log),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		APIURL: apiURL,
	}
}

type articleResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Headlines returns the most popular articles mentioning company since from.
// An empty result is not an error.
func (c *Client) Headlines(ctx context.Context, company string, from time.Time) ([]Article, error) {
	q := url.Values{}
	q.Set("q", company)
	q.Set("from", from.Format(dateLayout))
	q.Set("sortBy", sortBy)
	q.Set("pageSize", strconv.Itoa(c.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	c.logger.Info("fetching news", zap.String("company", company), zap.String("from", from.Format(dateLayout)))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var body articleResponse
	decodeErr := json.Unmarshal(data, &body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, company)
	case resp.StatusCode != http.StatusOK:
		return nil, &APIError{StatusCode: resp.StatusCode, Code: body.Code, Message: body.Message}
	case decodeErr != nil:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "invalid JSON response: " + decodeErr.Error()}
	}

	if len(body.Articles) == 0 {
		c.logger.Warn("no news available", zap.String("company", company))
		return nil, nil
	}

	articles := make([]Article, 0, min(len(body.Articles), c.limit))
	for _, a := range body.Articles {
		if len(articles) == c.limit {
			break
		}
		articles = append(articles, Article{
			Title:       a.Title,
			Description: utils.PlainText(a.Description),
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
	}
	return articles, nil
}
