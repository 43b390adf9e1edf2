package adzuna

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/job-screener/internal/logger"
)

const (
	apiURL    = "https://api.adzuna.com/v1/api/jobs"
	userAgent = "spigell/job-screener"

	DefaultCountry = "us"
	// Adzuna allows roughly one request per second.
	DefaultRequestsPerSecond = 1.0
	MaxPerPage               = 50
)

// Config carries credentials and paging defaults for the Adzuna search API.
type Config struct {
	AppID             string
	APIKey            string
	Country           string
	RequestsPerSecond float64
}

type Client struct {
	appID      string
	apiKey     string
	country    string
	limiter    *rate.Limiter
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(cfg Config, log *zap.Logger) *Client {
	country := cfg.Country
	if country == "" {
		country = DefaultCountry
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}

	return &Client{
		appID:   cfg.AppID,
		apiKey:  cfg.APIKey,
		country: country,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger.OrNop(log),
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		UserAgent: userAgent,
		APIURL:    apiURL,
	}
}
