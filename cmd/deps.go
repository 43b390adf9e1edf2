package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-screener/internal/adzuna"
	"github.com/spigell/job-screener/internal/ai/gemini"
	"github.com/spigell/job-screener/internal/archive"
	"github.com/spigell/job-screener/internal/filtering"
	"github.com/spigell/job-screener/internal/jobs"
	"github.com/spigell/job-screener/internal/logger"
	"github.com/spigell/job-screener/internal/news"
	"github.com/spigell/job-screener/internal/secrets"
)

// fieldModel is reachable from commands whose local logger shadows the package.
const fieldModel = logger.FieldModel

const systemInstruction = "You are an assistant for recruiters and job seekers. Follow the requested output format exactly."

func newGenerator(ctx context.Context, cfg *GeminiConfig, log *zap.Logger) (*gemini.Generator, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	return gemini.NewGenerator(ctx, gemini.Config{
		APIKey:            apiKey,
		Model:             cfg.Model,
		Temperature:       cfg.Temperature,
		SystemInstruction: systemInstruction,
		MaxRetries:        cfg.MaxRetries,
		MaxLogLength:      cfg.MaxLogLength,
	}, log.With(zap.Int("ai_retry_attempts", cfg.MaxRetries)))
}

func newAdzuna(cfg *AdzunaConfig, log *zap.Logger) (*adzuna.Client, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "adzuna api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "ADZUNA_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	appID, err := secrets.Load(secrets.Source{
		Name:  "adzuna app id",
		Value: cfg.AppID,
		Env:   "ADZUNA_APP_ID",
	})
	if err != nil {
		return nil, err
	}

	return adzuna.New(adzuna.Config{
		AppID:             appID,
		APIKey:            apiKey,
		Country:           cfg.Country,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, log), nil
}

func newNews(cfg *NewsConfig, log *zap.Logger) (*news.Client, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "news api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "NEWS_API_KEY",
	})
	if err != nil {
		return nil, err
	}
	return news.New(news.Config{APIKey: apiKey, Limit: cfg.Limit}, log), nil
}

// loadCatalog fetches postings and builds the catalog. A failed fetch never
// yields a partial catalog.
func loadCatalog(ctx context.Context, config *Config, log *zap.Logger) (*jobs.Catalog, error) {
	client, err := newAdzuna(config.Adzuna, log)
	if err != nil {
		return nil, err
	}

	postings, err := client.FetchPostings(ctx, config.Adzuna.Pages, config.Adzuna.PerPage)
	if err != nil {
		return nil, fmt.Errorf("fetching postings: %w", err)
	}

	return jobs.Load(postings, log)
}

func buildFilters(cfg *FiltersConfig) []filtering.Filter {
	steps := []filtering.Filter{
		filtering.NewCategory(cfg.Categories),
		filtering.NewLocation(cfg.Locations),
		filtering.NewCompany(cfg.Companies),
		filtering.NewKeyword(cfg.Keywords),
		filtering.NewExcludedCompanies(cfg.ExcludeCompanies),
	}
	for _, name := range cfg.Disabled {
		filtering.DisableByName(steps, strings.TrimSpace(name), "disabled by configuration")
	}
	return steps
}

func openArchive(ctx context.Context, cfg *ResultsConfig, log *zap.Logger) (*archive.DB, error) {
	if cfg == nil || cfg.Database == "" {
		return nil, nil
	}
	return archive.Open(ctx, cfg.Database, log)
}

// bindFilterFlags adds the filter flags shared by jobs and screen.
func bindFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("category", nil, "keep jobs whose category contains any of the values")
	cmd.Flags().StringSlice("location", nil, "keep jobs whose location contains any of the values")
	cmd.Flags().StringSlice("company", nil, "keep jobs posted by companies matching any of the values")
	cmd.Flags().StringSlice("keyword", nil, "keep jobs mentioning any of the values in title or description")
	cmd.Flags().StringSlice("exclude-company", nil, "drop jobs posted by companies matching any of the values")
	cmd.Flags().StringSlice("no-filter", nil, "names of filters to skip (category, location, company, keyword, excluded_companies)")
	cmd.Flags().Int("pages", 0, "number of result pages to fetch (overrides adzuna.pages)")
}

// applyFilterFlags lets flags set on the command override configured filters.
func applyFilterFlags(cmd *cobra.Command, config *Config) {
	override := func(flag string, target *[]string) {
		if cmd.Flags().Changed(flag) {
			values, _ := cmd.Flags().GetStringSlice(flag)
			*target = values
		}
	}
	override("category", &config.Filters.Categories)
	override("location", &config.Filters.Locations)
	override("company", &config.Filters.Companies)
	override("keyword", &config.Filters.Keywords)
	override("exclude-company", &config.Filters.ExcludeCompanies)
	override("no-filter", &config.Filters.Disabled)

	if cmd.Flags().Changed("pages") {
		if pages, _ := cmd.Flags().GetInt("pages"); pages > 0 {
			config.Adzuna.Pages = pages
		}
	}
}
