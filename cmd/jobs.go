package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-screener/internal/filtering"
	"github.com/spigell/job-screener/internal/jobs"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Fetch job postings and list the ones passing the filters",
	Run: func(cmd *cobra.Command, _ []string) {
		listJobs(cmd)
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	bindFilterFlags(jobsCmd)
}

func listJobs(cmd *cobra.Command) {
	ctx := context.Background()
	logger := setupLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	applyFilterFlags(cmd, config)

	records, _, err := fetchFiltered(ctx, config, logger)
	if err != nil {
		logger.Fatal("loading jobs", zap.Error(err))
	}

	if len(records) == 0 {
		logger.Info("exiting", zap.String("reason", "no jobs left after filters"))
		return
	}

	printJobs(cmd.OutOrStdout(), records)
}

// fetchFiltered loads the catalog and returns the records passing the configured filters.
func fetchFiltered(ctx context.Context, config *Config, logger *zap.Logger) ([]jobs.Record, *jobs.Catalog, error) {
	catalog, err := loadCatalog(ctx, config, logger)
	if err != nil {
		return nil, nil, err
	}

	steps := buildFilters(config.Filters)
	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter configured",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.Any("details", status.Details),
		)
	}

	records, err := filtering.Run(ctx, steps, catalog.Records(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("filtering: %w", err)
	}

	return records, catalog, nil
}

func jobLabel(r jobs.Record) string {
	label := fmt.Sprintf("%s | %s", r.ID, r.Title)
	if r.Company != "" {
		label += " at " + r.Company
	}
	if r.Location != "" {
		label += " (" + r.Location + ")"
	}
	return label
}

func printJobs(w io.Writer, records []jobs.Record) {
	for _, r := range records {
		fmt.Fprintln(w, jobLabel(r))
	}
}
