package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/job-screener/internal/export"
	"github.com/spigell/job-screener/internal/results"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Print the candidate ranking for a job from the results archive",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().String("job", "", "job id to rank candidates for")
	rankCmd.Flags().StringP("output", "o", outputTable, "output format: table, json or yaml")
	rankCmd.Flags().String("xlsx", "", "also write the ranking to this Excel file")
	_ = rankCmd.MarkFlagRequired("job")
}

func rank(cmd *cobra.Command) {
	ctx := context.Background()
	logger := setupLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	db, err := openArchive(ctx, config.Results, logger)
	if err != nil {
		logger.Fatal("opening results archive", zap.Error(err))
	}
	if db == nil {
		logger.Fatal("results archive is not configured",
			zap.String("hint", "set results.database in the config or JOB_SCREENER_DATABASE"))
	}
	defer db.Close()

	store := results.NewStore()
	if _, err := db.Restore(ctx, store); err != nil {
		logger.Fatal("restoring results", zap.Error(err))
	}

	jobID, _ := cmd.Flags().GetString("job")
	ranked := store.Ranked(jobID)
	if len(ranked) == 0 {
		logger.Info("no results for job", zap.String("job_id", jobID))
		return
	}

	format, _ := cmd.Flags().GetString("output")
	if err := writeRanking(cmd.OutOrStdout(), format, ranked); err != nil {
		logger.Fatal("printing ranking", zap.Error(err))
	}

	if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
		saved, err := export.Leaderboard(ranked, path)
		if err != nil {
			logger.Fatal("exporting ranking", zap.Error(err))
		}
		logger.Info("ranking exported", zap.String("filename", saved))
	}
}

func writeRanking(w io.Writer, format string, ranked []results.CandidateResult) error {
	switch format {
	case outputTable, "":
		printRankingTable(w, ranked)
		return nil
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ranked); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.New("unknown output format: " + format)
	}
}

func printRankingTable(w io.Writer, ranked []results.CandidateResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tCANDIDATE ID\tAVERAGE")
	for i, r := range ranked {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\n", i+1, r.CandidateName, r.CandidateID, r.AverageScore)
	}
	tw.Flush()
}
