package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-screener/internal/cvtext"
	"github.com/spigell/job-screener/internal/jobs"
	"github.com/spigell/job-screener/internal/news"
	"github.com/spigell/job-screener/internal/results"
	"github.com/spigell/job-screener/internal/scoring"
	"github.com/spigell/job-screener/internal/screening"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Interactively screen a candidate against a job",
	Run: func(cmd *cobra.Command, _ []string) {
		screen(cmd)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)
	bindFilterFlags(screenCmd)

	screenCmd.Flags().StringP("name", "n", "", "candidate name (asked interactively when empty)")
	screenCmd.Flags().String("cv", "", "path to the candidate CV (.pdf, .txt or .md) for a fit evaluation")
	screenCmd.Flags().String("job", "", "job id to screen for (chosen interactively when empty)")
}

func screen(cmd *cobra.Command) {
	ctx := context.Background()
	logger := setupLogger()
	defer logger.Sync()
	out := cmd.OutOrStdout()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	applyFilterFlags(cmd, config)

	generator, err := newGenerator(ctx, config.Gemini, logger)
	if err != nil {
		logger.Fatal("creating gemini generator", zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY or gemini.api-key-file"))
	}

	logger.Info("starting the job-screener",
		zap.String("version", version),
		zap.String(fieldModel, generator.Model()),
	)

	records, catalog, err := fetchFiltered(ctx, config, logger)
	if err != nil {
		logger.Fatal("loading jobs", zap.Error(err))
	}

	job, err := chooseJob(cmd, catalog, records)
	if err != nil {
		logger.Fatal("choosing a job", zap.Error(err))
	}

	name, _ := cmd.Flags().GetString("name")
	if strings.TrimSpace(name) == "" {
		if name, err = ask("Candidate name", true); err != nil {
			logger.Fatal("reading candidate name", zap.Error(err))
		}
	}
	candidate := results.NewCandidate(name)

	store := results.NewStore()
	var opts []screening.Option
	db, err := openArchive(ctx, config.Results, logger)
	if err != nil {
		logger.Fatal("opening results archive", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
		if _, err := db.Restore(ctx, store); err != nil {
			logger.Fatal("restoring results", zap.Error(err))
		}
		opts = append(opts, screening.WithRecorder(db))
	}

	pipeline := screening.New(catalog, generator, store, logger, opts...)
	jobID := job.ID.Value

	fmt.Fprintf(out, "\n%s\n\n%s\n\n", jobLabel(job), job.Description)

	if cvPath, _ := cmd.Flags().GetString("cv"); cvPath != "" {
		if err := evaluateCV(ctx, out, pipeline, jobID, cvPath); err != nil {
			logger.Warn("cv evaluation failed", zap.Error(err))
		}
	}

	questions, err := pipeline.Questions(ctx, jobID)
	if err != nil {
		logger.Fatal("generating screening questions", zap.Error(err))
	}

	answers := make([]scoring.QA, 0, len(questions))
	for i, q := range questions {
		fmt.Fprintf(out, "\nQuestion %d: %s\n", i+1, q)
		answer, err := ask("Your answer", false)
		if err != nil {
			logger.Fatal("reading answer", zap.Error(err))
		}
		answers = append(answers, scoring.QA{Question: q, Answer: answer})
	}

	result, err := pipeline.Submit(ctx, candidate, jobID, answers)
	if err != nil {
		if result.CandidateID == "" {
			logger.Fatal("scoring answers", zap.Error(err))
		}
		logger.Warn("result not archived", zap.Error(err))
	}

	printResult(out, result)

	if err := followUp(ctx, out, pipeline, jobID, result.Answers, logger); err != nil {
		logger.Fatal("follow-up feedback", zap.Error(err))
	}

	fmt.Fprintf(out, "\nRanking for %s:\n", job.Title)
	printRankingTable(out, pipeline.Ranking(jobID))

	if config.News.Enabled && job.Company != "" {
		showNews(ctx, out, config.News, job.Company, logger)
	}
}

func chooseJob(cmd *cobra.Command, catalog *jobs.Catalog, records []jobs.Record) (jobs.Record, error) {
	if id, _ := cmd.Flags().GetString("job"); id != "" {
		return catalog.Get(id)
	}

	selectable := make([]jobs.Record, 0, len(records))
	labels := make([]string, 0, len(records))
	for _, r := range records {
		// Jobs without an id cannot be looked up again later.
		if !r.ID.Valid {
			continue
		}
		selectable = append(selectable, r)
		labels = append(labels, jobLabel(r))
	}
	if len(selectable) == 0 {
		return jobs.Record{}, errors.New("no jobs with an id left after filters")
	}

	jobPrompt := promptui.Select{
		Label: "Choose a job and press ENTER",
		Items: labels,
		Size:  10,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(labels[index]), strings.ToLower(input))
		},
	}

	idx, _, err := jobPrompt.Run()
	if err != nil {
		return jobs.Record{}, err
	}
	return selectable[idx], nil
}

func ask(label string, required bool) (string, error) {
	p := promptui.Prompt{Label: label}
	if required {
		p.Validate = func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("value is required")
			}
			return nil
		}
	}
	answer, err := p.Run()
	return strings.TrimSpace(answer), err
}

func evaluateCV(ctx context.Context, out io.Writer, pipeline *screening.Pipeline, jobID, path string) error {
	text, err := cvtext.Extract(ctx, path)
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("no text found in %s", path)
	}

	evaluation, err := pipeline.MatchCV(ctx, jobID, text)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "CV evaluation:\n%s\n", strings.TrimSpace(evaluation))
	return nil
}

func printResult(w io.Writer, result results.CandidateResult) {
	fmt.Fprintf(w, "\nAverage score: %.2f/10\n", result.AverageScore)
	for i, a := range result.Answers {
		fmt.Fprintf(w, "\nQuestion %d: %s\n", i+1, a.Question)
		fmt.Fprintf(w, "  Answer: %s\n", a.Answer)
		fmt.Fprintf(w, "  Score: %d/10\n", a.Score)
		fmt.Fprintf(w, "  Explanation: %s\n", a.Explanation)
	}
}

func followUp(ctx context.Context, out io.Writer, pipeline *screening.Pipeline, jobID string, scored []scoring.ScoredAnswer, logger *zap.Logger) error {
	for {
		question, err := ask("Follow-up question (empty to finish)", false)
		if err != nil {
			return err
		}
		if question == "" {
			return nil
		}

		feedback, err := pipeline.Feedback(ctx, jobID, scored, question)
		if err != nil {
			logger.Warn("coaching feedback failed", zap.Error(err))
			continue
		}
		fmt.Fprintf(out, "\n%s\n\n", strings.TrimSpace(feedback))
	}
}

func showNews(ctx context.Context, out io.Writer, cfg *NewsConfig, company string, logger *zap.Logger) {
	client, err := newNews(cfg, logger)
	if err != nil {
		logger.Warn("skipping company news", zap.Error(err))
		return
	}

	from := time.Now().AddDate(0, 0, -cfg.LookbackDays)
	articles, err := client.Headlines(ctx, company, from)
	if err != nil {
		var apiErr *news.APIError
		switch {
		case errors.Is(err, news.ErrNotFound):
			logger.Info("no news found", zap.String("company", company))
		case errors.As(err, &apiErr):
			logger.Warn("news api error", zap.Int("status", apiErr.StatusCode), zap.Error(err))
		default:
			logger.Warn("fetching news", zap.Error(err))
		}
		return
	}

	if len(articles) == 0 {
		return
	}

	fmt.Fprintf(out, "\nLatest news about %s:\n", company)
	for _, a := range articles {
		fmt.Fprintf(out, "- %s (%s)\n  %s\n", a.Title, a.Source, a.URL)
	}
}
