package screening

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-screener/internal/ai"
	"github.com/spigell/job-screener/internal/jobs"
	"github.com/spigell/job-screener/internal/logger"
	"github.com/spigell/job-screener/internal/results"
	"github.com/spigell/job-screener/internal/scoring"
)

// Recorder persists submitted results beyond the process lifetime.
type Recorder interface {
	Save(ctx context.Context, result results.CandidateResult) error
}

type Option func(*Pipeline)

// WithRecorder saves each submission after it is added to the store.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline ties the catalog, the generator-backed components and the result store together.
type Pipeline struct {
	catalog   *jobs.Catalog
	questions *jobs.QuestionGenerator
	scorer    *scoring.AnswerScorer
	matcher   *scoring.CVMatcher
	coach     *scoring.Coach
	store     *results.Store
	recorder  Recorder
	now       func() time.Time
	logger    *zap.Logger
}

func New(catalog *jobs.Catalog, generator ai.Generator, store *results.Store, log *zap.Logger, opts ...Option) *Pipeline {
	log = logger.OrNop(log)
	p := &Pipeline{
		catalog:   catalog,
		questions: jobs.NewQuestionGenerator(catalog, generator, log),
		scorer:    scoring.NewAnswerScorer(generator, log),
		matcher:   scoring.NewCVMatcher(generator, log),
		coach:     scoring.NewCoach(generator, log),
		store:     store,
		now:       time.Now,
		logger:    log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Questions(ctx context.Context, jobID string) ([]string, error) {
	job, err := p.catalog.Get(jobID)
	if err != nil {
		return nil, err
	}
	return p.questions.Ensure(ctx, job)
}

func (p *Pipeline) MatchCV(ctx context.Context, jobID, cvText string) (string, error) {
	job, err := p.catalog.Get(jobID)
	if err != nil {
		return "", err
	}
	return p.matcher.Match(ctx, cvText, job)
}

// Submit scores the answers, stores the result and returns it.
// Nothing is stored when scoring fails.
func (p *Pipeline) Submit(ctx context.Context, candidate results.Candidate, jobID string, answers []scoring.QA) (results.CandidateResult, error) {
	job, err := p.catalog.Get(jobID)
	if err != nil {
		return results.CandidateResult{}, err
	}

	fields := logger.Screening(jobID, candidate.ID)

	scored, err := p.scorer.ScoreAnswers(ctx, job, answers)
	if err != nil {
		return results.CandidateResult{}, err
	}

	result := results.CandidateResult{
		JobID:         jobID,
		JobTitle:      job.Title,
		CandidateID:   candidate.ID,
		CandidateName: candidate.Name,
		AverageScore:  scoring.Average(scored),
		Answers:       scored,
		SubmittedAt:   p.now().UTC(),
	}
	p.store.Add(result)

	p.logger.Info("candidate result recorded", append(fields, zap.Float64("average_score", result.AverageScore))...)

	if p.recorder != nil {
		if err := p.recorder.Save(ctx, result); err != nil {
			return result, fmt.Errorf("archive result: %w", err)
		}
	}

	return result, nil
}

func (p *Pipeline) Ranking(jobID string) []results.CandidateResult {
	return p.store.Ranked(jobID)
}

func (p *Pipeline) Feedback(ctx context.Context, jobID string, scored []scoring.ScoredAnswer, question string) (string, error) {
	job, err := p.catalog.Get(jobID)
	if err != nil {
		return "", err
	}
	return p.coach.Feedback(ctx, job, scored, question)
}
