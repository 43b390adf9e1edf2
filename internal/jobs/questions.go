package jobs

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/job-screener/internal/ai"
	"github.com/spigell/job-screener/internal/logger"
)

//go:embed prompts/questions.md
var questionsTemplate string

var ordinalRe = regexp.MustCompile(`^\s*\d+[.)]\s*`)

// QuestionGenerator produces screening questions for a job and memoizes them in the catalog.
type QuestionGenerator struct {
	catalog   *Catalog
	generator ai.Generator
	logger    *zap.Logger
	flights   singleflight.Group
}

func NewQuestionGenerator(catalog *Catalog, generator ai.Generator, log *zap.Logger) *QuestionGenerator {
	return &QuestionGenerator{
		catalog:   catalog,
		generator: generator,
		logger:    logger.OrNop(log),
	}
}

// Ensure returns the job's screening questions, generating them on first use.
// Concurrent first requests for the same job share a single generation call,
// while each caller still stops waiting when its own ctx is done.
// Nothing is cached when generation fails.
func (g *QuestionGenerator) Ensure(ctx context.Context, job Record) ([]string, error) {
	key := job.ID.Value
	if !job.ID.Valid {
		return nil, &JobNotFoundError{ID: job.ID.String()}
	}

	for {
		if questions, ok := g.catalog.Questions(key); ok {
			g.logger.Debug("using cached screening questions", zap.String(logger.FieldJobID, key))
			return questions, nil
		}

		led := false
		ch := g.flights.DoChan(key, func() (any, error) {
			led = true
			return g.generate(ctx, job)
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				// The leader's deadline is not ours: join or start a new flight.
				if !led && ctx.Err() == nil && isContextErr(res.Err) {
					g.logger.Debug("shared generation cancelled by another caller, retrying",
						zap.String(logger.FieldJobID, key))
					continue
				}
				return nil, res.Err
			}

			if res.Shared {
				g.logger.Debug("screening questions shared with a concurrent request", zap.String(logger.FieldJobID, key))
			}
			return append([]string(nil), res.Val.([]string)...), nil
		}
	}
}

func (g *QuestionGenerator) generate(ctx context.Context, job Record) ([]string, error) {
	key := job.ID.Value

	// Another flight may have finished between the first lookup and this one.
	if questions, ok := g.catalog.Questions(key); ok {
		return questions, nil
	}

	prompt := BuildQuestionsPrompt(job)
	g.logger.Info("generating screening questions",
		zap.String(logger.FieldJobID, key),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := g.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate screening questions for job %s: %w", key, err)
	}

	questions := CleanQuestions(raw)
	if len(questions) != 3 {
		g.logger.Warn("unexpected number of screening questions",
			zap.String(logger.FieldJobID, key),
			zap.Int("count", len(questions)),
		)
	}

	g.catalog.SetQuestions(key, questions)
	// Return the stored copy so every caller observes the same cached list.
	stored, _ := g.catalog.Questions(key)
	return stored, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// BuildQuestionsPrompt renders the question-generation prompt for a job.
func BuildQuestionsPrompt(job Record) string {
	return strings.NewReplacer(
		"{{JOB_TITLE}}", job.Title,
		"{{JOB_DESCRIPTION}}", job.Description,
	).Replace(questionsTemplate)
}

// CleanQuestions splits raw model output into questions, dropping blank lines
// and leading ordinals such as "1." or "2)". The number of questions is not enforced.
func CleanQuestions(raw string) []string {
	var questions []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		questions = append(questions, strings.TrimSpace(ordinalRe.ReplaceAllString(line, "")))
	}
	return questions
}
