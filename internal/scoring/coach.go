package scoring

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-screener/internal/ai"
	"github.com/spigell/job-screener/internal/jobs"
	"github.com/spigell/job-screener/internal/logger"
)

// Coach answers follow-up questions about already scored answers.
type Coach struct {
	generator ai.Generator
	logger    *zap.Logger
}

func NewCoach(generator ai.Generator, log *zap.Logger) *Coach {
	return &Coach{generator: generator, logger: logger.OrNop(log)}
}

// Feedback returns the generator's raw reply to the candidate's question.
func (c *Coach) Feedback(ctx context.Context, job jobs.Record, scored []ScoredAnswer, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("follow-up question is empty")
	}

	prompt := render(coachTemplate, job, map[string]string{
		"EVALUATIONS": FormatEvaluations(scored),
		"QUESTION":    question,
	})

	c.logger.Debug("requesting coaching feedback",
		zap.String(logger.FieldJobID, job.ID.String()),
		zap.Int("answers", len(scored)),
	)

	text, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("coaching feedback for job %s: %w", job.ID, err)
	}
	return text, nil
}

// FormatEvaluations renders scored answers as the numbered block embedded in
// coaching prompts.
func FormatEvaluations(scored []ScoredAnswer) string {
	var b strings.Builder
	for i, a := range scored {
		fmt.Fprintf(&b, "\nQuestion %d: %s\n", i+1, a.Question)
		fmt.Fprintf(&b, "Answer: %s\n", a.Answer)
		fmt.Fprintf(&b, "Evaluation: Score: %d\nExplanation: %s\n", a.Score, a.Explanation)
	}
	return b.String()
}
