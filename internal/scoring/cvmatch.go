package scoring

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-screener/internal/ai"
	"github.com/spigell/job-screener/internal/jobs"
	"github.com/spigell/job-screener/internal/logger"
)

// CVMatcher asks the generator how well a CV fits a job.
type CVMatcher struct {
	generator ai.Generator
	logger    *zap.Logger
}

func NewCVMatcher(generator ai.Generator, log *zap.Logger) *CVMatcher {
	return &CVMatcher{generator: generator, logger: logger.OrNop(log)}
}

// Match returns the generator's evaluation verbatim. The text follows the
// "Score: X / Explanation: ..." format but is not parsed here.
func (m *CVMatcher) Match(ctx context.Context, cvText string, job jobs.Record) (string, error) {
	m.logger.Info("matching cv to job",
		zap.String(logger.FieldJobID, job.ID.String()),
		zap.Int("cv_length", len(cvText)),
	)

	text, err := m.generator.Generate(ctx, render(cvTemplate, job, map[string]string{"CV_TEXT": cvText}))
	if err != nil {
		return "", fmt.Errorf("match cv to job %s: %w", job.ID, err)
	}
	return text, nil
}
