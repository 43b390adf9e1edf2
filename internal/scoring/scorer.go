package scoring

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-screener/internal/ai"
	"github.com/spigell/job-screener/internal/jobs"
	"github.com/spigell/job-screener/internal/logger"
	"github.com/spigell/job-screener/internal/utils"
)

const (
	MaxScore          = 10
	explanationMarker = "Explanation:"
)

var scoreRe = regexp.MustCompile(`Score:\s*(\d+)`)

// QA is one question with the candidate's answer.
type QA struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// ScoredAnswer is a QA pair with its evaluation.
type ScoredAnswer struct {
	Question    string `json:"question" yaml:"question"`
	Answer      string `json:"answer" yaml:"answer"`
	Score       int    `json:"score" yaml:"score"`
	Explanation string `json:"explanation" yaml:"explanation"`
}

// AnswerScorer grades candidate answers one at a time.
type AnswerScorer struct {
	generator ai.Generator
	logger    *zap.Logger
}

func NewAnswerScorer(generator ai.Generator, log *zap.Logger) *AnswerScorer {
	return &AnswerScorer{generator: generator, logger: logger.OrNop(log)}
}

// ScoreAnswers evaluates every pair in order with one generator call each.
// The first generator error aborts the whole batch.
func (s *AnswerScorer) ScoreAnswers(ctx context.Context, job jobs.Record, pairs []QA) ([]ScoredAnswer, error) {
	scored := make([]ScoredAnswer, 0, len(pairs))
	for i, qa := range pairs {
		prompt := render(answerTemplate, job, map[string]string{
			"QUESTION": qa.Question,
			"ANSWER":   qa.Answer,
		})

		text, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("score answer %d for job %s: %w", i+1, job.ID, err)
		}

		answer := ScoredAnswer{
			Question:    qa.Question,
			Answer:      qa.Answer,
			Score:       ExtractScore(text),
			Explanation: ExtractExplanation(text),
		}
		s.logger.Debug("answer scored",
			zap.String(logger.FieldJobID, job.ID.String()),
			zap.Int("question", i+1),
			zap.Int("score", answer.Score),
			zap.String("response", utils.TruncateForLog(text, 200)),
		)
		scored = append(scored, answer)
	}
	return scored, nil
}

// ExtractScore returns the first "Score: N" value. Missing or unparseable
// scores are 0; anything above MaxScore is clamped.
func ExtractScore(text string) int {
	m := scoreRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	score, err := strconv.Atoi(m[1])
	if err != nil {
		// Only overflow can fail here since the group is all digits.
		return 0
	}
	return min(score, MaxScore)
}

// ExtractExplanation returns the text following the first "Explanation:"
// marker, or the whole text when the marker is absent.
func ExtractExplanation(text string) string {
	if _, after, found := strings.Cut(text, explanationMarker); found {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(text)
}

// Average is the mean score rounded to two decimals, 0 for no answers.
func Average(scored []ScoredAnswer) float64 {
	if len(scored) == 0 {
		return 0
	}
	total := 0
	for _, a := range scored {
		total += a.Score
	}
	return math.Round(float64(total)/float64(len(scored))*100) / 100
}
