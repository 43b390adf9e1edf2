package results

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/job-screener/internal/scoring"
)

// Candidate is a person going through screening. The id is assigned once at creation.
type Candidate struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

func NewCandidate(name string) Candidate {
	return Candidate{ID: uuid.NewString(), Name: strings.TrimSpace(name)}
}

// CandidateResult is the outcome of one submission for one job.
type CandidateResult struct {
	JobID         string                 `json:"job_id" yaml:"job_id"`
	JobTitle      string                 `json:"job_title" yaml:"job_title"`
	CandidateID   string                 `json:"candidate_id" yaml:"candidate_id"`
	CandidateName string                 `json:"name" yaml:"name"`
	AverageScore  float64                `json:"average_score" yaml:"average_score"`
	Answers       []scoring.ScoredAnswer `json:"answers" yaml:"answers"`
	SubmittedAt   time.Time              `json:"submitted_at" yaml:"submitted_at"`
}
