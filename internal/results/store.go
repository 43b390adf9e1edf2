package results

import (
	"slices"
	"sort"
	"sync"
)

// Store keeps candidate results in submission order. Submissions are never
// deduplicated; a candidate answering twice for the same job has two entries.
type Store struct {
	mu      sync.RWMutex
	results []CandidateResult
}

func NewStore() *Store {
	return &Store{}
}

// Add appends a result. The answers slice is copied.
func (s *Store) Add(result CandidateResult) {
	result.Answers = slices.Clone(result.Answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

func (s *Store) All() []CandidateResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.results)
}

// ForJob returns results for a job in submission order.
func (s *Store) ForJob(jobID string) []CandidateResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []CandidateResult
	for _, r := range s.results {
		if r.JobID == jobID {
			out = append(out, r)
		}
	}
	return out
}

// Ranked orders a job's results by average score, highest first.
// Equal scores keep submission order.
func (s *Store) Ranked(jobID string) []CandidateResult {
	return Rank(s.ForJob(jobID))
}

// Find returns the first result for the candidate and job.
func (s *Store) Find(candidateID, jobID string) (CandidateResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.results {
		if r.CandidateID == candidateID && r.JobID == jobID {
			return r, true
		}
	}
	return CandidateResult{}, false
}

// Len reports the number of stored results.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// Rank stable-sorts results by average score in descending order, in place.
func Rank(results []CandidateResult) []CandidateResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].AverageScore > results[j].AverageScore
	})
	return results
}
