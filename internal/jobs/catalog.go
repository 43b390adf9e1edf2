package jobs

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/job-screener/internal/logger"
)

// Catalog is the in-memory table of job records plus the per-job question cache.
// Records are immutable after Load; the cache is safe for concurrent use.
type Catalog struct {
	records []Record
	index   map[string]int

	mu        sync.RWMutex
	questions map[string][]string
}

// Load normalizes raw postings into a catalog, preserving input order.
// It fails only when a posting lacks title, description or redirect_url.
func Load(postings []Posting, log *zap.Logger) (*Catalog, error) {
	log = logger.OrNop(log)

	c := &Catalog{
		records:   make([]Record, 0, len(postings)),
		index:     make(map[string]int, len(postings)),
		questions: make(map[string][]string),
	}

	nullIDs := 0
	for idx, posting := range postings {
		record, err := normalize(idx, posting, log)
		if err != nil {
			return nil, err
		}

		c.records = append(c.records, record)

		if !record.ID.Valid {
			nullIDs++
			continue
		}

		if _, exists := c.index[record.ID.Value]; exists {
			log.Debug("duplicate job id, keeping the first posting",
				zap.String(logger.FieldJobID, record.ID.Value),
				zap.Int("index", idx),
			)
			continue
		}
		c.index[record.ID.Value] = len(c.records) - 1
	}

	log.Info("job catalog loaded",
		zap.Int("postings", len(postings)),
		zap.Int("indexed", len(c.index)),
		zap.Int("without_id", nullIDs),
	)

	return c, nil
}

// Get returns the record with the given id.
func (c *Catalog) Get(id string) (Record, error) {
	idx, ok := c.index[id]
	if !ok {
		return Record{}, &JobNotFoundError{ID: id}
	}
	return c.records[idx], nil
}

// Records returns all records in load order.
func (c *Catalog) Records() []Record {
	return slices.Clone(c.records)
}

func (c *Catalog) Len() int {
	return len(c.records)
}

// Questions returns the cached questions for a job, if any.
func (c *Catalog) Questions(id string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	questions, ok := c.questions[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(questions), true
}

// SetQuestions fills the cache for a job exactly once. Later calls are no-ops.
// It reports whether the cache was written.
func (c *Catalog) SetQuestions(id string, questions []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.questions[id]; ok {
		return false
	}
	c.questions[id] = slices.Clone(questions)
	return true
}

// ResetQuestions drops the cached questions for a job so the next request regenerates them.
func (c *Catalog) ResetQuestions(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.questions, id)
}
