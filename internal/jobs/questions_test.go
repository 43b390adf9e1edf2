package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-screener/internal/ai"
)

func loadOne(t *testing.T) (*Catalog, Record) {
	t.Helper()
	catalog, err := Load([]Posting{posting("101", "Backend Engineer")}, nil)
	require.NoError(t, err)
	job, err := catalog.Get("101")
	require.NoError(t, err)
	return catalog, job
}

func TestEnsureGeneratesOnce(t *testing.T) {
	catalog, job := loadOne(t)

	var calls atomic.Int32
	var prompt string
	gen := ai.GenerateFunc(func(_ context.Context, p string) (string, error) {
		calls.Add(1)
		prompt = p
		return "1. Q one?\n2) Q two?\n\n3. Q three?", nil
	})
	g := NewQuestionGenerator(catalog, gen, nil)

	first, err := g.Ensure(context.Background(), job)
	require.NoError(t, err)
	second, err := g.Ensure(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, []string{"Q one?", "Q two?", "Q three?"}, first)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, calls.Load())
	assert.Contains(t, prompt, "Job Title: Backend Engineer")
	assert.Contains(t, prompt, "Job Description: Backend Engineer description")

	cached, ok := catalog.Questions("101")
	require.True(t, ok)
	assert.Equal(t, first, cached)
}

func TestEnsureConcurrentCallersShareGeneration(t *testing.T) {
	catalog, job := loadOne(t)

	var calls atomic.Int32
	release := make(chan struct{})
	gen := ai.GenerateFunc(func(_ context.Context, _ string) (string, error) {
		calls.Add(1)
		<-release
		return "1. Only?", nil
	})
	g := NewQuestionGenerator(catalog, gen, nil)

	const callers = 8
	var (
		wg      sync.WaitGroup
		started sync.WaitGroup
		results = make([][]string, callers)
		errs    = make([]error, callers)
	)
	started.Add(callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			results[i], errs[i] = g.Ensure(context.Background(), job)
		}(i)
	}
	started.Wait()
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []string{"Only?"}, results[i])
	}
}

func TestEnsureWaiterHonorsOwnDeadline(t *testing.T) {
	catalog, job := loadOne(t)

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	gen := ai.GenerateFunc(func(_ context.Context, _ string) (string, error) {
		calls.Add(1)
		close(entered)
		<-release
		return "1. Slow?", nil
	})
	g := NewQuestionGenerator(catalog, gen, nil)

	leaderDone := make(chan error, 1)
	go func() {
		_, err := g.Ensure(context.Background(), job)
		leaderDone <- err
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	waiterDone := make(chan error, 1)
	go func() {
		_, err := g.Ensure(ctx, job)
		waiterDone <- err
	}()

	select {
	case err := <-waiterDone:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("caller with an expired deadline is still waiting for the shared generation")
	}

	close(release)
	require.NoError(t, <-leaderDone)
	assert.EqualValues(t, 1, calls.Load())
}

func TestEnsureWaiterSurvivesLeaderCancellation(t *testing.T) {
	catalog, job := loadOne(t)

	var calls atomic.Int32
	entered := make(chan struct{})
	gen := ai.GenerateFunc(func(ctx context.Context, _ string) (string, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "1. Still here?", nil
	})
	g := NewQuestionGenerator(catalog, gen, nil)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := g.Ensure(leaderCtx, job)
		leaderDone <- err
	}()
	<-entered

	type outcome struct {
		questions []string
		err       error
	}
	waiterDone := make(chan outcome, 1)
	go func() {
		q, err := g.Ensure(context.Background(), job)
		waiterDone <- outcome{q, err}
	}()

	// Give the second caller time to join the running flight.
	time.Sleep(20 * time.Millisecond)
	cancelLeader()

	assert.ErrorIs(t, <-leaderDone, context.Canceled)

	select {
	case got := <-waiterDone:
		require.NoError(t, got.err)
		assert.Equal(t, []string{"Still here?"}, got.questions)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never finished")
	}
	assert.EqualValues(t, 2, calls.Load())

	cached, ok := catalog.Questions("101")
	require.True(t, ok)
	assert.Equal(t, []string{"Still here?"}, cached)
}

func TestEnsureDoesNotCacheFailures(t *testing.T) {
	catalog, job := loadOne(t)

	boom := errors.New("provider unavailable")
	var calls atomic.Int32
	gen := ai.GenerateFunc(func(_ context.Context, _ string) (string, error) {
		if calls.Add(1) == 1 {
			return "", boom
		}
		return "1. Retry worked?", nil
	})
	g := NewQuestionGenerator(catalog, gen, nil)

	_, err := g.Ensure(context.Background(), job)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, ok := catalog.Questions("101")
	assert.False(t, ok)

	questions, err := g.Ensure(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, []string{"Retry worked?"}, questions)
	assert.EqualValues(t, 2, calls.Load())
}

func TestEnsureRegeneratesAfterReset(t *testing.T) {
	catalog, job := loadOne(t)

	var calls atomic.Int32
	gen := ai.GenerateFunc(func(_ context.Context, _ string) (string, error) {
		calls.Add(1)
		return "1. Same?", nil
	})
	g := NewQuestionGenerator(catalog, gen, nil)

	_, err := g.Ensure(context.Background(), job)
	require.NoError(t, err)
	catalog.ResetQuestions("101")
	_, err = g.Ensure(context.Background(), job)
	require.NoError(t, err)

	assert.EqualValues(t, 2, calls.Load())
}

func TestEnsureRejectsNullID(t *testing.T) {
	catalog, _ := loadOne(t)
	gen := ai.GenerateFunc(func(_ context.Context, _ string) (string, error) {
		t.Fatal("generator must not be called")
		return "", nil
	})
	g := NewQuestionGenerator(catalog, gen, nil)

	_, err := g.Ensure(context.Background(), Record{Title: "Orphan"})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestCleanQuestions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "numbered list",
			raw:  "1. First?\n2. Second?\n3. Third?",
			want: []string{"First?", "Second?", "Third?"},
		},
		{
			name: "parenthesis ordinals and blank lines",
			raw:  "\n  1) First?\n\n 2)Second?  \r\n",
			want: []string{"First?", "Second?"},
		},
		{
			name: "unnumbered lines kept verbatim",
			raw:  "What is Go?\n- bullet stays",
			want: []string{"What is Go?", "- bullet stays"},
		},
		{
			name: "more than three",
			raw:  "1. a\n2. b\n3. c\n4. d",
			want: []string{"a", "b", "c", "d"},
		},
		{
			name: "empty",
			raw:  "   \n\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanQuestions(tt.raw))
		})
	}
}

func TestBuildQuestionsPrompt(t *testing.T) {
	prompt := BuildQuestionsPrompt(Record{Title: "Nurse", Description: "Night shifts"})
	assert.True(t, strings.Contains(prompt, "Job Title: Nurse"))
	assert.True(t, strings.Contains(prompt, "Job Description: Night shifts"))
	assert.NotContains(t, prompt, "{{")
}

func TestBuildQuestionsPromptDoesNotExpandFieldValues(t *testing.T) {
	prompt := BuildQuestionsPrompt(Record{Title: "Eng {{JOB_DESCRIPTION}}", Description: "SECRET"})
	assert.Contains(t, prompt, "Job Title: Eng {{JOB_DESCRIPTION}}\n")
	assert.Equal(t, 1, strings.Count(prompt, "SECRET"))
}
