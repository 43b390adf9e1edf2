package jobs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func posting(id, title string) Posting {
	return Posting{
		"title":        title,
		"description":  title + " description",
		"redirect_url": "https://www.adzuna.com/details/" + id + "?utm_source=api",
		"location":     map[string]any{"display_name": "London, UK"},
		"category":     map[string]any{"label": "IT Jobs"},
		"company":      map[string]any{"display_name": "Acme"},
	}
}

func TestLoadNormalizesPostings(t *testing.T) {
	catalog, err := Load([]Posting{posting("101", "Backend Engineer"), posting("202", "Data Analyst")}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, catalog.Len())

	records := catalog.Records()
	assert.Equal(t, "Backend Engineer", records[0].Title)
	assert.Equal(t, "Data Analyst", records[1].Title)

	job, err := catalog.Get("101")
	require.NoError(t, err)
	assert.Equal(t, Record{
		ID:          NewID("101"),
		Title:       "Backend Engineer",
		Location:    "London, UK",
		Category:    "IT Jobs",
		Description: "Backend Engineer description",
		Company:     "Acme",
		SourceURL:   "https://www.adzuna.com/details/101?utm_source=api",
	}, job)
}

func TestLoadDefaultsOptionalFields(t *testing.T) {
	catalog, err := Load([]Posting{
		{
			"title":        "Nurse",
			"description":  "Care",
			"redirect_url": "https://www.adzuna.com/details/7",
		},
		{
			"title":        "Chef",
			"description":  "Cook",
			"redirect_url": "https://www.adzuna.com/details/8",
			"location":     "not an object",
			"company":      nil,
			"category":     map[string]any{"label": 42},
		},
	}, nil)
	require.NoError(t, err)

	nurse, err := catalog.Get("7")
	require.NoError(t, err)
	assert.Empty(t, nurse.Location)
	assert.Empty(t, nurse.Category)
	assert.Empty(t, nurse.Company)

	chef, err := catalog.Get("8")
	require.NoError(t, err)
	assert.Equal(t, "Chef", chef.Title)
	assert.Empty(t, chef.Location)
	assert.Empty(t, chef.Company)
	assert.Equal(t, "42", chef.Category)
}

func TestLoadFailsOnMissingRequiredField(t *testing.T) {
	for _, field := range []string{FieldTitle, FieldDescription, FieldRedirectURL} {
		t.Run(field, func(t *testing.T) {
			broken := posting("1", "Broken")
			delete(broken, field)

			_, err := Load([]Posting{posting("2", "Fine"), broken}, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPosting))

			var malformed *MalformedPostingError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, 1, malformed.Index)
			assert.Equal(t, field, malformed.Field)
		})
	}
}

func TestLoadNullIDs(t *testing.T) {
	noMatch := posting("x", "No id")
	noMatch["redirect_url"] = "https://example.com/jobs/backend"

	catalog, err := Load([]Posting{noMatch, posting("5", "Five"), posting("55", "Fifty five")}, nil)
	require.NoError(t, err)

	records := catalog.Records()
	assert.False(t, records[0].ID.Valid)
	assert.Equal(t, ID{}, records[0].ID)
	assert.NotEqual(t, records[1].ID, records[2].ID)

	_, err = catalog.Get("")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestLoadKeepsFirstDuplicateID(t *testing.T) {
	catalog, err := Load([]Posting{posting("9", "First"), posting("9", "Second")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())

	job, err := catalog.Get("9")
	require.NoError(t, err)
	assert.Equal(t, "First", job.Title)
}

func TestGetUnknownID(t *testing.T) {
	catalog, err := Load(nil, nil)
	require.NoError(t, err)

	_, err = catalog.Get("404")

	var notFound *JobNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "404", notFound.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSetQuestionsOnlyOnce(t *testing.T) {
	catalog, err := Load([]Posting{posting("1", "Job")}, nil)
	require.NoError(t, err)

	_, ok := catalog.Questions("1")
	assert.False(t, ok)

	assert.True(t, catalog.SetQuestions("1", []string{"a", "b"}))
	assert.False(t, catalog.SetQuestions("1", []string{"c"}))

	questions, ok := catalog.Questions("1")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, questions)

	questions[0] = "mutated"
	again, _ := catalog.Questions("1")
	assert.Equal(t, "a", again[0])

	catalog.ResetQuestions("1")
	_, ok = catalog.Questions("1")
	assert.False(t, ok)
}

func TestExtractID(t *testing.T) {
	assert.Equal(t, NewID("4213"), ExtractID("https://www.adzuna.com/details/4213?se=1"))
	assert.Equal(t, ID{}, ExtractID("https://www.adzuna.com/land/ad/4213"))
	assert.Equal(t, "<null>", ID{}.String())
}
