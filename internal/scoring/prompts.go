package scoring

import (
	_ "embed"
	"strings"

	"github.com/spigell/job-screener/internal/jobs"
)

var (
	//go:embed prompts/answer.md
	answerTemplate string
	//go:embed prompts/cv.md
	cvTemplate string
	//go:embed prompts/coach.md
	coachTemplate string
)

// render substitutes {{KEY}} placeholders. Job fields are always available.
func render(template string, job jobs.Record, values map[string]string) string {
	pairs := []string{
		"{{JOB_TITLE}}", job.Title,
		"{{JOB_DESCRIPTION}}", job.Description,
	}
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
