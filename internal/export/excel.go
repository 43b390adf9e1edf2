package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/job-screener/internal/results"
)

const (
	rankingSheet = "Ranking"
	answersSheet = "Answers"
)

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// Leaderboard writes ranked results to an xlsx workbook and returns the final path.
// The order of ranked is kept as is.
func Leaderboard(ranked []results.CandidateResult, outputPath string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath += ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rankingSheet); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(answersSheet); err != nil {
		return "", err
	}

	if err := writeRanking(f, ranked); err != nil {
		return "", fmt.Errorf("failed to create ranking sheet: %w", err)
	}
	if err := writeAnswers(f, ranked); err != nil {
		return "", fmt.Errorf("failed to create answers sheet: %w", err)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}
	return outputPath, nil
}

func writeRanking(f *excelize.File, ranked []results.CandidateResult) error {
	for col, width := range map[string]float64{"A": 8, "B": 25, "C": 38, "D": 12, "E": 25, "F": 22} {
		if err := f.SetColWidth(rankingSheet, col, col, width); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}

	styles := map[string]int{}
	for name, color := range map[string]string{"strong": "C6EFCE", "fair": "FFEB9C", "weak": "FFC7CE"} {
		id, err := f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Border: thinBorder,
		})
		if err != nil {
			return err
		}
		styles[name] = id
	}

	headers := []string{"Rank", "Candidate", "Candidate ID", "Average", "Job", "Submitted"}
	if err := writeRow(f, rankingSheet, 1, headers); err != nil {
		return err
	}
	if err := f.SetCellStyle(rankingSheet, "A1", "F1", headerStyle); err != nil {
		return err
	}

	for i, r := range ranked {
		row := i + 2
		values := []any{i + 1, r.CandidateName, r.CandidateID, r.AverageScore, r.JobTitle, r.SubmittedAt.Format("2006-01-02 15:04")}
		if err := writeRow(f, rankingSheet, row, values); err != nil {
			return err
		}

		style := styles[band(r.AverageScore)]
		if err := f.SetCellStyle(rankingSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), style); err != nil {
			return err
		}
	}
	return nil
}

func writeAnswers(f *excelize.File, ranked []results.CandidateResult) error {
	if err := writeRow(f, answersSheet, 1, []string{"Candidate", "Question", "Answer", "Score", "Explanation"}); err != nil {
		return err
	}

	row := 2
	for _, r := range ranked {
		for _, a := range r.Answers {
			if err := writeRow(f, answersSheet, row, []any{r.CandidateName, a.Question, a.Answer, a.Score, a.Explanation}); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func band(avg float64) string {
	switch {
	case avg >= 8:
		return "strong"
	case avg >= 5:
		return "fair"
	default:
		return "weak"
	}
}
