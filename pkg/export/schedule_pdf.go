package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/fieldtime/scheduler-api/internal/timeutil"
)

var pdfColumns = []struct {
	title string
	width float64
}{
	{"Date", 26},
	{"Time", 34},
	{"Field", 44},
	{"Home", 38},
	{"Away", 38},
	{"Type", 10},
}

// SchedulePDF renders the schedule as a printable A4 table, one game per
// line in the canonical export order.
func SchedulePDF(rows []ScheduleRow, title string) ([]byte, error) {
	SortRows(rows)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	pdf.SetFont("Arial", "B", 10)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		cells := []string{
			row.GameDate,
			fmt.Sprintf("%s-%s", timeutil.FormatClock(row.StartMin), timeutil.FormatClock(row.EndMin)),
			fallback(row.FieldName, row.FieldKey),
			fallback(row.HomeTeamName, row.HomeTeamID),
			fallback(row.AwayTeamName, row.AwayTeamID),
			shortType(row.GameType),
		}
		for i, col := range pdfColumns {
			pdf.CellFormat(col.width, 7, cells[i], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func shortType(gameType string) string {
	if gameType == "" {
		return "G"
	}
	return gameType[:1]
}
