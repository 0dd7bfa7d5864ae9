package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/tender-awards/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the evaluation report: a summary sheet with the tender
// header and one ranking table, offers ordered by composite score.
func (g *Generator) Generate(report model.EvaluationReport) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Evaluation"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Tender")
	set("B1", report.Tender.Name)
	set("A2", "Status")
	set("B2", string(report.Tender.Status))
	set("A3", "Opening date")
	set("B3", formatDate(report.Tender.OpeningDate))
	set("A4", "Award level")
	set("B4", string(report.Tender.AwardLevel))
	set("A5", "Offers evaluated")
	set("B5", len(report.Rows))

	tableRow := 7
	set(fmt.Sprintf("A%d", tableRow), "Rank")
	set(fmt.Sprintf("B%d", tableRow), "Supplier")
	set(fmt.Sprintf("C%d", tableRow), "Offer total")
	for i, criterion := range report.Criteria {
		cell, _ := excelize.CoordinatesToCellName(4+i, tableRow)
		set(cell, fmt.Sprintf("%s (%d%%)", criterion.Name, criterion.Weight))
	}
	compositeCol := 4 + len(report.Criteria)
	cell, _ := excelize.CoordinatesToCellName(compositeCol, tableRow)
	set(cell, "Composite")

	for i, row := range report.Rows {
		r := tableRow + 1 + i
		set(fmt.Sprintf("A%d", r), i+1)
		set(fmt.Sprintf("B%d", r), row.Offer.SupplierID.String())
		set(fmt.Sprintf("C%d", r), row.TotalAmount.StringFixed(2))
		for j, sub := range row.SubScores {
			cell, _ := excelize.CoordinatesToCellName(4+j, r)
			set(cell, fmt.Sprintf("%.2f", sub))
		}
		cell, _ := excelize.CoordinatesToCellName(compositeCol, r)
		set(cell, fmt.Sprintf("%.2f", row.Composite))
	}

	_ = file.SetColWidth(sheet, "A", "A", 8)
	_ = file.SetColWidth(sheet, "B", "B", 40)
	_ = file.SetColWidth(sheet, "C", "C", 16)
	lastCol, _ := excelize.ColumnNumberToName(compositeCol)
	_ = file.SetColWidth(sheet, "D", lastCol, 18)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
