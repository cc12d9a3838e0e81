package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/dewdew978/GBI-BI-Agent/interpret"
)

// maxReportRows caps the table grid in the PDF so a large result set
// does not produce a hundred-page report.
const maxReportRows = 40

const pageWidth = 190.0 // A4 printable width in mm with default margins

// Report renders the analysis as a PDF document: question, generated
// SQL, result table and insights.
func Report(question, sqlText string, table *interpret.Table, insights string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Business Intelligence Report", true)
	pdf.AddPage()
	// Core fonts only cover cp1252; tr drops anything else (emoji in
	// insights headings, for one).
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(pageWidth, 10, "Business Intelligence Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	writeSection(pdf, "Question", tr(question))
	writeSection(pdf, "Generated SQL", tr(sqlText))
	writeTable(pdf, tr, table)
	writeSection(pdf, "Insights", tr(insights))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSection(pdf *fpdf.Fpdf, title, body string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(pageWidth, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Courier", "", 9)
	if body == "" {
		body = "-"
	}
	pdf.MultiCell(pageWidth, 4.5, body, "", "L", false)
	pdf.Ln(4)
}

func writeTable(pdf *fpdf.Fpdf, tr func(string) string, table *interpret.Table) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(pageWidth, 8, "Query Results", "", 1, "L", false, 0, "")
	if table.Empty() {
		pdf.SetFont("Courier", "", 9)
		pdf.MultiCell(pageWidth, 4.5, "No rows returned.", "", "L", false)
		pdf.Ln(4)
		return
	}

	colWidth := pageWidth / float64(len(table.Columns))
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range table.Columns {
		pdf.CellFormat(colWidth, 6, tr(col), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	rows := table.Rows
	truncated := false
	if len(rows) > maxReportRows {
		rows = rows[:maxReportRows]
		truncated = true
	}
	for _, row := range rows {
		for _, col := range table.Columns {
			pdf.CellFormat(colWidth, 6, tr(interpret.FormatCell(row[col])), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if truncated {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(pageWidth, 6,
			fmt.Sprintf("Showing first %d of %d rows.", maxReportRows, len(table.Rows)),
			"", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}
