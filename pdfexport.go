package quizsmith

import (
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WorksheetConfig controls the layout of exported worksheets
type WorksheetConfig struct {
	PageSize   string
	MarginsMM  float64
	FontFamily string
}

// DefaultWorksheetConfig is A4 with Helvetica
func DefaultWorksheetConfig() WorksheetConfig {
	return WorksheetConfig{
		PageSize:   "A4",
		MarginsMM:  15,
		FontFamily: "Helvetica",
	}
}

// WorksheetExporter renders a batch as a printable PDF with an answer key
type WorksheetExporter struct {
	cfg WorksheetConfig
}

// NewWorksheetExporter creates an exporter
func NewWorksheetExporter(cfg WorksheetConfig) *WorksheetExporter {
	return &WorksheetExporter{cfg: cfg}
}

// Export writes the worksheet for batch to w
func (we *WorksheetExporter) Export(batch *GenerationBatch, w io.Writer) error {
	pdf := fpdf.New("P", "mm", we.cfg.PageSize, "")
	pdf.SetMargins(we.cfg.MarginsMM, we.cfg.MarginsMM, we.cfg.MarginsMM)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := cases.Title(language.English).String(batch.Query)
	pdf.SetTitle(title, true)
	pdf.AddPage()

	// questions
	pdf.SetFont(we.cfg.FontFamily, "B", 20)
	pdf.MultiCell(0, 10, tr(title), "", "C", false)
	pdf.SetFont(we.cfg.FontFamily, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d questions - generated %s", len(batch.Questions), batch.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	for _, q := range batch.Questions {
		pdf.SetFont(we.cfg.FontFamily, "B", 12)
		pdf.MultiCell(0, 7, tr(fmt.Sprintf("%d. %s", q.ID, q.Prompt)), "", "L", false)
		pdf.SetFont(we.cfg.FontFamily, "", 12)
		for _, opt := range q.Options.List() {
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("    %s) %s", opt.Label, opt.Text)), "", "L", false)
		}
		pdf.Ln(4)
	}

	// answer key
	pdf.AddPage()
	pdf.SetFont(we.cfg.FontFamily, "B", 20)
	pdf.MultiCell(0, 10, tr(title+" - Answer Key"), "", "C", false)
	pdf.Ln(6)
	pdf.SetFont(we.cfg.FontFamily, "", 12)
	for _, q := range batch.Questions {
		answer := fmt.Sprintf("%d. %s) %s", q.ID, q.CorrectLabel, q.Options.Get(q.CorrectLabel))
		pdf.MultiCell(0, 7, tr(answer), "", "L", false)
	}

	return pdf.Output(w)
}
