package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// 列宽（mm），A4 纵向可用宽度约 182mm
var pdfColWidths = []float64{62, 42, 30, 48}

func renderPDF(w io.Writer, rows []Row, opts Options) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(opts.Title, true)
	pdf.SetMargins(14, 15, 14)
	pdf.SetAutoPageBreak(true, 15)

	// 内置字体仅支持 cp1252，需转换葡语重音字符
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(68, 114, 196)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range Headers {
			pdf.CellFormat(pdfColWidths[i], 8, tr(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(opts.Title), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for i, r := range rows {
		// 换页时重复表头
		if pdf.GetY()+7 > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		fill := i%2 == 1
		pdf.SetFillColor(242, 242, 242)
		for j, text := range opts.cells(r) {
			pdf.CellFormat(pdfColWidths[j], 7, tr(text), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("生成 PDF 失败: %w", err)
	}
	return nil
}
