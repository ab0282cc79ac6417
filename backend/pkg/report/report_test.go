package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func sampleRows() []Row {
	return []Row{
		{Name: "Ana", WhatsApp: "(11) 98765-4321", Profile: "CASAL", CreatedAt: time.Date(2026, 10, 19, 23, 30, 5, 0, time.UTC)},
		{Name: "João Conceição", WhatsApp: "(21) 91234-5678", Profile: "SOLTEIRO", CreatedAt: time.Date(2026, 10, 19, 22, 0, 0, 0, time.UTC)},
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"pdf": FormatPDF, "PDF": FormatPDF, " xlsx ": FormatXLSX}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q)=%q,%v 期望 %q", in, got, err, want)
		}
	}

	if _, err := ParseFormat("csv"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("csv 应返回 ErrUnsupportedFormat，实际: %v", err)
	}
}

func TestFormat_Metadata(t *testing.T) {
	if FormatPDF.Filename() != "checkins-bar-liberal.pdf" {
		t.Errorf("PDF 文件名错误: %s", FormatPDF.Filename())
	}
	if FormatXLSX.ContentType() != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("XLSX Content-Type 错误: %s", FormatXLSX.ContentType())
	}
}

func TestRender_PDF(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, FormatPDF, sampleRows(), Options{Title: "Lista de Check-ins"})
	if err != nil {
		t.Fatalf("渲染 PDF 失败: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("输出内容不是有效的 PDF（应以 %PDF 开头）")
	}
}

func TestRender_PDFManyRowsPaginates(t *testing.T) {
	rows := make([]Row, 0, 120)
	for i := 0; i < 120; i++ {
		rows = append(rows, sampleRows()[i%2])
	}
	var buf bytes.Buffer
	if err := Render(&buf, FormatPDF, rows, Options{Title: "Lista"}); err != nil {
		t.Fatalf("渲染多页 PDF 失败: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("PDF 不应为空")
	}
}

func TestRender_XLSXContent(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("BRT", -3*3600)
	if err := Render(&buf, FormatXLSX, sampleRows(), Options{Title: "Lista", Location: loc}); err != nil {
		t.Fatalf("渲染 XLSX 失败: %v", err)
	}

	// Excel .xlsx 文件以 PK (0x504B) 开头
	if !bytes.HasPrefix(buf.Bytes(), []byte("PK")) {
		t.Fatal("输出内容不是有效的 xlsx 文件格式")
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("读取 XLSX 失败: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("期望 1 标题 + 1 表头 + 2 数据行，实际 %d 行", len(rows))
	}
	if rows[1][0] != "Nome" || rows[1][3] != "Data/Hora" {
		t.Errorf("表头不符: %v", rows[1])
	}
	if rows[2][0] != "Ana" || rows[2][2] != "CASAL" {
		t.Errorf("数据行不符: %v", rows[2])
	}
	if rows[2][3] != "19/10/2026, 20:30:05" {
		t.Errorf("日期应按时区格式化，实际: %s", rows[2][3])
	}
}

func TestRender_Unsupported(t *testing.T) {
	err := Render(&bytes.Buffer{}, Format("odt"), nil, Options{})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("期望 ErrUnsupportedFormat，实际: %v", err)
	}
}
