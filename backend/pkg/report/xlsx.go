package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Check-ins"

func renderXLSX(w io.Writer, rows []Row, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("重命名工作表失败: %w", err)
	}

	f.SetColWidth(sheetName, "A", "A", 32)
	f.SetColWidth(sheetName, "B", "B", 20)
	f.SetColWidth(sheetName, "C", "C", 14)
	f.SetColWidth(sheetName, "D", "D", 22)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", opts.Title)
	f.MergeCell(sheetName, "A1", "D1")
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	// 表头
	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A2", &header); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}
	f.SetCellStyle(sheetName, "A2", "D2", headerStyle)

	// 数据行
	for i, r := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+3)
		cells := opts.cells(r)
		values := make([]interface{}, len(cells))
		for j, c := range cells {
			values[j] = c
		}
		if err := f.SetSheetRow(sheetName, cellRef, &values); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("写入 Excel 失败: %w", err)
	}
	return nil
}
