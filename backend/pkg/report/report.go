// Package report 将登记列表渲染为可打印的表格文档（PDF / XLSX）。
// 服务端导出接口与终端管理视图共用同一套渲染逻辑。
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Format 导出格式
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// DateTimeLayout 表格中日期时间列的格式（pt-BR）
const DateTimeLayout = "02/01/2006, 15:04:05"

// BaseFilename 下载文件名（不含扩展名）
const BaseFilename = "checkins-bar-liberal"

// ErrUnsupportedFormat 不支持的导出格式
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Headers 表头：姓名 / 电话 / 类别 / 日期时间
var Headers = []string{"Nome", "WhatsApp", "Perfil", "Data/Hora"}

// ParseFormat 解析导出格式（大小写不敏感）
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType 返回 HTTP Content-Type
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// Filename 返回带扩展名的下载文件名
func (f Format) Filename() string {
	return BaseFilename + "." + string(f)
}

// Row 表格中的一行
type Row struct {
	Name      string
	WhatsApp  string
	Profile   string
	CreatedAt time.Time
}

// Options 渲染选项
type Options struct {
	Title    string
	Location *time.Location // 日期列显示时区，nil 时使用 UTC
}

func (o Options) formatTime(t time.Time) string {
	loc := o.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateTimeLayout)
}

// cells 将一行转换为与 Headers 对齐的单元格文本
func (o Options) cells(r Row) []string {
	return []string{r.Name, r.WhatsApp, r.Profile, o.formatTime(r.CreatedAt)}
}

// Render 按格式将 rows 写入 w
func Render(w io.Writer, f Format, rows []Row, opts Options) error {
	switch f {
	case FormatPDF:
		return renderPDF(w, rows, opts)
	case FormatXLSX:
		return renderXLSX(w, rows, opts)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}
