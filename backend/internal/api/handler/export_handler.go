package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"liberal-checkin/backend/internal/dto"
	"liberal-checkin/backend/internal/service"
	"liberal-checkin/backend/pkg/report"
	"liberal-checkin/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc     service.ExportService
	defaultFormat report.Format
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, defaultFormat report.Format) *ExportHandler {
	if defaultFormat == "" {
		defaultFormat = report.FormatPDF
	}
	return &ExportHandler{exportSvc: exportSvc, defaultFormat: defaultFormat}
}

// ExportCheckIns 导出登记列表
// GET /api/checkins/export?format=pdf|xlsx[&max_id=N]
func (h *ExportHandler) ExportCheckIns(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil || req.MaxID < 0 {
		response.BadRequest(c, 10001, "Invalid export parameters")
		return
	}

	format := h.defaultFormat
	if req.Format != "" {
		f, err := report.ParseFormat(req.Format)
		if err != nil {
			response.BadRequest(c, 10001, "Unsupported export format")
			return
		}
		format = f
	}

	buf, err := h.exportSvc.ExportCheckIns(c.Request.Context(), format, req.MaxID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.File(c, format.Filename(), format.ContentType(), buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportEmpty):
		response.NotFound(c, 16101, "The list is empty")
	default:
		_ = c.Error(err)
		response.InternalError(c, "Failed to export check-ins")
	}
}
