package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"liberal-checkin/backend/internal/dto"
	"liberal-checkin/backend/internal/service"
	apperrors "liberal-checkin/backend/pkg/errors"
	"liberal-checkin/backend/pkg/response"
)

// 面向客户端的错误文案，与自助页面保持一致
const (
	msgMissingFields = "Missing required fields"
	msgInvalidBody   = "Invalid request body"
	msgSaveFailed    = "Failed to save check-in"
	msgFetchFailed   = "Failed to fetch check-ins"
	msgClearFailed   = "Failed to clear list"
)

// CheckInHandler 登记模块 HTTP 处理器
type CheckInHandler struct {
	checkInSvc service.CheckInService
}

// NewCheckInHandler 创建 CheckInHandler
func NewCheckInHandler(checkInSvc service.CheckInService) *CheckInHandler {
	return &CheckInHandler{checkInSvc: checkInSvc}
}

// Create 新增登记
// POST /api/checkin
func (h *CheckInHandler) Create(c *gin.Context) {
	var req dto.CreateCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if !bindError(c, err) {
			response.BadRequest(c, 10001, msgInvalidBody)
		}
		return
	}

	result, err := h.checkInSvc.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			response.BadRequest(c, 10001, msgMissingFields)
			return
		}
		_ = c.Error(err)
		response.InternalError(c, msgSaveFailed)
		return
	}

	response.OK(c, result)
}

// List 查询全部登记（最新在前）
// GET /api/checkins
func (h *CheckInHandler) List(c *gin.Context) {
	result, err := h.checkInSvc.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c, msgFetchFailed)
		return
	}

	response.OK(c, result)
}

// Clear 清空全部登记
// POST /api/checkins/clear
func (h *CheckInHandler) Clear(c *gin.Context) {
	result, err := h.checkInSvc.Clear(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c, msgClearFailed)
		return
	}

	response.OK(c, result)
}

// bindError 处理请求体超限，已写入响应时返回 true
func bindError(c *gin.Context, err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		_ = c.Error(err)
		response.RequestTooLarge(c)
		return true
	}
	return false
}
