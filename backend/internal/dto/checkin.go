package dto

import "time"

// TimestampLayout created_at 对外格式：UTC、毫秒精度的 ISO 8601
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp 按对外格式输出时间
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ── 登记模块 DTO ──

// CreateCheckInRequest 创建登记请求
// 仅做存在性校验，profile 取值不做限制
type CreateCheckInRequest struct {
	Name     string `json:"name"     validate:"required"`
	WhatsApp string `json:"whatsapp" validate:"required"`
	Profile  string `json:"profile"  validate:"required"`
}

// CreateCheckInResponse 创建登记响应
type CreateCheckInResponse struct {
	Success   bool   `json:"success"`
	ID        int64  `json:"id"`
	CreatedAt string `json:"created_at"`
}

// CheckInResponse 登记记录
type CheckInResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	WhatsApp  string `json:"whatsapp"`
	Profile   string `json:"profile"`
	CreatedAt string `json:"created_at"`
}

// ClearCheckInsResponse 清空登记响应
type ClearCheckInsResponse struct {
	Success bool  `json:"success"`
	Count   int64 `json:"count"`
}

// ExportRequest 导出查询参数
// MaxID>0 时只导出 id<=MaxID 的记录，使文件与管理页已加载的列表一致
type ExportRequest struct {
	Format string `form:"format"`
	MaxID  int64  `form:"max_id"`
}
