package service

import (
	"bytes"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"liberal-checkin/backend/config"
	"liberal-checkin/backend/internal/repository"
	apperrors "liberal-checkin/backend/pkg/errors"
	"liberal-checkin/backend/pkg/report"
)

// ── 导出模块业务错误 ──

var (
	ErrExportEmpty        = errors.New("登记列表为空")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置下载响应头后写入 Response；
// maxID>0 时忽略其后新增的记录
type ExportService interface {
	ExportCheckIns(ctx context.Context, format report.Format, maxID int64) (*bytes.Buffer, error)
}

type exportService struct {
	repo   *repository.Repository
	opts   report.Options
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, cfg *config.ExportConfig, logger *zap.Logger) ExportService {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("导出时区无效，使用 UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}
	return &exportService{
		repo:   repo,
		opts:   report.Options{Title: cfg.Title, Location: loc},
		logger: logger,
	}
}

func (s *exportService) ExportCheckIns(ctx context.Context, format report.Format, maxID int64) (*bytes.Buffer, error) {
	checkins, err := s.repo.CheckIn.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询登记列表失败", zap.Error(err))
		return nil, apperrors.Storage("list", err)
	}
	rows := make([]report.Row, 0, len(checkins))
	for _, ci := range checkins {
		if maxID > 0 && ci.ID > maxID {
			continue
		}
		rows = append(rows, report.Row{
			Name:      ci.Name,
			WhatsApp:  ci.WhatsApp,
			Profile:   ci.Profile,
			CreatedAt: ci.CreatedAt,
		})
	}

	if len(rows) == 0 {
		return nil, ErrExportEmpty
	}

	buf := new(bytes.Buffer)
	if err := report.Render(buf, format, rows, s.opts); err != nil {
		s.logger.Error("生成导出文件失败", zap.String("format", string(format)), zap.Error(err))
		return nil, ErrExportGenerateFail
	}

	s.logger.Info("导出登记列表", zap.String("format", string(format)), zap.Int("rows", len(rows)))
	return buf, nil
}
