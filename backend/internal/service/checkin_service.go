package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"liberal-checkin/backend/internal/dto"
	"liberal-checkin/backend/internal/model"
	"liberal-checkin/backend/internal/repository"
	apperrors "liberal-checkin/backend/pkg/errors"
)

// CheckInService 登记业务接口
type CheckInService interface {
	// Create 校验必填字段后写入一条登记，时间取服务端当前时间
	Create(ctx context.Context, req *dto.CreateCheckInRequest) (*dto.CreateCheckInResponse, error)
	// List 返回全部登记（最新在前）
	List(ctx context.Context) ([]dto.CheckInResponse, error)
	// Clear 删除全部登记，不可恢复；调用方负责二次确认
	Clear(ctx context.Context) (*dto.ClearCheckInsResponse, error)
}

type checkInService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewCheckInService 创建 CheckInService 实例
func NewCheckInService(repo *repository.Repository, logger *zap.Logger) CheckInService {
	return &checkInService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *checkInService) Create(ctx context.Context, req *dto.CreateCheckInRequest) (*dto.CreateCheckInResponse, error) {
	in := dto.CreateCheckInRequest{
		Name:     strings.TrimSpace(req.Name),
		WhatsApp: strings.TrimSpace(req.WhatsApp),
		Profile:  strings.TrimSpace(req.Profile),
	}
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	// 精度截断到毫秒，保证写入值与返回值一致
	now := s.now().UTC().Truncate(time.Millisecond)
	ci := &model.CheckIn{
		Name:      in.Name,
		WhatsApp:  in.WhatsApp,
		Profile:   in.Profile,
		CreatedAt: now,
	}

	if err := s.repo.CheckIn.Create(ctx, ci); err != nil {
		s.logger.Error("保存登记失败", zap.Error(err))
		return nil, apperrors.Storage("insert", err)
	}

	// 不记录姓名与电话（个人信息）
	s.logger.Info("新增登记",
		zap.Int64("id", ci.ID),
		zap.String("profile", ci.Profile),
	)

	return &dto.CreateCheckInResponse{
		Success:   true,
		ID:        ci.ID,
		CreatedAt: dto.FormatTimestamp(now),
	}, nil
}

// ────────────────────── List ──────────────────────

func (s *checkInService) List(ctx context.Context) ([]dto.CheckInResponse, error) {
	checkins, err := s.repo.CheckIn.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询登记列表失败", zap.Error(err))
		return nil, apperrors.Storage("list", err)
	}

	result := make([]dto.CheckInResponse, 0, len(checkins))
	for i := range checkins {
		result = append(result, toCheckInResponse(&checkins[i]))
	}
	return result, nil
}

// ────────────────────── Clear ──────────────────────

func (s *checkInService) Clear(ctx context.Context) (*dto.ClearCheckInsResponse, error) {
	n, err := s.repo.CheckIn.DeleteAll(ctx)
	if err != nil {
		s.logger.Error("清空登记失败", zap.Error(err))
		return nil, apperrors.Storage("clear", err)
	}

	s.logger.Warn("登记记录已清空", zap.Int64("count", n))

	return &dto.ClearCheckInsResponse{Success: true, Count: n}, nil
}

// ── 内部辅助方法 ──

func toCheckInResponse(ci *model.CheckIn) dto.CheckInResponse {
	return dto.CheckInResponse{
		ID:        ci.ID,
		Name:      ci.Name,
		WhatsApp:  ci.WhatsApp,
		Profile:   ci.Profile,
		CreatedAt: dto.FormatTimestamp(ci.CreatedAt),
	}
}
