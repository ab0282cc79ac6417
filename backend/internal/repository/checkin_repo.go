package repository

import (
	"context"

	"gorm.io/gorm"

	"liberal-checkin/backend/internal/model"
)

// CheckInRepository 登记数据访问接口
// 每个操作各自原子，不存在跨操作事务
type CheckInRepository interface {
	// Create 追加一行；CreatedAt 由调用方赋值，ID 由数据库分配后回填
	Create(ctx context.Context, ci *model.CheckIn) error
	// ListAll 按 created_at 倒序返回全部记录，无记录时返回空切片
	ListAll(ctx context.Context) ([]model.CheckIn, error)
	// DeleteAll 无条件删除全部记录，返回删除行数
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type checkInRepo struct {
	db *gorm.DB
}

// NewCheckInRepo 创建 CheckInRepository 实例
func NewCheckInRepo(db *gorm.DB) CheckInRepository {
	return &checkInRepo{db: db}
}

func (r *checkInRepo) Create(ctx context.Context, ci *model.CheckIn) error {
	return r.db.WithContext(ctx).Create(ci).Error
}

func (r *checkInRepo) ListAll(ctx context.Context) ([]model.CheckIn, error) {
	checkins := make([]model.CheckIn, 0)
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&checkins).Error
	return checkins, err
}

func (r *checkInRepo) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.CheckIn{})
	return result.RowsAffected, result.Error
}

func (r *checkInRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CheckIn{}).Count(&n).Error
	return n, err
}
