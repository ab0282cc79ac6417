// Package admin 管理视图：拉取、展示、导出、清空登记列表。
// 提示与确认通过 Alerter 交给调用方（终端或其他前端）呈现。
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"liberal-checkin/backend/internal/client"
	"liberal-checkin/backend/internal/dto"
	"liberal-checkin/backend/pkg/report"
)

// 提示文案（pt-BR，与自助页面一致）
const (
	MsgLoadFailed     = "Erro ao carregar a lista. Verifique a conexão."
	MsgEmptyList      = "A lista está vazia."
	MsgConfirmClear   = "ATENÇÃO: Isso apagará TODOS os dados coletados permanentemente. Deseja continuar?"
	MsgClearSuccess   = "Histórico limpo com sucesso!"
	MsgClearFailedFmt = "Erro ao limpar histórico: %s"
	MsgUnknownError   = "Erro desconhecido"
	MsgClearNetwork   = "Erro de conexão ao tentar limpar o histórico."
	MsgUnauthorized   = "Sessão expirada ou senha inválida. Faça login novamente."
)

// RowTimeLayout 列表中时间列格式
const RowTimeLayout = "02/01 • 15:04"

// API 管理视图依赖的接口（*client.Client 实现）
type API interface {
	ListCheckIns(ctx context.Context) ([]dto.CheckInResponse, error)
	ClearCheckIns(ctx context.Context) (*dto.ClearCheckInsResponse, error)
}

// Alerter 阻塞式提示与确认
type Alerter interface {
	Alert(msg string)
	Confirm(msg string) bool
}

// Row 一行展示数据
type Row struct {
	ID       int64
	Name     string
	WhatsApp string
	Profile  string
	When     string // dd/mm • HH:MM
}

// View 管理视图
type View struct {
	api     API
	alerter Alerter
	logger  *zap.Logger
	opts    report.Options

	mu       sync.Mutex
	checkins []dto.CheckInResponse
	loading  bool
}

// Option 视图选项
type Option func(*View)

// WithLocation 设置展示时区
func WithLocation(loc *time.Location) Option {
	return func(v *View) { v.opts.Location = loc }
}

// WithReportTitle 设置导出文档标题
func WithReportTitle(title string) Option {
	return func(v *View) { v.opts.Title = title }
}

// NewView 创建管理视图
func NewView(api API, alerter Alerter, logger *zap.Logger, opts ...Option) *View {
	v := &View{
		api:      api,
		alerter:  alerter,
		logger:   logger,
		opts:     report.Options{Location: time.UTC},
		checkins: []dto.CheckInResponse{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Open 打开视图时拉取列表
func (v *View) Open(ctx context.Context) error {
	return v.Refresh(ctx)
}

// Refresh 重新拉取列表，失败时提示并保留上一次结果
func (v *View) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	list, err := v.api.ListCheckIns(ctx)

	v.mu.Lock()
	v.loading = false
	if err == nil {
		v.checkins = list
	}
	v.mu.Unlock()

	if err != nil {
		v.logger.Warn("拉取登记列表失败", zap.Error(err))
		if client.IsUnauthorized(err) {
			v.alerter.Alert(MsgUnauthorized)
		} else {
			v.alerter.Alert(MsgLoadFailed)
		}
		return err
	}
	return nil
}

// Loading 是否正在拉取
func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// CheckIns 当前内存中的列表副本
func (v *View) CheckIns() []dto.CheckInResponse {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]dto.CheckInResponse, len(v.checkins))
	copy(out, v.checkins)
	return out
}

// Rows 返回展示行
func (v *View) Rows() []Row {
	list := v.CheckIns()
	rows := make([]Row, 0, len(list))
	for _, c := range list {
		rows = append(rows, Row{
			ID:       c.ID,
			Name:     c.Name,
			WhatsApp: c.WhatsApp,
			Profile:  c.Profile,
			When:     v.FormatTime(c.CreatedAt),
		})
	}
	return rows
}

// FormatTime 将 created_at 转为 "dd/mm • HH:MM"（展示时区），无法解析时原样返回
func (v *View) FormatTime(createdAt string) string {
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return createdAt
	}
	loc := v.opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(RowTimeLayout)
}

// Export 将内存中的列表渲染为文档写入 w；列表为空时提示并返回 false
func (v *View) Export(w io.Writer, format report.Format) (bool, error) {
	list := v.CheckIns()
	if len(list) == 0 {
		v.alerter.Alert(MsgEmptyList)
		return false, nil
	}

	rows := make([]report.Row, 0, len(list))
	for _, c := range list {
		createdAt, err := time.Parse(time.RFC3339Nano, c.CreatedAt)
		if err != nil {
			return false, fmt.Errorf("解析 created_at 失败 (id=%d): %w", c.ID, err)
		}
		rows = append(rows, report.Row{
			Name:      c.Name,
			WhatsApp:  c.WhatsApp,
			Profile:   c.Profile,
			CreatedAt: createdAt,
		})
	}

	if err := report.Render(w, format, rows, v.opts); err != nil {
		return false, err
	}
	return true, nil
}

// Clear 确认后清空全部登记；未确认时返回 false, nil
func (v *View) Clear(ctx context.Context) (bool, error) {
	if !v.alerter.Confirm(MsgConfirmClear) {
		return false, nil
	}

	result, err := v.api.ClearCheckIns(ctx)
	if err != nil {
		v.logger.Warn("清空登记失败", zap.Error(err))
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = MsgUnknownError
			}
			v.alerter.Alert(fmt.Sprintf(MsgClearFailedFmt, msg))
		} else {
			v.alerter.Alert(MsgClearNetwork)
		}
		return false, err
	}
	if !result.Success {
		v.alerter.Alert(fmt.Sprintf(MsgClearFailedFmt, MsgUnknownError))
		return false, errors.New("clear not acknowledged")
	}

	_ = v.Refresh(ctx)
	v.alerter.Alert(MsgClearSuccess)
	v.logger.Info("登记列表已清空", zap.Int64("count", result.Count))
	return true, nil
}
