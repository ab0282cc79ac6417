// Package kiosk 自助登记表单的状态机，由终端客户端驱动。
package kiosk

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"liberal-checkin/backend/internal/dto"
	"liberal-checkin/backend/internal/model"
)

// DefaultSuccessDuration 成功状态保持时长，结束后表单重置
const DefaultSuccessDuration = 3 * time.Second

var (
	// ErrInFlight 上一次提交尚未结束
	ErrInFlight = errors.New("submission already in progress")
	// ErrInvalidProfile 类别不在可选范围内
	ErrInvalidProfile = errors.New("invalid profile")
)

// Submitter 登记提交接口（*client.Client 实现）
type Submitter interface {
	CreateCheckIn(ctx context.Context, req *dto.CreateCheckInRequest) (*dto.CreateCheckInResponse, error)
}

// State 表单阶段
type State int

const (
	StateEditing State = iota
	StateSubmitting
	StateSuccess
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	default:
		return "editing"
	}
}

// Snapshot 表单当前状态的只读副本
type Snapshot struct {
	Name    string
	Phone   string
	Profile string
	Consent bool
	State   State
	Err     error // 最近一次提交失败的原因，成功或重置后清空
}

// Form 自助登记表单
type Form struct {
	api    Submitter
	logger *zap.Logger

	successDuration time.Duration
	onReset         func()

	mu      sync.Mutex
	name    string
	phone   string
	profile string
	consent bool
	state   State
	lastErr error
	timer   *time.Timer
}

// Option 表单选项
type Option func(*Form)

// WithSuccessDuration 设置成功状态保持时长
func WithSuccessDuration(d time.Duration) Option {
	return func(f *Form) { f.successDuration = d }
}

// WithOnReset 成功状态结束、表单重置后的回调（在计时器 goroutine 中执行）
func WithOnReset(fn func()) Option {
	return func(f *Form) { f.onReset = fn }
}

// NewForm 创建表单
func NewForm(api Submitter, logger *zap.Logger, opts ...Option) *Form {
	f := &Form{
		api:             api,
		logger:          logger,
		successDuration: DefaultSuccessDuration,
		profile:         model.ProfileCasal,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ── 字段编辑 ──

func (f *Form) SetName(name string) {
	f.mu.Lock()
	f.name = name
	f.mu.Unlock()
}

// SetPhone 保存格式化后的电话
func (f *Form) SetPhone(raw string) {
	f.mu.Lock()
	f.phone = FormatWhatsApp(raw)
	f.mu.Unlock()
}

func (f *Form) SetProfile(profile string) error {
	p := strings.ToUpper(strings.TrimSpace(profile))
	if p != model.ProfileCasal && p != model.ProfileSolteiro {
		return ErrInvalidProfile
	}
	f.mu.Lock()
	f.profile = p
	f.mu.Unlock()
	return nil
}

func (f *Form) SetConsent(consent bool) {
	f.mu.Lock()
	f.consent = consent
	f.mu.Unlock()
}

// Snapshot 返回当前状态
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Name:    f.name,
		Phone:   f.phone,
		Profile: f.profile,
		Consent: f.consent,
		State:   f.state,
		Err:     f.lastErr,
	}
}

// CanSubmit 姓名（去除首尾空白后）、电话非空且已勾选同意
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canSubmitLocked()
}

func (f *Form) canSubmitLocked() bool {
	return f.state == StateEditing && strings.TrimSpace(f.name) != "" && f.phone != "" && f.consent
}

// ── 提交 ──

// Submit 提交登记
// 条件不满足时为空操作（返回 false, nil）；提交中再次调用返回 ErrInFlight；
// 失败时保留已填内容并记录错误，成功后进入成功状态并在 successDuration 后重置
func (f *Form) Submit(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return false, ErrInFlight
	}
	if !f.canSubmitLocked() {
		f.mu.Unlock()
		return false, nil
	}
	req := &dto.CreateCheckInRequest{Name: strings.TrimSpace(f.name), WhatsApp: f.phone, Profile: f.profile}
	f.state = StateSubmitting
	f.lastErr = nil
	f.mu.Unlock()

	_, err := f.api.CreateCheckIn(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.logger.Warn("提交登记失败", zap.Error(err))
		f.state = StateEditing
		f.lastErr = err
		return false, err
	}

	f.state = StateSuccess
	f.timer = time.AfterFunc(f.successDuration, f.reset)
	return true, nil
}

// Close 停止尚未触发的重置计时器
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func (f *Form) reset() {
	f.mu.Lock()
	f.name = ""
	f.phone = ""
	f.profile = model.ProfileCasal
	f.consent = false
	f.state = StateEditing
	f.lastErr = nil
	f.timer = nil
	onReset := f.onReset
	f.mu.Unlock()

	if onReset != nil {
		onReset()
	}
}
