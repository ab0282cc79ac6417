// Package client 自助登记 HTTP API 的类型化客户端，供终端 kiosk 与管理视图使用。
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"liberal-checkin/backend/internal/dto"
	"liberal-checkin/backend/pkg/report"
	"liberal-checkin/backend/pkg/response"
)

// DefaultTimeout 单次请求超时
const DefaultTimeout = 10 * time.Second

// APIError 非 2xx 响应
type APIError struct {
	Status  int
	Code    int
	Message string // 服务端 error 字段，可能为空
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// IsUnauthorized 判断是否为 401
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client API 客户端，可并发使用
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option 客户端选项
type Option func(*Client)

// WithTimeout 设置请求超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken 预置管理员 Token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New 创建客户端，baseURL 形如 http://localhost:3000
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token 当前管理员 Token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken 设置管理员 Token
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ── 登记 ──

// CreateCheckIn POST /api/checkin
func (c *Client) CreateCheckIn(ctx context.Context, req *dto.CreateCheckInRequest) (*dto.CreateCheckInResponse, error) {
	var out dto.CreateCheckInResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/checkin", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCheckIns GET /api/checkins
func (c *Client) ListCheckIns(ctx context.Context) ([]dto.CheckInResponse, error) {
	var out []dto.CheckInResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/checkins", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []dto.CheckInResponse{}
	}
	return out, nil
}

// ClearCheckIns POST /api/checkins/clear
func (c *Client) ClearCheckIns(ctx context.Context) (*dto.ClearCheckInsResponse, error) {
	var out dto.ClearCheckInsResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/checkins/clear", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportCheckIns GET /api/checkins/export，返回服务端渲染的文件内容
func (c *Client) ExportCheckIns(ctx context.Context, format report.Format) ([]byte, error) {
	path := "/api/checkins/export?format=" + url.QueryEscape(string(format))
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// ── 认证 ──

// Login 管理员登录，成功后保存 Token
func (c *Client) Login(ctx context.Context, password string) (*dto.TokenResponse, error) {
	var out dto.TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", &dto.LoginRequest{Password: password}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

// Logout 管理员登出并清除本地 Token
func (c *Client) Logout(ctx context.Context) error {
	var out response.SuccessBody
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, &out); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// ── 内部辅助方法 ──

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("编码请求失败: %w", err)
		}
		body = bytes.NewReader(b)
	}

	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}

// do 发送请求；非 2xx 响应转换为 *APIError 并关闭 Body
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := &APIError{Status: resp.StatusCode}
		var eb response.ErrorBody
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb) == nil {
			apiErr.Code = eb.Code
			apiErr.Message = eb.Error
		}
		return nil, apiErr
	}
	return resp, nil
}
