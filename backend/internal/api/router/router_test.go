package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"liberal-checkin/backend/config"
	"liberal-checkin/backend/internal/api/handler"
	"liberal-checkin/backend/internal/dto"
	"liberal-checkin/backend/internal/repository"
	"liberal-checkin/backend/internal/service"
	"liberal-checkin/backend/pkg/database"
	"liberal-checkin/backend/pkg/jwt"
	"liberal-checkin/backend/pkg/redis"
	"liberal-checkin/backend/pkg/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPassword = "portaria-123"

type testServer struct {
	engine *gin.Engine
	repo   *repository.Repository
	db     *gorm.DB
}

func newTestConfig(t *testing.T, authEnabled bool) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Port: 3000, BodyLimit: 1 << 20},
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "checkins.db"),
		},
		Auth: config.AuthConfig{
			Enabled:        authEnabled,
			JWTSecret:      "test-secret-key-for-unit-testing-2026",
			AdminPassword:  testPassword,
			AccessTokenTTL: time.Hour,
		},
		RateLimit: config.RateLimitConfig{Enabled: true, CheckInLimit: 100, LoginLimit: 3, Window: time.Minute},
		Export:    config.ExportConfig{Title: "Lista de Check-ins", Timezone: "UTC", DefaultFormat: "pdf"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, rdb *redis.Client) *testServer {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.NewDB(&cfg.Database, "error", logger)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	sqlDB, _ := db.DB()
	if err := database.RunMigrations(sqlDB, cfg.Database.Driver, logger); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	repo := repository.NewRepository(db)
	jwtMgr := jwt.NewManager(&cfg.Auth)

	var revoker service.TokenRevoker
	if rdb != nil {
		revoker = rdb
	}
	svc, err := service.NewService(cfg, repo, jwtMgr, revoker, logger)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	h := handler.NewHandler(svc, report.Format(cfg.Export.DefaultFormat))

	engine, err := Setup(cfg, h, jwtMgr, rdb, logger)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	return &testServer{engine: engine, repo: repo, db: db}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return s.doWithHeaders(method, path, headers, body)
}

func (s *testServer) doWithHeaders(method, path string, headers map[string]string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) count(t *testing.T) int64 {
	t.Helper()
	n, err := s.repo.CheckIn.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	return n
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	w := s.do("POST", "/api/auth/login", "", map[string]string{"password": testPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var tok dto.TokenResponse
	_ = json.Unmarshal(w.Body.Bytes(), &tok)
	return tok.AccessToken
}

// ── 端到端：登记 → 列表 → 清空 → 列表 ──

func TestEndToEnd_CheckInListClear(t *testing.T) {
	s := newTestServer(t, newTestConfig(t, true), nil)
	token := s.login(t)

	before := s.count(t)
	w := s.do("POST", "/api/checkin", "", map[string]string{
		"name": "Ana", "whatsapp": "(11) 98765-4321", "profile": "CASAL",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("checkin: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var created dto.CreateCheckInResponse
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if !created.Success || created.ID <= 0 {
		t.Errorf("unexpected create body: %s", w.Body.String())
	}
	if _, err := time.Parse(time.RFC3339Nano, created.CreatedAt); err != nil {
		t.Errorf("created_at not parseable: %v", err)
	}
	if got := s.count(t); got != before+1 {
		t.Errorf("expected count %d, got %d", before+1, got)
	}

	w = s.do("GET", "/api/checkins", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var list []dto.CheckInResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) == 0 {
		t.Fatal("list should not be empty")
	}
	first := list[0]
	if first.ID != created.ID || first.Name != "Ana" || first.WhatsApp != "(11) 98765-4321" || first.Profile != "CASAL" {
		t.Errorf("first row does not match submission: %+v", first)
	}
	if first.CreatedAt != created.CreatedAt {
		t.Errorf("created_at mismatch: %s vs %s", first.CreatedAt, created.CreatedAt)
	}

	prior := s.count(t)
	w = s.do("POST", "/api/checkins/clear", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("clear: expected 200, got %d", w.Code)
	}
	var cleared dto.ClearCheckInsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &cleared)
	if !cleared.Success || cleared.Count != prior {
		t.Errorf("expected count %d, got %+v", prior, cleared)
	}

	w = s.do("GET", "/api/checkins", token, nil)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty array after clear, got %s", w.Body.String())
	}
}

func TestCheckIn_MissingFieldDoesNotInsert(t *testing.T) {
	s := newTestServer(t, newTestConfig(t, false), nil)

	bodies := []map[string]string{
		{"whatsapp": "1", "profile": "CASAL"},
		{"name": "Ana", "profile": "CASAL"},
		{"name": "Ana", "whatsapp": "1"},
		{"name": "  ", "whatsapp": "1", "profile": "CASAL"},
	}
	for _, b := range bodies {
		w := s.do("POST", "/api/checkin", "", b)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for %v, got %d", b, w.Code)
		}
		if !strings.Contains(w.Body.String(), "Missing required fields") {
			t.Errorf("unexpected body: %s", w.Body.String())
		}
	}
	if n := s.count(t); n != 0 {
		t.Errorf("expected no rows, got %d", n)
	}
}

func TestCheckIn_IDsIncreaseAndListIsOrdered(t *testing.T) {
	s := newTestServer(t, newTestConfig(t, false), nil)

	var last int64
	for _, name := range []string{"Ana", "Bruno", "Carla"} {
		w := s.do("POST", "/api/checkin", "", map[string]string{"name": name, "whatsapp": "1", "profile": "SOLTEIRO"})
		var created dto.CreateCheckInResponse
		_ = json.Unmarshal(w.Body.Bytes(), &created)
		if created.ID <= last {
			t.Errorf("id should increase: %d <= %d", created.ID, last)
		}
		last = created.ID
	}

	w := s.do("GET", "/api/checkins", "", nil)
	var list []dto.CheckInResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt > list[i-1].CreatedAt {
			t.Errorf("list not in non-increasing created_at order at %d", i)
		}
	}
}

// ── 访问控制 ──

func TestAdminRoutes_RequireToken(t *testing.T) {
	s := newTestServer(t, newTestConfig(t, true), nil)

	for _, r := range []struct{ method, path string }{
		{"GET", "/api/checkins"},
		{"POST", "/api/checkins/clear"},
		{"GET", "/api/checkins/export"},
	} {
		if w := s.do(r.method, r.path, "", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", r.method, r.path, w.Code)
		}
	}

	// 登记接口始终开放
	w := s.do("POST", "/api/checkin", "", map[string]string{"name": "Ana", "whatsapp": "1", "profile": "CASAL"})
	if w.Code != http.StatusOK {
		t.Errorf("checkin should be public, got %d", w.Code)
	}
}

func TestAdminRoutes_OpenWhenAuthDisabled(t *testing.T) {
	s := newTestServer(t, newTestConfig(t, false), nil)

	if w := s.do("GET", "/api/checkins", "", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200 without auth, got %d", w.Code)
	}
	if w := s.do("POST", "/api/auth/login", "", map[string]string{"password": testPassword}); w.Code != http.StatusNotFound {
		t.Errorf("login route should not exist when auth is disabled, got %d", w.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t, newTestConfig(t, true), nil)

	w := s.do("POST", "/api/auth/login", "", map[string]string{"password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	s := newTestServer(t, newTestConfig(t, true), newTestRedis(t))
	token := s.login(t)

	if w := s.do("GET", "/api/checkins", token, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 before logout, got %d", w.Code)
	}
	if w := s.do("POST", "/api/auth/logout", token, nil); w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}
	if w := s.do("GET", "/api/checkins", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", w.Code)
	}
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := redis.NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestLogin_RateLimited(t *testing.T) {
	s := newTestServer(t, newTestConfig(t, true), newTestRedis(t))
	for i := 0; i < 3; i++ {
		s.do("POST", "/api/auth/login", "", map[string]string{"password": "nope"})
	}
	if w := s.do("POST", "/api/auth/login", "", map[string]string{"password": testPassword}); w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
}

// 未配置可信代理时，伪造 X-Forwarded-For 不能换取新的限流配额
func TestLogin_RateLimitIgnoresForwardedFor(t *testing.T) {
	s := newTestServer(t, newTestConfig(t, true), newTestRedis(t))

	var codes []int
	for i := 0; i < 10; i++ {
		w := s.doWithHeaders("POST", "/api/auth/login",
			map[string]string{"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i)},
			map[string]string{"password": "nope"})
		codes = append(codes, w.Code)
	}
	for i, code := range codes {
		want := http.StatusUnauthorized
		if i >= 3 {
			want = http.StatusTooManyRequests
		}
		if code != want {
			t.Fatalf("attempt %d: expected %d, got %d (all: %v)", i+1, want, code, codes)
		}
	}
}

// 请求来自可信代理时，按 X-Forwarded-For 中的客户端地址分别计数
func TestLogin_TrustedProxyUsesForwardedFor(t *testing.T) {
	cfg := newTestConfig(t, true)
	// httptest 请求的对端地址为 192.0.2.1
	cfg.Server.TrustedProxies = []string{"192.0.2.0/24"}
	s := newTestServer(t, cfg, newTestRedis(t))

	for i := 0; i < 10; i++ {
		w := s.doWithHeaders("POST", "/api/auth/login",
			map[string]string{"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i)},
			map[string]string{"password": "nope"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, w.Code)
		}
	}
}

func TestSetup_InvalidTrustedProxy(t *testing.T) {
	cfg := newTestConfig(t, false)
	cfg.Server.TrustedProxies = []string{"not-an-ip"}

	if _, err := Setup(cfg, nil, nil, nil, zap.NewNop()); err == nil {
		t.Fatal("expected error for invalid trusted proxy")
	}
}

// ── 存储故障 ──

func TestStorageFailure_GenericMessages(t *testing.T) {
	s := newTestServer(t, newTestConfig(t, false), nil)
	if err := database.Close(s.db); err != nil {
		t.Fatalf("close db: %v", err)
	}

	tests := []struct {
		method, path string
		body         interface{}
		wantMsg      string
	}{
		{"POST", "/api/checkin", map[string]string{"name": "Ana", "whatsapp": "1", "profile": "CASAL"}, "Failed to save check-in"},
		{"GET", "/api/checkins", nil, "Failed to fetch check-ins"},
		{"POST", "/api/checkins/clear", nil, "Failed to clear list"},
	}
	for _, tt := range tests {
		w := s.do(tt.method, tt.path, "", tt.body)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("%s %s: expected 500, got %d", tt.method, tt.path, w.Code)
			continue
		}
		var body struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s %s: decode: %v", tt.method, tt.path, err)
		}
		if body.Error != tt.wantMsg {
			t.Errorf("%s %s: expected %q, got %q", tt.method, tt.path, tt.wantMsg, body.Error)
		}
		for _, leak := range []string{"sql", "database", "closed", "sqlite"} {
			if strings.Contains(strings.ToLower(w.Body.String()), leak) {
				t.Errorf("%s %s: response leaks driver detail: %s", tt.method, tt.path, w.Body.String())
			}
		}
	}
}

// ── 导出 ──

func TestExport_EmptyAndPDF(t *testing.T) {
	s := newTestServer(t, newTestConfig(t, false), nil)

	if w := s.do("GET", "/api/checkins/export", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for empty list, got %d", w.Code)
	}

	s.do("POST", "/api/checkin", "", map[string]string{"name": "Ana", "whatsapp": "1", "profile": "CASAL"})
	w := s.do("GET", "/api/checkins/export", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("expected a PDF document")
	}

	w = s.do("GET", "/api/checkins/export?format=xlsx", "", nil)
	if w.Code != http.StatusOK || !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Errorf("expected an xlsx document, got %d", w.Code)
	}
}

func TestExport_MaxIDMatchesLoadedList(t *testing.T) {
	s := newTestServer(t, newTestConfig(t, false), nil)

	var first dto.CreateCheckInResponse
	w := s.do("POST", "/api/checkin", "", map[string]string{"name": "Ana", "whatsapp": "1", "profile": "CASAL"})
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 管理页加载列表之后又有新登记
	s.do("POST", "/api/checkin", "", map[string]string{"name": "Bruno", "whatsapp": "2", "profile": "SOLTEIRO"})

	w = s.do("GET", fmt.Sprintf("/api/checkins/export?format=xlsx&max_id=%d", first.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 || rows[2][0] != "Ana" {
		t.Errorf("expected title + header + Ana only, got %v", rows)
	}
}

// ── 静态页面与兜底 ──

func TestStaticAndFallback(t *testing.T) {
	s := newTestServer(t, newTestConfig(t, false), nil)

	w := s.do("GET", "/", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "checkin-form") {
		t.Errorf("expected index page, got %d", w.Code)
	}

	w = s.do("GET", "/app.js", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "formatWhatsApp") {
		t.Errorf("expected app.js, got %d", w.Code)
	}

	w = s.do("GET", "/admin/anything", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "checkin-form") {
		t.Errorf("expected SPA fallback, got %d", w.Code)
	}

	w = s.do("GET", "/api/unknown", "", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"error"`) {
		t.Errorf("expected JSON 404, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do("GET", "/health", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("expected health ok, got %d", w.Code)
	}
}
