package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"liberal-checkin/backend/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	if err != nil {
		t.Fatalf("连接 miniredis 失败: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := NewClient(&config.RedisConfig{Addr: "127.0.0.1:1"}, zap.NewNop())
	if err == nil {
		t.Error("连接不可达地址应返回错误")
	}
}

func TestBlacklistToken(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	if err := c.BlacklistToken(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("BlacklistToken 失败: %v", err)
	}
	ok, err := c.IsBlacklisted(ctx, "jti-1")
	if err != nil || !ok {
		t.Errorf("jti-1 应在黑名单中，ok=%v err=%v", ok, err)
	}

	ok, _ = c.IsBlacklisted(ctx, "jti-2")
	if ok {
		t.Error("jti-2 不应在黑名单中")
	}

	// TTL 到期后自动移除
	mr.FastForward(2 * time.Minute)
	ok, _ = c.IsBlacklisted(ctx, "jti-1")
	if ok {
		t.Error("TTL 到期后 jti-1 应被移除")
	}
}

func TestBlacklistToken_ExpiredIsNoop(t *testing.T) {
	c, mr := newTestClient(t)

	if err := c.BlacklistToken(context.Background(), "jti-old", 0); err != nil {
		t.Fatalf("BlacklistToken 失败: %v", err)
	}
	if mr.Exists(blacklistPrefix + "jti-old") {
		t.Error("已过期 Token 不应写入黑名单")
	}
}

func TestCheckRateLimit(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := c.CheckRateLimit(ctx, "1.2.3.4:/api/checkin", 3, time.Minute)
		if err != nil {
			t.Fatalf("CheckRateLimit 失败: %v", err)
		}
		if !allowed {
			t.Fatalf("第 %d 次请求应被放行", i+1)
		}
	}

	allowed, err := c.CheckRateLimit(ctx, "1.2.3.4:/api/checkin", 3, time.Minute)
	if err != nil {
		t.Fatalf("CheckRateLimit 失败: %v", err)
	}
	if allowed {
		t.Error("超出限额的请求应被拒绝")
	}

	// 不同 key 互不影响
	allowed, _ = c.CheckRateLimit(ctx, "5.6.7.8:/api/checkin", 3, time.Minute)
	if !allowed {
		t.Error("其他客户端不应受影响")
	}
}
