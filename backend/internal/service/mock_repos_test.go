package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"liberal-checkin/backend/internal/model"
)

// ── Mock CheckInRepository ──

type mockCheckInRepo struct {
	mu        sync.Mutex
	checkins  []model.CheckIn
	nextID    int64
	createErr error
	listErr   error
	deleteErr error
}

func newMockCheckInRepo() *mockCheckInRepo {
	return &mockCheckInRepo{nextID: 1}
}

func (m *mockCheckInRepo) Create(_ context.Context, ci *model.CheckIn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	ci.ID = m.nextID
	m.nextID++
	m.checkins = append(m.checkins, *ci)
	return nil
}

func (m *mockCheckInRepo) ListAll(_ context.Context) ([]model.CheckIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]model.CheckIn, len(m.checkins))
	copy(result, m.checkins)
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (m *mockCheckInRepo) DeleteAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	n := int64(len(m.checkins))
	m.checkins = nil
	return n, nil
}

func (m *mockCheckInRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.checkins)), nil
}

// ── Mock TokenRevoker ──

type mockRevoker struct {
	revoked map[string]time.Duration
	err     error
}

func newMockRevoker() *mockRevoker {
	return &mockRevoker{revoked: make(map[string]time.Duration)}
}

func (m *mockRevoker) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.revoked[jti] = ttl
	return nil
}

// fixedClock 每次调用前进 step，用于构造确定的 created_at
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := cur
		cur = cur.Add(step)
		return t
	}
}
