package clock

import (
	"sync"
	"time"
)

// Clock "当前时间"的来源，业务代码通过注入获取时间，便于测试时固定时刻
type Clock interface {
	Now() time.Time
}

// Real 系统时钟
type Real struct{}

// Now 返回系统当前时间
func (Real) Now() time.Time { return time.Now() }

// Mock 可手动设置/推进的时钟，并发安全
type Mock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMock 创建固定在 t 的时钟
func NewMock(t time.Time) *Mock {
	return &Mock{now: t}
}

// Now 返回当前设定的时间
func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Set 将时钟设置到 t
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Add 将时钟向前推进 d
func (m *Mock) Add(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
