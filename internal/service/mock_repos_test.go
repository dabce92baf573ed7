package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"ojt-report/backend/internal/model"
	"ojt-report/backend/internal/repository"
	pkgerrors "ojt-report/backend/pkg/errors"
)

var errMockStorage = errors.New("mock: connection lost")

func civil(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) add(u *model.User) {
	m.users[u.UserID] = u
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByStudentID(_ context.Context, studentID string) (*model.User, error) {
	for _, u := range m.users {
		if u.StudentID == studentID && u.IsActive {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListActiveStudents(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == model.RoleStudent && u.IsActive {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LastName < result[j].LastName })
	return result, nil
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock SystemConfigRepository ──

type mockSystemConfigRepo struct {
	mu        sync.Mutex
	cfg       *model.SystemConfig
	getErr    error
	updateErr error
}

func newMockSystemConfigRepo() *mockSystemConfigRepo {
	return &mockSystemConfigRepo{cfg: &model.SystemConfig{Singleton: true}}
}

func (m *mockSystemConfigRepo) activate(anchor time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.WeeklyLoopActive = true
	m.cfg.LoopAnchorDate = &anchor
}

func (m *mockSystemConfigRepo) Get(_ context.Context) (*model.SystemConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.cfg == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.cfg
	return &cp, nil
}

func (m *mockSystemConfigRepo) Update(_ context.Context, cfg *model.SystemConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	cp := *cfg
	m.cfg = &cp
	return nil
}

// ── Mock WeekRepository（模拟 week_number / week_start_date 唯一约束）──

type mockWeekRepo struct {
	mu        sync.Mutex
	weeks     []model.Week
	insertErr error
	latestErr error
	// skipPreCheck 让 FindByStartDate 永远查不到，用于验证唯一约束兜底
	skipPreCheck bool
	inserts      int
}

func newMockWeekRepo() *mockWeekRepo {
	return &mockWeekRepo{}
}

func (m *mockWeekRepo) seed(number int, start time.Time) {
	m.weeks = append(m.weeks, model.Week{
		WeekID:        "week-" + start.Format(repository.DateLayout),
		WeekNumber:    number,
		WeekStartDate: start,
		WeekEndDate:   start.AddDate(0, 0, 4),
	})
}

func (m *mockWeekRepo) Latest(_ context.Context) (*model.Week, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	var latest *model.Week
	for i := range m.weeks {
		if latest == nil || m.weeks[i].WeekNumber > latest.WeekNumber {
			latest = &m.weeks[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *mockWeekRepo) FindByStartDate(_ context.Context, start time.Time) (*model.Week, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.skipPreCheck {
		return nil, nil
	}
	for _, w := range m.weeks {
		if w.WeekStartDate.Equal(start) {
			cp := w
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockWeekRepo) GetByNumber(_ context.Context, weekNumber int) (*model.Week, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.weeks {
		if w.WeekNumber == weekNumber {
			cp := w
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWeekRepo) Insert(_ context.Context, week *model.Week) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, w := range m.weeks {
		if w.WeekNumber == week.WeekNumber || w.WeekStartDate.Equal(week.WeekStartDate) {
			return pkgerrors.ErrDuplicateKey
		}
	}
	week.WeekID = "week-" + week.WeekStartDate.Format(repository.DateLayout)
	m.weeks = append(m.weeks, *week)
	m.inserts++
	return nil
}

func (m *mockWeekRepo) ListAll(_ context.Context) ([]model.Week, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := append([]model.Week(nil), m.weeks...)
	sort.Slice(result, func(i, j int) bool { return result[i].WeekNumber < result[j].WeekNumber })
	return result, nil
}

func (m *mockWeekRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.weeks)
}

// ── Mock WeeklyReportRepository ──

type mockWeeklyReportRepo struct {
	reports   []model.WeeklyReport
	createErr error
	// hideExisting 让 Exists 永远返回 false，用于验证唯一约束兜底
	hideExisting bool
}

func newMockWeeklyReportRepo() *mockWeeklyReportRepo {
	return &mockWeeklyReportRepo{}
}

func (m *mockWeeklyReportRepo) Exists(_ context.Context, studentID string, weekStart time.Time) (bool, error) {
	if m.hideExisting {
		return false, nil
	}
	for _, r := range m.reports {
		if r.StudentID == studentID && r.WeekStartDate.Equal(weekStart) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockWeeklyReportRepo) Create(_ context.Context, report *model.WeeklyReport) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, r := range m.reports {
		if r.StudentID == report.StudentID && r.WeekStartDate.Equal(report.WeekStartDate) {
			return pkgerrors.ErrDuplicateKey
		}
	}
	if report.ReportID == "" {
		report.ReportID = "rep-" + report.StudentID + "-" + report.WeekStartDate.Format(repository.DateLayout)
	}
	m.reports = append(m.reports, *report)
	return nil
}

func (m *mockWeeklyReportRepo) ListByStudent(_ context.Context, studentID string) ([]model.WeeklyReport, error) {
	var result []model.WeeklyReport
	for _, r := range m.reports {
		if r.StudentID == studentID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockWeeklyReportRepo) ListByWeek(_ context.Context, weekStart time.Time, offset, limit int) ([]model.WeeklyReport, int64, error) {
	var matched []model.WeeklyReport
	for _, r := range m.reports {
		if r.WeekStartDate.Equal(weekStart) {
			matched = append(matched, r)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.WeeklyReport{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockWeeklyReportRepo) ListSubmissionKeys(_ context.Context, from, to time.Time) ([]repository.SubmissionKey, error) {
	var keys []repository.SubmissionKey
	for _, r := range m.reports {
		if !r.WeekStartDate.Before(from) && !r.WeekStartDate.After(to) {
			keys = append(keys, repository.SubmissionKey{StudentID: r.StudentID, WeekStartDate: r.WeekStartDate})
		}
	}
	return keys, nil
}
