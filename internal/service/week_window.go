package service

import (
	"time"

	"ojt-report/backend/internal/model"
)

// ═══════════════════════════════════════════════════════════
// 周窗口计算（纯函数，无 I/O）
// ═══════════════════════════════════════════════════════════
//
// 日期约定：
//   - "日历日"统一表示为 UTC 零点的 time.Time，只有年月日有意义，
//     与 PostgreSQL date 列读出的值一致
//   - 需要判断"此刻"时，先用调度时区把 now 折算成日历日或把日历日展开成该时区的零点

// weekSpanDays 周一到周五相隔的天数
const weekSpanDays = 4

// WeekWindow 周窗口：周一开始、周五结束，EndDate 恒为 StartDate + 4 天
type WeekWindow struct {
	WeekNumber int
	StartDate  time.Time
	EndDate    time.Time
}

// LoopState 周循环状态：AnchorDate 非空当且仅当 Active
type LoopState struct {
	Active     bool
	AnchorDate *time.Time
}

// SubmissionWindowStatus 某学生某周的提交状态（派生值，不落库）
type SubmissionWindowStatus struct {
	Submitted    bool
	EligibleNow  bool
	WindowClosed bool
	OpensAt      time.Time // 周五之后的周六 00:00（调度时区）
	ClosesAt     time.Time // 周六 24:00
	FinalCutoff  time.Time // 周五结束后满 7 天（周六 00:00 + 7 天），此后窗口彻底关闭
}

// CivilDate 取 t 在 loc 中的年月日，返回 UTC 零点表示的日历日
func CivilDate(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dateOnly 丢弃时分秒与时区，保留 t 自身的年月日
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MondayOnOrAfter 返回 d 当天或之后最近的周一
func MondayOnOrAfter(d time.Time) time.Time {
	d = dateOnly(d)
	offset := (8 - int(d.Weekday())) % 7
	return d.AddDate(0, 0, offset)
}

// MondayOnOrBefore 返回 d 当天或之前最近的周一（d 所在周的周一）
func MondayOnOrBefore(d time.Time) time.Time {
	d = dateOnly(d)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// NewWeekWindow 以周一 start 构造第 number 周
func NewWeekWindow(number int, start time.Time) WeekWindow {
	start = dateOnly(start)
	return WeekWindow{
		WeekNumber: number,
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, weekSpanDays),
	}
}

// GenerateWindows 从锚定日生成 count 个连续周窗口，周次 1..count。
// 第 i 周的周一 = 锚定日当天或之后的周一 + (i-1) 周；周末锚定同样顺延到下周一。
func GenerateWindows(anchor time.Time, count int) []WeekWindow {
	if count <= 0 {
		return []WeekWindow{}
	}

	first := MondayOnOrAfter(anchor)
	windows := make([]WeekWindow, 0, count)
	for i := 0; i < count; i++ {
		windows = append(windows, NewWeekWindow(i+1, first.AddDate(0, 0, 7*i)))
	}
	return windows
}

// NextWindowAfter 返回紧随 w 的下一周（周五 + 3 天 = 下周一）
func NextWindowAfter(w WeekWindow) WeekWindow {
	return NewWeekWindow(w.WeekNumber+1, w.EndDate.AddDate(0, 0, 3))
}

// ComputeSubmissionStatus 计算提交状态。
//
// 提交带为 EndDate 之后的那个周六（loc 时区整天）：
//   - EligibleNow = now ∈ [周六 00:00, 周日 00:00) 且 now < FinalCutoff 且 尚未提交
//   - WindowClosed = now >= FinalCutoff，FinalCutoff 为周五这一天结束后再过 7 天
//
// 已提交时 EligibleNow 恒为 false。
func ComputeSubmissionStatus(w WeekWindow, now time.Time, hasExistingSubmission bool, loc *time.Location) SubmissionWindowStatus {
	if loc == nil {
		loc = time.UTC
	}

	end := dateOnly(w.EndDate)
	opensAt := time.Date(end.Year(), end.Month(), end.Day()+1, 0, 0, 0, 0, loc)
	closesAt := time.Date(end.Year(), end.Month(), end.Day()+2, 0, 0, 0, 0, loc)
	finalCutoff := time.Date(end.Year(), end.Month(), end.Day()+8, 0, 0, 0, 0, loc)

	inBand := !now.Before(opensAt) && now.Before(closesAt)

	return SubmissionWindowStatus{
		Submitted:    hasExistingSubmission,
		EligibleNow:  inBand && now.Before(finalCutoff) && !hasExistingSubmission,
		WindowClosed: !now.Before(finalCutoff),
		OpensAt:      opensAt,
		ClosesAt:     closesAt,
		FinalCutoff:  finalCutoff,
	}
}

// ── 模型转换 ──

func weekWindowFromModel(w *model.Week) WeekWindow {
	return WeekWindow{
		WeekNumber: w.WeekNumber,
		StartDate:  dateOnly(w.WeekStartDate),
		EndDate:    dateOnly(w.WeekEndDate),
	}
}

func weekModelFromWindow(w WeekWindow) *model.Week {
	return &model.Week{
		WeekNumber:    w.WeekNumber,
		WeekStartDate: w.StartDate,
		WeekEndDate:   w.EndDate,
	}
}
