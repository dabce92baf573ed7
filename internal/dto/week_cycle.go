package dto

// ── 周循环模块 DTO ──

// StartLoopRequest 启动周循环请求
type StartLoopRequest struct {
	AnchorDate string `json:"anchor_date" binding:"required"` // "2025-01-06"
}

// WeekResponse 周次
type WeekResponse struct {
	WeekNumber int    `json:"week_number"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// LoopStateResponse 周循环状态
type LoopStateResponse struct {
	Active     bool          `json:"active"`
	AnchorDate *string       `json:"anchor_date"`
	LatestWeek *WeekResponse `json:"latest_week,omitempty"`
	Timezone   string        `json:"timezone"`
}

// AdvanceResponse 推进结果
type AdvanceResponse struct {
	Outcome string        `json:"outcome"` // created | already_present | not_active | not_due
	Week    *WeekResponse `json:"week,omitempty"`
}

// SubmissionStatusResponse 单个学生在单周的提交状态
type SubmissionStatusResponse struct {
	StudentID    string `json:"student_id"`
	FullName     string `json:"full_name"`
	Submitted    bool   `json:"submitted"`
	EligibleNow  bool   `json:"eligible_now"`
	WindowClosed bool   `json:"window_closed"`
}

// CycleWeekResponse 周期视图中的一周
type CycleWeekResponse struct {
	WeekResponse
	OpensAt     string                     `json:"opens_at"`
	ClosesAt    string                     `json:"closes_at"`
	FinalCutoff string                     `json:"final_cutoff"`
	Students    []SubmissionStatusResponse `json:"students"`
}

// CycleViewResponse 周期视图
type CycleViewResponse struct {
	Active     bool                `json:"active"`
	AnchorDate *string             `json:"anchor_date"`
	Now        string              `json:"now"`
	Timezone   string              `json:"timezone"`
	Weeks      []CycleWeekResponse `json:"weeks"`
}
