package dto

// ── 周报模块 DTO ──

// SubmitWeeklyReportRequest 提交周报请求
type SubmitWeeklyReportRequest struct {
	WeekNumber int    `json:"week_number" binding:"required,min=1"`
	Title      string `json:"title"       binding:"required,min=1,max=200"`
	Content    string `json:"content"     binding:"required,min=1"`
}

// WeeklyReportListRequest 按周列出周报
type WeeklyReportListRequest struct {
	WeekNumber int `form:"week_number" binding:"required,min=1"`
	PaginationRequest
}

// WeeklyReportResponse 周报响应
type WeeklyReportResponse struct {
	ID            string `json:"id"`
	StudentID     string `json:"student_id"`
	StudentName   string `json:"student_name,omitempty"`
	WeekNumber    int    `json:"week_number"`
	WeekStartDate string `json:"week_start_date"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	SubmittedAt   string `json:"submitted_at"`
}
