package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOKPage_TotalPages(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{total: 0, pageSize: 20, want: 0},
		{total: 20, pageSize: 20, want: 1},
		{total: 21, pageSize: 20, want: 2},
		{total: 5, pageSize: 0, want: 0},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		OKPage(c, []int{}, tt.total, 1, tt.pageSize)

		var body struct {
			Data PageData `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("响应解析失败: %v", err)
		}
		if body.Data.Pagination.TotalPages != tt.want {
			t.Errorf("total=%d size=%d: 期望 %d 页，实际 %d", tt.total, tt.pageSize, tt.want, body.Data.Pagination.TotalPages)
		}
	}
}

func TestInternalError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	InternalError(c)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("期望 500，实际 %d", w.Code)
	}
	var resp Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != 50000 {
		t.Errorf("期望业务码 50000，实际 %d", resp.Code)
	}
}
