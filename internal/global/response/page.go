package response

import (
	"activity-assistant/internal/store"

	"github.com/gin-gonic/gin"
)

// PageReq 列表接口通用的分页参数
type PageReq struct {
	Page     int `form:"page" json:"page"`           // 页码，默认为1
	PageSize int `form:"page_size" json:"page_size"` // 每页大小，默认为10
}

type PageResult[T any] struct {
	List       []T   `json:"list"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
}

// SuccessPage page 为规范化之后的分页
func SuccessPage[T any](c *gin.Context, list []T, total int64, page store.Page) {
	if list == nil {
		list = []T{}
	}
	result := PageResult[T]{List: list, Total: total, PageSize: page.Limit, Page: 1}
	if page.Limit > 0 {
		result.Page = page.Offset/page.Limit + 1
		result.TotalPages = (total + int64(page.Limit) - 1) / int64(page.Limit)
	}
	Success(c, result)
}
