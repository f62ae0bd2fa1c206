package stats

import (
	"activity-assistant/internal/global/jwt"
	"activity-assistant/internal/global/pictureBed"
	"activity-assistant/internal/global/response"
	"activity-assistant/tools"

	"github.com/gin-gonic/gin"
)

// ActivityStats 组织者和管理员查看活动统计
func ActivityStats(c *gin.Context) {
	st, err := svc.Activity(c.Request.Context(), c.Param("id"), jwt.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, st)
}

type ExportResult struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"` // 预签名下载地址，一小时内有效
}

// Export 配置了对象存储时返回下载地址，否则直接返回 xlsx
func Export(c *gin.Context) {
	ctx := c.Request.Context()
	export, err := svc.Export(ctx, c.Param("id"), jwt.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	data, err := export.Workbook()
	if err != nil {
		log.Error("生成导出文件失败", "error", err, "activity_id", export.Activity.ID)
		response.Fail(c, response.ErrServerInternal.WithOrigin(err))
		return
	}

	name := export.FileName()
	if pictureBed.Default == nil {
		tools.SendBytes(c, data, name, tools.ExcelContentType)
		return
	}
	url, err := pictureBed.Default.UploadExport(ctx, name, data, tools.ExcelContentType)
	if err != nil {
		log.Error("上传导出文件失败", "error", err, "activity_id", export.Activity.ID)
		response.Fail(c, response.ErrThirdParty.WithOrigin(err))
		return
	}
	log.Info("导出文件已上传", "activity_id", export.Activity.ID, "size", len(data))
	response.Success(c, ExportResult{FileName: name, URL: url})
}
