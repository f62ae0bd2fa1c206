package tools

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

func FileExist(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SearchFile 从当前目录向上查找文件，用于测试中定位 config.yaml，找不到返回空串
func SearchFile(fileName string) string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, fileName)
		if FileExist(p) {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func attachment(c *gin.Context, displayName string) {
	escaped := url.QueryEscape(displayName)
	c.Header(
		"Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, escaped, escaped),
	)
}

// SendBytes 以附件形式返回内存中的文件
func SendBytes(c *gin.Context, data []byte, displayName, contentType string) {
	attachment(c, displayName)
	c.Data(http.StatusOK, contentType, data)
}
