package middleware

import (
	"activity-assistant/internal/global/jwt"
	"activity-assistant/internal/global/response"
	"bytes"
	"log/slog"
	"time"

	sentrylib "github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// maxResponseLogSize 日志中记录的响应体最大大小（4KB）
const maxResponseLogSize = 4 * 1024

// responseBodyWriter 包装 gin.ResponseWriter，只缓存响应体开头一段
type responseBodyWriter struct {
	gin.ResponseWriter
	body      bytes.Buffer
	truncated bool
}

func (w *responseBodyWriter) Write(b []byte) (int, error) {
	if remaining := maxResponseLogSize - w.body.Len(); remaining > 0 {
		if len(b) > remaining {
			w.body.Write(b[:remaining])
			w.truncated = true
		} else {
			w.body.Write(b)
		}
	} else if len(b) > 0 {
		w.truncated = true
	}
	return w.ResponseWriter.Write(b)
}

// Logger 访问日志。导出文件等二进制响应不记录响应体
func Logger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		blw := &responseBodyWriter{ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if id := jwt.UserID(c); id != "" {
			attrs = append(attrs, "user_id", id)
		}
		if v, ok := c.Get(response.ErrorContextKey); ok {
			if e, ok := v.(*response.Error); ok {
				attrs = append(attrs, "code", e.Code)
			}
		}
		if isJSON(c.Writer.Header().Get("Content-Type")) {
			body := blw.body.String()
			if blw.truncated {
				body += "...(truncated)"
			}
			attrs = append(attrs, "response_body", body)
		}

		if c.Writer.Status() >= 500 {
			log.Error("HTTP Request", attrs...)
			return
		}
		log.Info("HTTP Request", attrs...)
	}
}

func isJSON(contentType string) bool {
	return len(contentType) >= 16 && contentType[:16] == "application/json"
}

// SentryEnrichIP 放在 sentry.Middleware() 之后，后续上报都会带上客户端 IP
func SentryEnrichIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.ConfigureScope(func(scope *sentrylib.Scope) {
				clientIP := c.ClientIP()
				scope.SetUser(sentrylib.User{IPAddress: clientIP})
				scope.SetTag("client_ip", clientIP)
				if forwardedFor := c.GetHeader("X-Forwarded-For"); forwardedFor != "" {
					scope.SetTag("x_forwarded_for", forwardedFor)
				}
			})
		}
		c.Next()
	}
}
