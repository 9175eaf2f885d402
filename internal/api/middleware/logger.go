package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger 访问日志
// route 取路由模板（/api/v1/courses/:course_id/...），便于按接口聚合；课程与调用者单独成字段
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		fields := make([]zap.Field, 0, 9)
		fields = append(fields,
			zap.String("request_id", c.GetString(CtxRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
		)
		if course := c.Param("course_id"); course != "" {
			fields = append(fields, zap.String("course_id", course))
		}
		if email := c.GetString(CtxEmail); email != "" {
			fields = append(fields, zap.String("viewer", email), zap.String("role", c.GetString(CtxRole)))
		} else {
			fields = append(fields, zap.String("ip", c.ClientIP()))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, zap.Strings("errors", errs.Errors()))
		}

		switch {
		case status >= 500:
			logger.Error("请求处理失败", fields...)
		case status == 409 || status == 429:
			// 级联冲突与限流属于预期内的竞争
			logger.Info("请求被拒绝", fields...)
		case status >= 400:
			logger.Warn("客户端错误", fields...)
		default:
			logger.Debug("请求完成", fields...)
		}
	}
}
