package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"peer-feedback/backend/config"
	"peer-feedback/backend/internal/api/handler"
	"peer-feedback/backend/internal/api/middleware"
	"peer-feedback/backend/pkg/jwt"
)

// 级联写接口限流：每位调用者每分钟
const (
	cascadeRateLimit  = 30
	cascadeRateWindow = time.Minute
)

// Deps 路由依赖；Blacklist / Limiter / Metrics 可为 nil
type Deps struct {
	Config    *config.Config
	Handler   *handler.Handler
	JWT       *jwt.Manager
	Blacklist middleware.TokenBlacklist
	Limiter   middleware.RateLimiter
	Metrics   http.Handler
	Logger    *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	h := d.Handler

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(d.Config.Server.MaxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(d.JWT, d.Blacklist))
	{
		v1.POST("/auth/logout", h.Auth.Logout)

		course := v1.Group("/courses/:course_id")
		course.Use(middleware.CourseScope())
		{
			viewer := middleware.RoleAuth("student", "instructor")
			instructor := middleware.RoleAuth("instructor", "admin")
			limited := middleware.RateLimit(d.Limiter, cascadeRateLimit, cascadeRateWindow)

			// 回复查看与作答
			course.GET("/questions/:id/responses", viewer, h.Feedback.ListViewableResponses)
			course.POST("/sessions/:session/responses", viewer, h.Feedback.CreateResponses)
			course.PUT("/responses/:id", viewer, h.Feedback.UpdateResponse)
			course.DELETE("/responses/:id", viewer, h.Feedback.DeleteResponse)

			// 会话
			course.GET("/sessions/:session/response-rate", instructor, h.Session.GetResponseRate)
			course.GET("/sessions/:session/export", viewer, h.Export.ExportSessionResponses)

			// 名册级联（教师）
			course.POST("/enrollments", instructor, limited, h.Roster.ApplyEnrollment)
			course.PUT("/students/email", instructor, limited, h.Roster.ChangeEmail)
			course.DELETE("/students/:email/responses", instructor, limited, h.Roster.DeleteStudentResponses)
			course.DELETE("/responses", instructor, limited, h.Roster.DeleteCourseResponses)
		}
	}

	return r
}
