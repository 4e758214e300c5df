package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/edutrack/edutrack-api/internal/middleware"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/service"
)

// Router bundles the HTTP handlers and registers their routes.
type Router struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Assessments *AssessmentHandler
	Attendance  *AttendanceHandler
	Exports     *ExportHandler
	Metrics     *MetricsHandler

	AuthService *service.AuthService
}

// Register attaches all routes under the given prefix. Auth endpoints are
// public; everything else requires a valid access token, with writes limited
// to teachers.
func (rt *Router) Register(r *gin.Engine, prefix string) {
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", rt.Auth.Register)
		auth.POST("/login", rt.Auth.Login)
		auth.POST("/refresh", rt.Auth.Refresh)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(rt.AuthService))
	{
		authed.POST("/auth/logout", rt.Auth.Logout)
		authed.POST("/auth/change-password", rt.Auth.ChangePassword)
		authed.GET("/auth/me", rt.Auth.Me)

		users := authed.Group("/users")
		{
			users.GET("", middleware.RequireRoles(models.RoleTeacher), rt.Users.List)
			users.GET("/:id", middleware.RBAC(string(models.RoleTeacher), "SELF"), rt.Users.Get)
			users.PUT("/:id", middleware.RBAC(string(models.RoleTeacher), "SELF"), rt.Users.Update)
			users.DELETE("/:id", middleware.RequireRoles(models.RoleTeacher), rt.Users.Delete)
		}

		assessments := authed.Group("/assessments")
		{
			assessments.POST("", middleware.RequireRoles(models.RoleTeacher), rt.Assessments.Create)
			assessments.GET("", rt.Assessments.List)
			assessments.GET("/:id", rt.Assessments.Get)
			assessments.PUT("/:id", middleware.RequireRoles(models.RoleTeacher), rt.Assessments.Update)
			assessments.DELETE("/:id", middleware.RequireRoles(models.RoleTeacher), rt.Assessments.Delete)
		}

		attendance := authed.Group("/attendance")
		{
			attendance.POST("", middleware.RequireRoles(models.RoleTeacher), rt.Attendance.Mark)
			attendance.GET("", rt.Attendance.List)
		}

		students := authed.Group("/students/:id")
		students.Use(middleware.RBAC(string(models.RoleTeacher), "SELF"))
		{
			students.GET("/assessments/summary", rt.Assessments.Summary)
			students.POST("/assessments/refresh", rt.Assessments.RefreshStatuses)
			students.GET("/attendance", rt.Attendance.Get)
			students.GET("/attendance/summary", rt.Attendance.Summary)
		}

		exports := authed.Group("/exports")
		{
			exports.POST("", middleware.RequireRoles(models.RoleTeacher), rt.Exports.Generate)
		}
	}

	// Downloads authenticate with the signed token itself, not a JWT, so
	// rendered files can be fetched from links outside the SPA.
	api.GET("/exports/download", rt.Exports.Download)

	r.GET("/metrics", rt.Metrics.Scrape)
	api.GET("/metrics/snapshot", middleware.JWT(rt.AuthService), middleware.RequireRoles(models.RoleTeacher), rt.Metrics.Snapshot)
}
