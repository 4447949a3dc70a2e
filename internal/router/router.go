package router

import (
	"github.com/gin-gonic/gin"

	"github.com/MarivaldoDev/sistema-escolar/internal/handler"
	"github.com/MarivaldoDev/sistema-escolar/internal/middleware"
	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	"github.com/MarivaldoDev/sistema-escolar/internal/service"
)

// Handlers groups every HTTP handler wired into the API.
type Handlers struct {
	Auth          *handler.AuthHandler
	Accounts      *handler.AccountHandler
	Teams         *handler.TeamHandler
	Subjects      *handler.SubjectHandler
	Grades        *handler.GradeHandler
	Attendance    *handler.AttendanceHandler
	Notifications *handler.NotificationHandler
	Reports       *handler.ReportHandler
}

// Register mounts all API routes under the given prefix. Route-level role
// gates are coarse; every service re-evaluates the fine-grained relationship
// checks (teaching set, offers, roster membership) on each request.
func Register(r *gin.Engine, prefix string, auth *service.AuthService, h Handlers) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)

	// Signed token is the credential; no JWT required.
	api.GET("/exports/download", h.Reports.DownloadExport)

	protected := api.Group("", middleware.JWT(auth))

	protected.GET("/auth/me", h.Auth.Me)

	staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	teacherWrites := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)

	accounts := protected.Group("/accounts")
	{
		accounts.POST("", adminOnly, h.Accounts.Create)
		accounts.GET("", staffOnly, h.Accounts.List)
		accounts.GET("/:id", h.Accounts.Get)
		accounts.PATCH("/:id", h.Accounts.Update)
	}

	teams := protected.Group("/teams")
	{
		teams.POST("", adminOnly, h.Teams.Create)
		teams.GET("", h.Teams.List)
		teams.GET("/:id", h.Teams.Get)
		teams.POST("/:id/members", adminOnly, h.Teams.AddMember)
		teams.DELETE("/:id/members/:accountId", adminOnly, h.Teams.RemoveMember)
		teams.GET("/:id/members", staffOnly, h.Teams.ListMembers)
	}

	subjects := protected.Group("/subjects")
	{
		subjects.POST("", adminOnly, h.Subjects.Create)
		subjects.GET("", h.Subjects.List)
		subjects.GET("/:id", h.Subjects.Get)
		subjects.DELETE("/:id", adminOnly, h.Subjects.Delete)
		subjects.POST("/:id/teachers", adminOnly, h.Subjects.AddTeacher)
		subjects.DELETE("/:id/teachers/:accountId", adminOnly, h.Subjects.RemoveTeacher)
		subjects.GET("/:id/teachers", staffOnly, h.Subjects.ListTeachers)
		subjects.POST("/:id/offers", adminOnly, h.Subjects.Offer)
		subjects.DELETE("/:id/offers/:teamId", adminOnly, h.Subjects.RevokeOffer)
	}

	grades := protected.Group("/grades")
	{
		grades.POST("", teacherWrites, h.Grades.Record)
		grades.PATCH("/:id", teacherWrites, h.Grades.Update)
		grades.GET("", h.Grades.List)
		grades.GET("/evaluation", h.Grades.Evaluate)
	}

	attendance := protected.Group("/attendance")
	{
		attendance.POST("/sessions", teacherWrites, h.Attendance.OpenSession)
		attendance.PUT("/sessions/:id/records", teacherWrites, h.Attendance.SetPresence)
		attendance.GET("/sessions/:id/records", staffOnly, h.Attendance.ListRecords)
		attendance.GET("/absences", h.Attendance.ListAbsences)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.POST("", staffOnly, h.Notifications.Notify)
		notifications.GET("", h.Notifications.List)
		notifications.POST("/:id/read", h.Notifications.MarkRead)
	}

	reports := protected.Group("/reports")
	{
		reports.GET("/students/:studentId", h.Reports.GetReportCard)
		reports.GET("/students/:studentId/csv", h.Reports.ExportCSV)
		reports.GET("/students/:studentId/pdf", h.Reports.ExportPDF)
		reports.POST("/students/:studentId/exports", h.Reports.ArchiveExport)
		reports.DELETE("/students/:studentId/cache", adminOnly, h.Reports.Invalidate)
	}
}
