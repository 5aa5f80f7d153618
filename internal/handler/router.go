package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/result-ledger-api/internal/middleware"
	"github.com/noah-isme/result-ledger-api/internal/models"
)

// Handlers bundles the HTTP handlers mounted under the API prefix. Reports may
// be nil when exports are disabled.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Schools     *SchoolHandler
	Students    *StudentHandler
	Subjects    *SubjectHandler
	Assignments *AssignmentHandler
	Marks       *MarkHandler
	Grades      *GradeHandler
	Reports     *ReportHandler
}

// RouteMiddleware carries the middleware shared by protected routes.
type RouteMiddleware struct {
	Auth  gin.HandlerFunc
	Audit func(action, resource string) gin.HandlerFunc
}

// RegisterRoutes mounts every API route on api.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, mw RouteMiddleware) {
	audit := mw.Audit
	if audit == nil {
		audit = func(string, string) gin.HandlerFunc { return func(c *gin.Context) { c.Next() } }
	}
	superadmin := middleware.RequireRoles(models.RoleSuperAdmin)
	adminPlus := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	markEntry := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	if h.Reports != nil {
		api.GET("/export/:token", h.Reports.DownloadReport)
	}

	protected := api.Group("")
	protected.Use(mw.Auth)

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/auth/me", h.Auth.Me)
	protected.POST("/auth/change-password", h.Auth.ChangePassword)

	users := protected.Group("/users", superadmin)
	users.GET("", h.Users.List)
	users.POST("", h.Users.Create)
	users.GET("/:id", h.Users.Get)
	users.PUT("/:id/active", h.Users.SetActive)

	protected.GET("/schools", h.Schools.List)
	protected.POST("/schools", superadmin, h.Schools.Create)
	protected.GET("/schools/:id", superadmin, h.Schools.Get)
	protected.PUT("/schools/:id", superadmin, h.Schools.Update)
	protected.DELETE("/schools/:id", superadmin, h.Schools.Delete)

	protected.GET("/students", adminPlus, h.Students.List)
	protected.POST("/students", adminPlus, h.Students.Create)
	protected.GET("/students/:id", adminPlus, h.Students.Get)
	protected.PUT("/students/:id", adminPlus, h.Students.Update)
	protected.DELETE("/students/:id", adminPlus, h.Students.Delete)
	protected.PUT("/students/:id/absent", markEntry, h.Students.SetAbsent)

	protected.GET("/students/:id/assignments", adminPlus, h.Assignments.Get)
	protected.PUT("/students/:id/assignments", adminPlus, audit("ASSIGNMENT_REPLACE", "student"), h.Assignments.Replace)
	protected.POST("/subjects/:id/assignments", adminPlus, audit("ASSIGNMENT_BULK", "subject"), h.Assignments.AssignSubject)

	protected.GET("/students/:id/marks", markEntry, h.Marks.StudentMarks)
	protected.PUT("/students/:id/marks", markEntry, audit("MARKS_WRITE", "student"), h.Marks.Upsert)
	protected.DELETE("/students/:id/marks/:subjectId", markEntry, audit("MARKS_DELETE", "student"), h.Marks.Delete)
	protected.POST("/marks/bulk", markEntry, audit("MARKS_BULK", "marks"), h.Marks.Bulk)

	protected.GET("/subjects", h.Subjects.List)
	protected.POST("/subjects", adminPlus, h.Subjects.Create)
	protected.GET("/subjects/:id", adminPlus, h.Subjects.Get)
	protected.PUT("/subjects/:id", adminPlus, h.Subjects.Update)
	protected.DELETE("/subjects/:id", adminPlus, h.Subjects.Delete)

	protected.GET("/grades", h.Grades.Grades)
	protected.GET("/students/:id/grades", h.Grades.StudentGrades)
	protected.GET("/ledgers/marks", h.Grades.MarkLedger)
	protected.GET("/ledgers/grades", h.Grades.GradeLedger)

	if h.Reports != nil {
		protected.POST("/reports/generate", h.Reports.GenerateReport)
		protected.GET("/reports/status/:id", h.Reports.ReportStatus)
	}
}
