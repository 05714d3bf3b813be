package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/ecampus-api/internal/access"
	"github.com/noah-isme/ecampus-api/internal/handler"
	"github.com/noah-isme/ecampus-api/internal/middleware"
	"github.com/noah-isme/ecampus-api/internal/models"
	"github.com/noah-isme/ecampus-api/internal/service"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
	"github.com/noah-isme/ecampus-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ecampus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ecampus-api/pkg/middleware/requestid"
	"github.com/noah-isme/ecampus-api/pkg/response"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth         *handler.AuthHandler
	Registration *handler.RegistrationHandler
	Teachers     *handler.TeacherHandler
	Students     *handler.StudentHandler
	Assignments  *handler.AssignmentHandler
	Exams        *handler.ExamHandler
	Notes        *handler.NoteHandler
	Reports      *handler.ReportHandler
	Metrics      *handler.MetricsHandler
}

// Options carries the shared infrastructure routes depend on.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	UploadsDir     string
	EnableDocs     bool
	Tokens         middleware.TokenVerifier
	Metrics        *service.MetricsService
	Audit          middleware.AuditRecorder
	Logger         *zap.Logger
}

// New builds the gin engine with every route of the API.
func New(h Handlers, opts Options) *gin.Engine {
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	r.GET("/metrics/summary", h.Metrics.Summary)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if opts.UploadsDir != "" {
		r.StaticFS("/uploads", gin.Dir(opts.UploadsDir, false))
	}

	api := r.Group(opts.APIPrefix)

	audit := func(action string, resource access.Resource) gin.HandlerFunc {
		return middleware.Audit(opts.Audit, action, string(resource))
	}
	gate := func(resource access.Resource) gin.HandlerFunc {
		return middleware.Authorize(resource, opts.Metrics)
	}

	api.POST("/register", audit(models.AuditActionRegister, access.ResourceRegistration), h.Registration.Register)
	api.POST("/login", h.Auth.Login)
	api.GET("/user-details/:trackId", h.Registration.UserDetails)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Tokens))

	secured.GET("/me", gate(access.ResourceAccount), h.Auth.Me)
	secured.PUT("/create-password", gate(access.ResourceInitialPassword),
		audit(models.AuditActionPasswordCreate, access.ResourceInitialPassword), h.Registration.CreatePassword)
	secured.PUT("/change-password", gate(access.ResourceOwnPassword),
		audit(models.AuditActionPasswordChange, access.ResourceOwnPassword), h.Registration.ChangePassword)
	secured.GET("/pending-requests", gate(access.ResourceRegistration), h.Registration.Pending)
	secured.PUT("/approve-user/:trackId", gate(access.ResourceRegistration),
		audit(models.AuditActionApprove, access.ResourceRegistration), h.Registration.Approve)

	secured.GET("/teachers", gate(access.ResourceTeacher), h.Teachers.List)

	students := secured.Group("/students")
	{
		students.GET("", gate(access.ResourceStudent), h.Students.List)
		students.POST("", gate(access.ResourceStudent),
			audit(models.AuditActionCreate, access.ResourceStudent), h.Students.Create)
		students.GET("/:id", gate(access.ResourceStudent), h.Students.Get)
		students.PUT("/:id", gate(access.ResourceStudent),
			audit(models.AuditActionUpdate, access.ResourceStudent), h.Students.Update)
		students.DELETE("/:id", gate(access.ResourceStudent),
			audit(models.AuditActionDelete, access.ResourceStudent), h.Students.Delete)

		students.PUT("/:id/add-subject", gate(access.ResourceStudentSubject),
			audit(models.AuditActionCreate, access.ResourceStudentSubject), h.Students.AddSubject)
		students.PUT("/:id/update-subject", gate(access.ResourceStudentSubject),
			audit(models.AuditActionUpdate, access.ResourceStudentSubject), h.Students.UpdateSubject)
		students.DELETE("/:id/delete-subject", gate(access.ResourceStudentSubject),
			audit(models.AuditActionDelete, access.ResourceStudentSubject), h.Students.DeleteSubject)

		students.PUT("/:id/add-attendance", gate(access.ResourceAttendance),
			audit(models.AuditActionUpdate, access.ResourceAttendance), h.Students.MarkAttendance)

		students.GET("/:id/report.pdf", gate(access.ResourceReport), h.Reports.ExamReport)
		students.GET("/:id/attendance.csv", gate(access.ResourceReport), h.Reports.AttendanceExport)
	}
	secured.POST("/attendance/bulk-update", gate(access.ResourceAttendance),
		audit(models.AuditActionUpdate, access.ResourceAttendance), h.Students.BulkAttendance)

	assignments := secured.Group("/assignments")
	{
		assignments.GET("", gate(access.ResourceAssignment), h.Assignments.List)
		assignments.POST("", gate(access.ResourceAssignment),
			audit(models.AuditActionCreate, access.ResourceAssignment), h.Assignments.Create)
		assignments.POST("/:id/submit", gate(access.ResourceAssignmentSubmission),
			audit(models.AuditActionCreate, access.ResourceAssignmentSubmission), h.Assignments.Submit)
		assignments.PUT("/:id/grade/:studentId", gate(access.ResourceAssignmentGrade),
			audit(models.AuditActionUpdate, access.ResourceAssignmentGrade), h.Assignments.Grade)
	}

	secured.GET("/examschedule", gate(access.ResourceExamSchedule), h.Exams.ListSchedules)
	secured.POST("/examschedule", gate(access.ResourceExamSchedule),
		audit(models.AuditActionCreate, access.ResourceExamSchedule), h.Exams.CreateSchedule)

	results := secured.Group("/examresults")
	{
		results.GET("", gate(access.ResourceExamResult), h.Exams.ListResults)
		results.POST("", gate(access.ResourceExamResult),
			audit(models.AuditActionCreate, access.ResourceExamResult), h.Exams.CreateResult)
		results.GET("/:id", gate(access.ResourceExamResult), h.Exams.ListResultsByStudent)
		results.PUT("/:id", gate(access.ResourceExamResult),
			audit(models.AuditActionUpdate, access.ResourceExamResult), h.Exams.UpdateResult)
		results.DELETE("/:id", gate(access.ResourceExamResult),
			audit(models.AuditActionDelete, access.ResourceExamResult), h.Exams.DeleteResult)
	}

	secured.GET("/notes", gate(access.ResourceNote), h.Notes.List)
	secured.POST("/notes", gate(access.ResourceNote),
		audit(models.AuditActionCreate, access.ResourceNote), h.Notes.Create)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	return r
}
