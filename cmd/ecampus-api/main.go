package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/ecampus-api/api/swagger"
	"github.com/noah-isme/ecampus-api/internal/handler"
	"github.com/noah-isme/ecampus-api/internal/repository"
	"github.com/noah-isme/ecampus-api/internal/router"
	"github.com/noah-isme/ecampus-api/internal/service"
	"github.com/noah-isme/ecampus-api/pkg/cache"
	"github.com/noah-isme/ecampus-api/pkg/config"
	"github.com/noah-isme/ecampus-api/pkg/database"
	"github.com/noah-isme/ecampus-api/pkg/jobs"
	"github.com/noah-isme/ecampus-api/pkg/logger"
	"github.com/noah-isme/ecampus-api/pkg/storage"
)

// @title E-Campus API
// @version 1.0.0
// @description School management backend: registration approval, students, attendance, assignments, exams and notes.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Sugar().Fatalw("schema migration failed", "error", err)
		}
	}

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	store, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Sugar().Fatalw("upload storage unavailable", "error", err)
	}

	validate := validator.New()

	accounts := repository.NewAccountRepository(db)
	students := repository.NewStudentRepository(db)
	subjects := repository.NewStudentSubjectRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	exams := repository.NewExamRepository(db)
	notes := repository.NewNoteRepository(db)

	tokens := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})

	auditSvc := service.NewAuditService(repository.NewAuditRepository(db), metrics, logr)
	auditQueue := jobs.NewQueue("audit", auditSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logr,
	})
	auditQueue.Start(context.Background())
	auditSvc.UseQueue(auditQueue)

	profiles := service.NewProfileResolver(accounts, students)
	approvalSvc := service.NewApprovalService(accounts, tokens, metrics, validate, logr, cfg.Password.BcryptCost)
	authSvc := service.NewAuthService(accounts, tokens, metrics, validate, logr)
	teacherSvc := service.NewTeacherService(accounts, cacheSvc, logr)
	studentSvc := service.NewStudentService(students, subjects, attendance, store, cacheSvc, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignments, profiles, validate, logr)
	examSvc := service.NewExamService(exams, profiles, validate, logr)
	noteSvc := service.NewNoteService(notes, validate, logr)
	reportSvc := service.NewReportService(students, exams, attendance, logr)

	uploads := handler.NewUploader(store, cfg.Uploads.MaxFileSizeBytes, logr)

	engine := router.New(router.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Registration: handler.NewRegistrationHandler(approvalSvc, teacherSvc),
		Teachers:     handler.NewTeacherHandler(teacherSvc),
		Students:     handler.NewStudentHandler(studentSvc, uploads),
		Assignments:  handler.NewAssignmentHandler(assignmentSvc, uploads),
		Exams:        handler.NewExamHandler(examSvc, uploads),
		Notes:        handler.NewNoteHandler(noteSvc, uploads),
		Reports:      handler.NewReportHandler(reportSvc),
		Metrics:      handler.NewMetricsHandler(metrics, db),
	}, router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		UploadsDir:     store.Dir(),
		EnableDocs:     cfg.Env != config.EnvProduction,
		Tokens:         tokens,
		Metrics:        metrics,
		Audit:          auditSvc,
		Logger:         logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	auditQueue.Stop()
}
