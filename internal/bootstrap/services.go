// Package bootstrap wires repositories and services from configuration. The
// API server and resultctl share it.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/result-ledger-api/internal/repository"
	"github.com/noah-isme/result-ledger-api/internal/service"
	"github.com/noah-isme/result-ledger-api/pkg/config"
	"github.com/noah-isme/result-ledger-api/pkg/export"
	"github.com/noah-isme/result-ledger-api/pkg/jobs"
	"github.com/noah-isme/result-ledger-api/pkg/storage"
)

// Services is the wired service graph. Reports, Export and Queue are nil when
// exports are disabled.
type Services struct {
	Users       *repository.UserRepository
	Metrics     *service.MetricsService
	Cache       *service.CacheService
	Auth        *service.AuthService
	Accounts    *service.UserService
	Schools     *service.SchoolService
	Students    *service.StudentService
	Subjects    *service.SubjectService
	Assignments *service.AssignmentService
	Marks       *service.MarkService
	Grades      *service.GradeService
	Ledgers     *service.LedgerService
	Export      *service.ExportService
	Reports     *service.ReportService
	Queue       *jobs.Queue
}

// New builds every service on top of db. redisClient may be nil, which
// disables the grade cache.
func New(cfg *config.Config, db *sqlx.DB, redisClient redis.UniversalClient, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cache := service.NewCacheService(cacheRepo, metrics, cfg.Grades.CacheTTL, logger.Named("cache"), cfg.Grades.CacheEnabled)

	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	markRepo := repository.NewMarkRepository(db)

	loader := service.NewResultLoader(studentRepo, subjectRepo, assignmentRepo, markRepo)
	grades := service.NewGradeService(loader, schoolRepo, cache, metrics, validate, logger.Named("grades"))
	ledgers := service.NewLedgerService(loader, cache, metrics, validate, logger.Named("ledgers"))

	s := &Services{
		Users:   userRepo,
		Metrics: metrics,
		Cache:   cache,
		Auth: service.NewAuthService(userRepo, validate, logger.Named("auth"), service.AuthConfig{
			AccessTokenSecret:  cfg.JWT.Secret,
			AccessTokenExpiry:  cfg.JWT.Expiration,
			RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
			Issuer:             "result-ledger-api",
		}),
		Accounts:    service.NewUserService(userRepo, schoolRepo, validate, logger.Named("users")),
		Schools:     service.NewSchoolService(schoolRepo, cache, validate, logger.Named("schools")),
		Students:    service.NewStudentService(studentRepo, schoolRepo, userRepo, cache, validate, logger.Named("students")),
		Subjects:    service.NewSubjectService(subjectRepo, cache, validate, logger.Named("subjects")),
		Assignments: service.NewAssignmentService(assignmentRepo, studentRepo, subjectRepo, userRepo, cache, validate, logger.Named("assignments")),
		Marks:       service.NewMarkService(markRepo, studentRepo, subjectRepo, assignmentRepo, userRepo, cache, validate, logger.Named("marks")),
		Grades:      grades,
		Ledgers:     ledgers,
	}

	if !cfg.Reports.Enabled {
		return s, nil
	}

	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init report storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	s.Export = service.NewExportService(ledgers, grades, store, signer, service.ExportConfig{
		APIPrefix:  cfg.APIPrefix,
		ResultTTL:  cfg.Reports.SignedURLTTL,
		SchoolName: cfg.Reports.SchoolName,
	}, logger.Named("export"), export.NewCSVExporter(), export.NewPDFExporter())

	reportRepo := repository.NewReportRepository(db)
	worker := service.NewReportWorker(reportRepo, s.Export, metrics, logger.Named("report_worker"))
	s.Queue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
		OnGiveUp: func(ctx context.Context, job jobs.Job, cause error) {
			worker.GiveUp(ctx, job, cause)
		},
	})
	s.Reports = service.NewReportService(reportRepo, s.Queue, s.Export, validate, logger.Named("reports"), service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupSchedule: cfg.Reports.CleanupSchedule,
	})
	return s, nil
}
