package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"jobtrack-backend/internal/allocations"
	"jobtrack-backend/internal/attachments"
	"jobtrack-backend/internal/audit"
	"jobtrack-backend/internal/customers"
	"jobtrack-backend/internal/jobs"
	"jobtrack-backend/internal/queue"
	"jobtrack-backend/internal/shared/config"
	"jobtrack-backend/internal/shared/server"
	"jobtrack-backend/internal/shared/storage/db"
	"jobtrack-backend/internal/shared/storage/object"
	localstore "jobtrack-backend/internal/shared/storage/object/local"
	s3store "jobtrack-backend/internal/shared/storage/object/s3"
	"jobtrack-backend/internal/summarize"
	"jobtrack-backend/internal/summarize/openai"
	"jobtrack-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	JobsRepo        jobs.Repo
	AllocationsRepo allocations.Repo
	AttachmentsRepo attachments.Repo
	UsersRepo       users.Repo
	CustomersRepo   customers.Repo
	AuditRepo       audit.Repo

	Audit              *audit.Recorder
	JobsService        *jobs.Service
	AllocationsService *allocations.Service
	AttachmentsService *attachments.Service
	UsersService       *users.Service
	CustomersService   *customers.Service

	JobsHandler        *jobs.Handler
	AllocationsHandler *allocations.Handler
	AttachmentsHandler *attachments.Handler
	UsersHandler       *users.Handler
	CustomersHandler   *customers.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		JobsHandler:       app.JobsHandler,
		AllocationHandler: app.AllocationsHandler,
		AttachmentHandler: app.AttachmentsHandler,
		UsersHandler:      app.UsersHandler,
		CustomersHandler:  app.CustomersHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.SweepQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.SweepQueueURL)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var (
		jobsRepo        jobs.Repo
		allocationsRepo allocations.Repo
		attachmentsRepo attachments.Repo
		usersRepo       users.Repo
		customersRepo   customers.Repo
		auditRepo       audit.Repo
	)

	if app.DB != nil {
		jobsRepo = &jobs.PGRepo{DB: app.DB}
		allocationsRepo = &allocations.PGRepo{DB: app.DB}
		attachmentsRepo = &attachments.PGRepo{DB: app.DB}
		usersRepo = &users.PGRepo{DB: app.DB}
		customersRepo = &customers.PGRepo{DB: app.DB}
		auditRepo = &audit.PGRepo{DB: app.DB}
	} else {
		memJobs := jobs.NewMemoryRepo()
		memAllocations := allocations.NewMemoryRepo()
		memAllocations.JobStatus = func(ctx context.Context, systemID string) (jobs.Status, error) {
			job, err := memJobs.GetBySystemID(ctx, systemID)
			if err != nil {
				return "", err
			}
			return job.Status, nil
		}
		jobsRepo = memJobs
		allocationsRepo = memAllocations
		attachmentsRepo = attachments.NewMemoryRepo()
		usersRepo = users.NewMemoryRepo()
		customersRepo = customers.NewMemoryRepo()
		auditRepo = audit.NewMemoryRepo()
	}

	recorder := audit.NewRecorder(auditRepo)
	usersSvc := users.NewService(usersRepo)
	customersSvc := customers.NewService(customersRepo, recorder)
	attachmentsSvc := attachments.NewService(app.Store, attachmentsRepo)

	summarizer := summarize.Client(summarize.PlaceholderClient{})
	if app.Config.SummarizerKind == "openai" {
		client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.SummarizerModel)
		if err != nil {
			return err
		}
		summarizer = client
	}

	jobsSvc := &jobs.Service{
		Repo:       jobsRepo,
		Sysid:      jobs.NewGenerator(jobsRepo),
		Audit:      recorder,
		Summarizer: summarizer,
		Texts:      attachmentsSvc,
		Model:      app.Config.SummarizerModel,
	}

	allocationsSvc := allocations.NewService(allocationsRepo, jobsRepo, recorder)
	allocationsSvc.Users = usersSvc
	allocationsSvc.Queue = app.Queue

	app.JobsRepo = jobsRepo
	app.AllocationsRepo = allocationsRepo
	app.AttachmentsRepo = attachmentsRepo
	app.UsersRepo = usersRepo
	app.CustomersRepo = customersRepo
	app.AuditRepo = auditRepo
	app.Audit = recorder
	app.JobsService = jobsSvc
	app.AllocationsService = allocationsSvc
	app.AttachmentsService = attachmentsSvc
	app.UsersService = usersSvc
	app.CustomersService = customersSvc
	app.JobsHandler = jobs.NewHandler(jobsSvc)
	app.AllocationsHandler = allocations.NewHandler(allocationsSvc)
	app.AttachmentsHandler = attachments.NewHandler(attachmentsSvc)
	app.UsersHandler = users.NewHandler(usersSvc)
	app.CustomersHandler = customers.NewHandler(customersSvc)

	return nil
}
