package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/applicants"
	googleauth "recruit-backend/internal/auth"
	"recruit-backend/internal/notify"
	"recruit-backend/internal/promo"
	"recruit-backend/internal/resumes"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/server"
	"recruit-backend/internal/shared/storage/db"
	"recruit-backend/internal/shared/storage/object"
	localstore "recruit-backend/internal/shared/storage/object/local"
	s3store "recruit-backend/internal/shared/storage/object/s3"
)

// filesPath is where the router serves the local object store.
const filesPath = "/api/v1/files"

// App holds shared dependencies and the assembled router.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Dialect          db.Dialect
	Store            object.ObjectStore
	Publisher        notify.Publisher
	Catalog          config.Catalog
	ApplicantsRepo   applicants.Repo
	ApplicantService *applicants.Service
	Board            *applicants.Board
	Uploader         *resumes.Uploader
	PromoService     *promo.Service
	ApplicantHandler *applicants.Handler
	PromoHandler     *promo.Handler
	GoogleAuth       *googleauth.GoogleService
}

// Build prepares dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if strings.TrimSpace(cfg.PublicBaseURL) == "" {
		cfg.PublicBaseURL = "http://localhost:8080"
	}
	ctx := context.Background()

	cat, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}

	sqlDB, dialect, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := buildPublisher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Dialect:   dialect,
		Store:     store,
		Publisher: publisher,
		Catalog:   cat,
	}
	buildServices(app)

	deps := server.RouterDeps{
		Config:           cfg,
		ApplicantHandler: app.ApplicantHandler,
		PromoHandler:     app.PromoHandler,
		GoogleAuth:       app.GoogleAuth,
	}
	if _, ok := store.(*localstore.Store); ok {
		deps.Files = store
	}
	app.Router = server.NewRouter(deps)

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, db.Dialect, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("DATABASE_URL is required")
	}

	dialect := db.DialectFor(cfg.DatabaseURL)
	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB, dialect)
	}
	if err != nil {
		if sqlDB != nil && !db.IsLambdaRuntime() {
			sqlDB.Close()
		}
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database unavailable; using in-memory repositories: %v", err)
			return nil, "", nil
		}
		return nil, "", err
	}

	return sqlDB, dialect, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			KMSKeyID:        cfg.SSEKMSKeyID,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
		})
	default:
		baseURL := strings.TrimRight(cfg.PublicBaseURL, "/") + filesPath
		return localstore.New(cfg.LocalStoreDir, baseURL), nil
	}
}

func buildPublisher(ctx context.Context, cfg config.Config) (notify.Publisher, error) {
	if strings.TrimSpace(cfg.NotifyQueueURL) == "" {
		return notify.Noop{}, nil
	}
	return notify.NewSQSPublisher(ctx, cfg.NotifyQueueURL, cfg.AWSRegion)
}

func buildServices(app *App) {
	var repo applicants.Repo
	if app.DB != nil {
		repo = applicants.NewSQLRepo(app.DB, app.Dialect)
	} else {
		repo = applicants.NewMemoryRepo()
	}

	uploader := resumes.NewUploader(app.Store)
	svc := &applicants.Service{
		Repo:      repo,
		Uploader:  uploader,
		Publisher: app.Publisher,
	}
	board := applicants.NewBoard(repo, app.Publisher)

	cfg := app.Config
	promoSvc := promo.NewService(
		promo.NewQRClient(cfg.QRServiceURL, nil),
		promo.DisabledGenerator{},
		app.Catalog,
		cfg.FormURL(),
	)

	app.ApplicantsRepo = repo
	app.Uploader = uploader
	app.ApplicantService = svc
	app.Board = board
	app.PromoService = promoSvc
	app.ApplicantHandler = applicants.NewHandler(svc, board, uploader, app.Catalog)
	app.PromoHandler = promo.NewHandler(promoSvc)
	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleSecret,
		cfg.GoogleRedirect,
		cfg.UIRedirectURL,
		cfg.AdminEmails,
	)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
