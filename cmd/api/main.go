package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/bryanwahyu/finsight/internal/application"
	appanalyses "github.com/bryanwahyu/finsight/internal/application/analyses"
	appstatements "github.com/bryanwahyu/finsight/internal/application/statements"
	"github.com/bryanwahyu/finsight/internal/config"
	"github.com/bryanwahyu/finsight/internal/domain/analyses"
	"github.com/bryanwahyu/finsight/internal/domain/ingesterrors"
	"github.com/bryanwahyu/finsight/internal/domain/statements"
	aiopenai "github.com/bryanwahyu/finsight/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/finsight/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/finsight/internal/infra/db/postgres"
	"github.com/bryanwahyu/finsight/internal/infra/extract"
	"github.com/bryanwahyu/finsight/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/finsight/internal/infra/storage"
	"github.com/bryanwahyu/finsight/internal/middleware"
)

func main() {
	// .env opsional, buat OPENAI_API_KEY dkk di development
	_ = godotenv.Load()

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database sesuai driver
	var (
		db           *sql.DB
		stmtRepo     statements.Repository
		analysisRepo analyses.Repository
		errorRepo    ingesterrors.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		stmtRepo = postgresp.NewStatementRepository(db)
		analysisRepo = postgresp.NewAnalysisRepository(db)
		errorRepo = postgresp.NewIngestErrorRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		stmtRepo = mysqlp.NewStatementRepository(db)
		analysisRepo = mysqlp.NewAnalysisRepository(db)
		errorRepo = mysqlp.NewIngestErrorRepository(db)
	}
	defer db.Close()

	// init minio kalau endpoint diisi
	var fileStore statements.FileStore
	health := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		fileStore = store
		health["object_store"] = middleware.CheckerFunc(store.Check)
	}

	clock := application.SystemClock{}

	// init services
	stmtSvc := &appstatements.Service{
		Repo:   stmtRepo,
		Errors: errorRepo,
		Files:  fileStore,
		PDF:    extract.NewPDF(),
		CSV:    extract.NewCSV(),
		Clock:  clock,
	}
	analysisSvc := &appanalyses.Service{
		Statements: stmtRepo,
		Repo:       analysisRepo,
		Errors:     errorRepo,
		AI:         aiopenai.NewClient(cfg.AI.APIKey, cfg.AI.Model),
		Model:      cfg.AI.Model,
		Timeout:    time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		Clock:      clock,
	}

	// rate limiter khusus endpoint analisis
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Capacity > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	}

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(stmtSvc, analysisSvc, httpserver.Options{
		MaxUploadMB:    cfg.Upload.MaxMB,
		CORSOrigins:    cfg.CORS.Origins,
		AnalyzeLimiter: limiter,
		Health:         health,
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // panggilan AI bisa lama
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
