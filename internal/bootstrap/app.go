package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/convert"
	"resume-feedback/internal/files"
	"resume-feedback/internal/kv"
	"resume-feedback/internal/llm"
	"resume-feedback/internal/llm/anthropic"
	openai "resume-feedback/internal/llm/openai"
	"resume-feedback/internal/resumes"
	"resume-feedback/internal/shared/config"
	"resume-feedback/internal/shared/server"
	"resume-feedback/internal/shared/storage/db"
	"resume-feedback/internal/shared/storage/object"
	localstore "resume-feedback/internal/shared/storage/object/local"
	s3store "resume-feedback/internal/shared/storage/object/s3"
	"resume-feedback/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config        config.Config
	Router        *gin.Engine
	DB            *sql.DB
	Store         object.ObjectStore
	KV            kv.Store
	LLM           llm.Client
	Files         *files.Service
	Converter     *convert.Renderer
	Workflow      *resumes.Workflow
	ResumeHandler *resumes.Handler
}

// Build prepares every collaborator and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	telemetry.Setup(cfg.LogFormat)
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg, store)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		KV:        buildKV(sqlDB),
		LLM:       llmClient,
		Files:     files.NewService(store),
		Converter: convert.NewRenderer(cfg.RenderScale),
	}
	app.Workflow = resumes.NewWorkflow(app.Files, app.Converter, app.KV, app.LLM)
	app.ResumeHandler = resumes.NewHandler(app.Workflow, app.KV)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:   app.Config,
		Handlers: []server.RouteRegistrar{app.ResumeHandler},
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"object_store": cfg.ObjectStoreType,
		"kv":           kvKind(sqlDB),
		"llm_provider": cfg.LLMProvider,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory key-value store")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.Shared(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory key-value store: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			log.Printf("bootstrap: migrations failed; using in-memory key-value store: %v", err)
			return nil, nil
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildKV(sqlDB *sql.DB) kv.Store {
	if sqlDB != nil {
		return &kv.PGStore{DB: sqlDB}
	}
	return kv.NewMemoryStore()
}

func buildLLM(cfg config.Config, store object.ObjectStore) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "anthropic":
		return anthropic.NewClient(cfg.AnthropicAPIKey, cfg.LLMModel, store)
	case "openai":
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, store)
		if err != nil && isDevLike(cfg.Env) {
			log.Printf("bootstrap: openai unavailable; feedback requests will fail: %v", err)
			return llm.PlaceholderClient{}, nil
		}
		return client, err
	default:
		return llm.PlaceholderClient{}, nil
	}
}

func kvKind(sqlDB *sql.DB) string {
	if sqlDB != nil {
		return "postgres"
	}
	return "memory"
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
