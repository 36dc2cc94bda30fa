package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/dataeng/api/audit"
	"github.com/dev-mohitbeniwal/dataeng/api/config"
	"github.com/dev-mohitbeniwal/dataeng/api/controller"
	"github.com/dev-mohitbeniwal/dataeng/api/dao"
	"github.com/dev-mohitbeniwal/dataeng/api/db"
	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
	"github.com/dev-mohitbeniwal/dataeng/api/router"
	"github.com/dev-mohitbeniwal/dataeng/api/security"
	"github.com/dev-mohitbeniwal/dataeng/api/service"
	"github.com/dev-mohitbeniwal/dataeng/api/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	cfg := config.GetConfig()

	// Initialize logger
	logger.InitLogger(cfg.Log.Dir)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Durable principal store
	store, closeStore := openPrincipalStore(ctx, cfg.Database, cfg.Neo4j)
	defer closeStore()

	// Redis principal cache; failures here only disable caching
	cacheStore := db.NewCacheStore(db.CacheConfig{
		Enabled: cfg.Cache.Enabled,
		URL:     cfg.Cache.URL,
		Timeout: cfg.Cache.Timeout,
	})
	defer cacheStore.Close()
	cacheStore.Connect(ctx)
	principalCache := util.NewPrincipalCache(cacheStore, cfg.Cache.TTL())

	verifier, err := security.NewCredentialVerifier(cfg.Auth.SecretKey, cfg.Auth.TokenTTL())
	if err != nil {
		logger.Fatal("Failed to initialize credential verifier", zap.Error(err))
	}

	// Initialize EventBus
	eventBus := util.NewEventBus()
	eventBus.Start(ctx)

	// Audit trail
	var auditRepository audit.Repository
	if cfg.Elasticsearch.URL != "" {
		esRepository, err := audit.NewElasticsearchRepository(cfg.Elasticsearch.URL)
		if err != nil {
			logger.Fatal("Failed to initialize audit repository", zap.Error(err))
		}
		auditRepository = esRepository
	} else {
		logger.Warn("No elasticsearch url configured, audit entries are discarded")
	}
	auditService := audit.NewService(auditRepository)

	services := service.InitializeServices(
		verifier,
		store,
		principalCache,
		auditService,
		util.NewValidationUtil(),
		util.NewNotificationService(),
		eventBus,
	)
	controllers := controller.InitializeControllers(services, cacheStore)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engine := router.SetupRouter(controllers, services.Auth, cacheStore,
		cfg.RateLimit.Login.Requests, cfg.RateLimit.Login.Window)

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let pending audit writes finish
	eventBus.Wait()
	logger.Info("Server exiting")
}

func openPrincipalStore(ctx context.Context, dbCfg config.DatabaseConfiguration, neo4jCfg config.Neo4jConfiguration) (dao.PrincipalStore, func()) {
	switch dbCfg.Driver {
	case "neo4j":
		driver, err := db.OpenNeo4j(neo4jCfg)
		if err != nil {
			logger.Fatal("Failed to initialize Neo4j", zap.Error(err))
		}
		principalDAO := dao.NewPrincipalNeo4jDAO(driver)
		if err := principalDAO.EnsureUniqueConstraint(ctx); err != nil {
			logger.Fatal("Failed to prepare principal constraints", zap.Error(err))
		}
		return principalDAO, func() { db.CloseNeo4j(driver) }
	case "postgres":
		gdb, err := db.OpenPostgres(dbCfg.URL)
		if err != nil {
			logger.Fatal("Failed to initialize Postgres", zap.Error(err))
		}
		principalDAO := dao.NewPrincipalDAO(gdb)
		if err := principalDAO.EnsureSchema(ctx); err != nil {
			logger.Fatal("Failed to prepare principal schema", zap.Error(err))
		}
		return principalDAO, func() { db.ClosePostgres(gdb) }
	default:
		logger.Fatal("Unsupported database driver", zap.String("driver", dbCfg.Driver))
		return nil, func() {}
	}
}
