package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/saferoute/admin-api/internal/handler"
	"github.com/saferoute/admin-api/internal/middleware"
	"github.com/saferoute/admin-api/internal/models"
	"github.com/saferoute/admin-api/internal/repository"
	"github.com/saferoute/admin-api/internal/service"
	"github.com/saferoute/admin-api/pkg/cache"
	"github.com/saferoute/admin-api/pkg/config"
	"github.com/saferoute/admin-api/pkg/database"
	"github.com/saferoute/admin-api/pkg/logger"
	corsmiddleware "github.com/saferoute/admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/saferoute/admin-api/pkg/middleware/requestid"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The stats cache is an optimization; the API runs without it.
		logr.Sugar().Warnw("redis unavailable, stats caching disabled", "error", err)
		redisClient = nil
	}

	metrics := service.NewMetricsService()

	reportRepo := repository.NewReportRepository(db)
	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	actingAdmin := func(barangay string) string {
		if cfg.Reports.AdminDisplayName != "" {
			return cfg.Reports.AdminDisplayName
		}
		return models.NormalizeBarangay(barangay) + " Barangay Admin"
	}
	resolver := service.NewIdentityResolver(userRepo, adminRepo, service.NewIdentityCache(), actingAdmin, logr)

	enrichment := service.NewEnrichmentService(resolver, metrics, logr)
	views := service.NewViewService(logr)
	enrichment.Subscribe(views)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := repository.NewReportWatcher(database.DSN(cfg.Database), reportRepo, cfg.Reports.PollInterval, logr)
	feed, err := watcher.Watch(ctx)
	if err != nil {
		logr.Sugar().Fatalw("failed to start report watcher", "error", err)
	}
	go enrichment.Run(ctx, feed)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, logr, cfg.Stats.Enabled)
	reportSvc := service.NewReportService(reportRepo, enrichment, cacheSvc, logr)
	statsSvc := service.NewStatsService(reportRepo, cacheSvc, cfg.Stats.CacheTTL, logr)
	exportSvc := service.NewExportService(nil, nil, logr)
	authSvc := service.NewAuthService(cfg.JWT)

	reports := handler.NewReportHandler(views, reportSvc, statsSvc, exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	api.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleBarangayAdmin))
	{
		api.GET("/reports", reports.List)
		api.POST("/reports", reports.Create)
		api.GET("/reports/stats", reports.Stats)
		api.GET("/reports/export", reports.Export)
		api.GET("/reports/:id", reports.Get)
		api.PATCH("/reports/:id/status", reports.UpdateStatus)
		api.DELETE("/reports/:id", reports.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
