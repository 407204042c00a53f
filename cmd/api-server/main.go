package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storeadmin/internal/auth"
	"storeadmin/internal/catalog"
	"storeadmin/internal/comments"
	"storeadmin/internal/grpcserver"
	"storeadmin/internal/notices"
	"storeadmin/internal/selection"
	"storeadmin/internal/sites"
	synchub "storeadmin/internal/sync"
	"storeadmin/pkg/database"
	"storeadmin/pkg/utils"
)

func main() {
	configPath := flag.String("config", os.Getenv("STOREADMIN_CONFIG"), "YAML config file (optional)")
	flag.Parse()

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *configPath, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("servers stopped")
}

func run(cfg utils.Config, configPath string, logger *zap.Logger) error {
	db, err := database.OpenAndMigrate(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.GinLogger(logger), utils.GinRecovery(logger))
	if err := router.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	hub := synchub.NewHub(logger)
	defer hub.Close()
	router.GET("/ws", synchub.WSHandler(hub))

	var tcpSrv *synchub.Server
	if cfg.Sync.FeedAddr != "" {
		tcpSrv = synchub.NewServer(cfg.Sync.FeedAddr, hub, logger)
		// bind early so address errors surface before HTTP starts
		if err := tcpSrv.Listen(); err != nil {
			return fmt.Errorf("tcp feed: %w", err)
		}
	}

	var healthSrv *grpcserver.Server
	if cfg.Sync.GRPCAddr != "" {
		var feed grpcserver.FeedListener
		if tcpSrv != nil {
			feed = tcpSrv
		}
		healthSrv = grpcserver.NewServer(cfg.Sync.GRPCAddr, db, hub, feed, logger)
		if err := healthSrv.Listen(); err != nil {
			return fmt.Errorf("grpc health: %w", err)
		}
	}

	productRepo := catalog.NewRepo(db)
	fetcher := catalog.NewFetcher(productRepo, cfg.Catalog.CacheTTL, logger)
	defer fetcher.Close()

	registry := selection.NewRegistry(selection.Options{
		TTL:      cfg.Selection.SessionTTL,
		Currency: cfg.Catalog.Currency,
		Fetcher:  fetcher,
		Pub:      hub,
		Logger:   logger,
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Database.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("readiness ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db":          "unreachable",
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	analytics := comments.NewLogAnalytics(logger)
	features := utils.NewFeatureSet(cfg.Features)

	router.GET("/debug", func(c *gin.Context) {
		stats := hub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"db":          cfg.Database.Path,
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
			"searches":    registry.Len(),
			"stats":       analytics.Stats(),
			"features":    features.Snapshot(),
		})
	})

	tokens := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}
	store := notices.NewStore()
	router.Use(auth.Identify(tokens), comments.ClearNotices(store))

	// Catalog (public)
	catalogHandler := catalog.NewHandler(productRepo, fetcher, logger)
	catalogHandler.RegisterRoutes(router.Group("/sites/:site_id/products"))

	// Selection sessions (public)
	selection.NewHandler(registry, productRepo, logger).RegisterRoutes(router.Group("/searches"))

	// Auth
	authRepo := auth.NewRepo(db)
	auth.NewHandler(authRepo, tokens).RegisterRoutes(router.Group("/auth"))

	// Comment moderation (protected)
	protected := router.Group("")
	protected.Use(auth.AuthMiddleware(tokens))
	catalogHandler.RegisterAdminRoutes(protected.Group("/sites/:site_id/products"))
	comments.NewController(
		comments.NewRepo(db),
		sites.NewRepo(db),
		store,
		analytics,
		features,
		logger,
	).RegisterRoutes(protected)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		registry.Run(gctx)
		return nil
	})

	if configPath != "" {
		g.Go(func() error {
			err := utils.WatchConfig(gctx, configPath, logger, func(next utils.Config) {
				features.Set(next.Features)
			})
			if err != nil {
				// flags stay as loaded at startup
				logger.Warn("config watch disabled", zap.Error(err))
			}
			return nil
		})
	}

	if tcpSrv != nil {
		g.Go(func() error {
			return tcpSrv.Serve(gctx)
		})
	}

	if healthSrv != nil {
		g.Go(func() error {
			return healthSrv.Serve(gctx)
		})
	}

	g.Go(func() error {
		logger.Info("HTTP API server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
