package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/easyweb3tools/polymarket-relations/internal/client/catalog"
	"github.com/easyweb3tools/polymarket-relations/internal/config"
	"github.com/easyweb3tools/polymarket-relations/internal/evaluator"
	"github.com/easyweb3tools/polymarket-relations/internal/finder"
	"github.com/easyweb3tools/polymarket-relations/internal/llm"
	"github.com/easyweb3tools/polymarket-relations/internal/logger"
	"github.com/easyweb3tools/polymarket-relations/internal/planner"
	"github.com/easyweb3tools/polymarket-relations/internal/pricing"
	"github.com/easyweb3tools/polymarket-relations/internal/server"

	_ "github.com/easyweb3tools/polymarket-relations/docs"
)

// @title           Polymarket Relations API
// @version         1.0.0
// @description     Dependency discovery, compact pricing, and rooted-graph evaluation for Polymarket markets.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
func main() {
	cfgPath := os.Getenv("PMR_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PMR_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	catalogHTTP := &http.Client{Timeout: cfg.Catalog.Timeout}
	catalogClient := catalog.New(catalogHTTP, cfg.Catalog.BaseURL)

	llmClient := llm.New(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})

	planr := planner.New(llmClient)
	find := finder.New(catalogClient, planr, llmClient)
	pricingEngine := pricing.New()
	graphEvaluator := evaluator.New()
	rateLimiter := server.NewRateLimiter(cfg.RateLimit)

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	infraHandler := &server.InfraHandler{LLMAPIKeyPresent: cfg.LLM.APIKey != ""}
	infraHandler.Register(engine)

	pricingHandler := &server.PricingHandler{Engine: pricingEngine, Config: cfg.Pricing}
	pricingHandler.Register(engine)

	graphHandler := &server.GraphHandler{Evaluator: graphEvaluator}
	graphHandler.Register(engine)

	dependenciesHandler := &server.DependenciesHandler{
		Catalog:       catalogClient,
		Finder:        find,
		Pricing:       pricingEngine,
		FinderConfig:  cfg.Finder,
		PricingConfig: cfg.Pricing,
	}
	dependenciesHandler.Register(engine, rateLimiter)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
