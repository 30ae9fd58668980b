package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devspace/skills-analyzer/cache"
	"github.com/devspace/skills-analyzer/config"
	"github.com/devspace/skills-analyzer/controller"
	"github.com/devspace/skills-analyzer/limiter"
	"github.com/devspace/skills-analyzer/logger"
	"github.com/devspace/skills-analyzer/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v66/github"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// anonymous github API ceiling, used when the startup probe fails
const fallbackGithubRateLimit = 60

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("unable to load configuration. using defaults")
		cfg = config.GetDefault()
	}

	// configure logger
	logger.Setup(*cfg)

	// setup github client
	// we do here and pass the client to Github service to easily improve tests with mock client
	githubClient := github.NewClient(nil)

	if cfg.Github.Token != "" {
		log.Debug("will setup github client with authorization token")
		githubClient = githubClient.WithAuthToken(cfg.Github.Token)
	}

	// setup upstream rate limiter
	// execute first request to github to fetch current rate limits
	// if the probe fails we fall back to the anonymous ceiling instead of refusing to start
	log.Debug("loading current rate limit from github")

	githubLimit := fallbackGithubRateLimit
	githubRemaining := fallbackGithubRateLimit

	rateLimits, _, err := githubClient.RateLimit.Get(context.Background())
	if err != nil {
		log.WithError(err).Warn("unable to load current github rate limits. using anonymous ceiling")
	} else {
		githubLimit = rateLimits.Core.Limit
		githubRemaining = rateLimits.Core.Remaining
	}

	log.WithFields(log.Fields{
		"totalAvailable":    githubLimit,
		"remainingRequests": githubRemaining,
	}).Debug("will setup upstream rate limiter with rate limits infos from github")

	// consume X tokens according to the number of remaining tokens
	// this help us to have a right rate limiter even if external requests are made
	githubRateLimiter := rate.NewLimiter(rate.Every(time.Hour), githubLimit)

	if used := githubLimit - githubRemaining; used > 0 && !githubRateLimiter.AllowN(time.Now(), used) {
		log.Warn("unable to align the upstream rate limiter with github remaining quota")
	}

	// setup the cache store: sqlite when a path is configured, memory otherwise
	var cacheStore cache.Store = cache.NewMemoryStore()

	if cfg.Cache.SqlitePath != "" {
		sqliteStore, err := cache.NewSQLiteStore(cfg.Cache.SqlitePath)
		if err != nil {
			log.WithError(err).Panic("unable to open the sqlite cache store")
		}
		defer sqliteStore.Close()

		cacheStore = sqliteStore
	}

	// setup per-caller rate limiter, handlers and services
	callerRateLimiter := limiter.NewFixedWindow(cfg.RateLimit.RequestsPerWindow, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	githubService := service.NewGithubService(*cfg, githubClient, githubRateLimiter)
	analysisService := service.NewAnalysisService(*cfg, githubService, cacheStore, callerRateLimiter)
	apiController := controller.NewAPIController(*cfg, analysisService)

	// setup server and define all routes
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	server := &http.Server{
		Addr:    ":" + cfg.API.ListenPort,
		Handler: router,
	}

	router.Use(
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"POST", "OPTIONS"},
			AllowHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
			MaxAge:       12 * time.Hour,
		}),
	)

	api := router.Group("")
	{
		api.POST("/analyze", apiController.AnalyzeSkills)
	}

	// start with configuration
	go func() {
		log.Info("server listening on port " + cfg.API.ListenPort)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("error while starting server")
		}

	}()

	// create context with 15 seconds timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// wait for interrupt signal to gracefully shut down the server with a timeout of 15 seconds.
	// kill default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("SIGINT, SIGTERM received, will shut down server ...")

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	} else {
		log.Info("Application stopped gracefully !")
	}
}
