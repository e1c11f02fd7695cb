package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/farizanjum/newsdigest/internal/api"
	"github.com/farizanjum/newsdigest/internal/config"
	"github.com/farizanjum/newsdigest/internal/digest"
	"github.com/farizanjum/newsdigest/internal/llm"
	"github.com/farizanjum/newsdigest/internal/logging"
	"github.com/farizanjum/newsdigest/internal/mailer"
	"github.com/farizanjum/newsdigest/internal/scheduler"
	"github.com/farizanjum/newsdigest/internal/service"
	"github.com/farizanjum/newsdigest/internal/sources"
	"github.com/farizanjum/newsdigest/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	db, err := sql.Open("postgres", cfg.PostgresURL())
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	// simple ping + wait (db might be starting in docker)
	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		logger.Warn("waiting for db", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatalf("could not connect to db: %v", err)
	}

	if err := store.RunMigrations(db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping failed, caching and rate limiting degraded", "error", err)
	}

	repo := store.NewPgStore(db)

	mail := mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password,
		cfg.SMTP.From, cfg.BaseURL, cfg.UnsubscribeSecret, repo, logger.With("component", "mailer"))

	srcLogger := logger.With("component", "sources")
	var upscSources []sources.Source
	if cfg.News.NewsAPIKey != "" {
		upscSources = append(upscSources, sources.NewNewsAPI(cfg.News.NewsAPIKey, srcLogger))
	}
	if cfg.News.NewsAPIAIKey != "" {
		upscSources = append(upscSources, sources.NewNewsAPIAI(cfg.News.NewsAPIAIKey, srcLogger))
	}
	if cfg.News.WorldNewsKey != "" {
		upscSources = append(upscSources, sources.NewWorldNews(cfg.News.WorldNewsKey, srcLogger))
	}
	if cfg.News.NYTKey != "" {
		upscSources = append(upscSources, sources.NewNYT(cfg.News.NYTKey, srcLogger))
	}
	upscFetcher := sources.NewFetcher(srcLogger, upscSources...)

	techSources := []sources.Source{
		sources.NewRSS(nil, srcLogger),
		sources.NewAINews(srcLogger),
	}
	if cfg.News.NewsAPIKey != "" {
		techSources = append(techSources, sources.NewNewsAPITech(cfg.News.NewsAPIKey, srcLogger))
	}
	techFetcher := sources.NewFetcher(srcLogger, techSources...)

	renderer := digest.NewRenderer(cfg.TemplatePath, cfg.BaseURL, logger.With("component", "renderer"))
	llmClient := llm.NewClient(cfg.LLM.URL, cfg.LLM.Model, cfg.LLM.APIKey, logger.With("component", "llm"))

	svc := service.NewService(repo, mail, upscFetcher, techFetcher, renderer, llmClient, rdb,
		logger.With("component", "service"))

	sched := scheduler.New(repo, svc, mail, renderer, cfg.Location(), logger.With("component", "scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	defer sched.Stop()

	handler := api.NewHandler(svc, repo, sched, logger.With("component", "api"))

	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger.With("component", "http")))
	api.RegisterRoutes(router, handler, cfg.AdminAPIKey, rdb, logger.With("component", "api"))

	logger.Info("listening", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
