package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/law-office-scheduling/internal/config"
	"github.com/iliyamo/law-office-scheduling/internal/database"
	"github.com/iliyamo/law-office-scheduling/internal/handler"
	"github.com/iliyamo/law-office-scheduling/internal/middleware"
	"github.com/iliyamo/law-office-scheduling/internal/queue"
	"github.com/iliyamo/law-office-scheduling/internal/repository"
	"github.com/iliyamo/law-office-scheduling/internal/router"
	"github.com/iliyamo/law-office-scheduling/internal/scheduler"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Redis is optional; a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiter disabled")
	}

	// Repositories.
	occurrences := repository.NewOccurrenceRepo(db)
	rules := repository.NewRuleRepo(db)
	sessions := repository.NewSessionRepo(db)
	clients := repository.NewClientRepo(db)
	secretaries := repository.NewSecretaryRepo(db)
	tokens := repository.NewTokenRepo(db)

	// The coordinator every mutation goes through.
	sched := scheduler.New(occurrences, rules)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, secretaries, tokens)
	occH := handler.NewOccurrenceHandler(sched, occurrences, clients)
	sesH := handler.NewSessionHandler(sessions)
	clH := handler.NewClientHandler(clients)

	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limitMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterCalendar(e, occH, sesH, clH, cfg.JWTSecret, cacheMW, limitMW)

	// Lifecycle event consumer; runs its own reconnect loop.
	go func() {
		if err := queue.StartCalendarConsumer(); err != nil {
			log.Printf("calendar consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
