package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/ramikh/marketplace-auction/internal/config"
	"github.com/ramikh/marketplace-auction/internal/database"
	"github.com/ramikh/marketplace-auction/internal/handler"
	"github.com/ramikh/marketplace-auction/internal/middleware"
	"github.com/ramikh/marketplace-auction/internal/queue"
	"github.com/ramikh/marketplace-auction/internal/repository"
	"github.com/ramikh/marketplace-auction/internal/router"
	"github.com/ramikh/marketplace-auction/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis backs the bid-placement rate limiter. nil disables limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	adRepo := repository.NewAdRepo(db)
	bidRepo := repository.NewBidRepo(db)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	adHandler := handler.NewAdHandler(adRepo)
	bidHandler := handler.NewBidHandler(adRepo, bidRepo)

	// The closer consumes delayed close jobs and finalizes auction rounds.
	closer := service.NewCloser(
		service.SQLTxRunner{DB: db},
		adRepo,
		bidRepo,
		service.NewQueueNotifier(userRepo),
	)
	go func() {
		if err := queue.StartAuctionCloseConsumer(closer); err != nil {
			log.Printf("close consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	var rateLimit echo.MiddlewareFunc
	if rdb != nil {
		rateLimit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterAds(e, adHandler, cfg.JWTSecret)
	router.RegisterBids(e, bidHandler, cfg.JWTSecret, rateLimit)

	log.Printf("listening on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
