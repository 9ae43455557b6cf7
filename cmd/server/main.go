package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/ferrisk/place-directory/internal/config"
	"github.com/ferrisk/place-directory/internal/database"
	"github.com/ferrisk/place-directory/internal/handler"
	"github.com/ferrisk/place-directory/internal/middleware"
	"github.com/ferrisk/place-directory/internal/queue"
	"github.com/ferrisk/place-directory/internal/repository"
	"github.com/ferrisk/place-directory/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the public-endpoint cache and the rate limiter. A nil
	// client disables both; the directory still serves from MySQL.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	placeRepo := repository.NewPlaceRepo(db)
	tagRepo := repository.NewTagRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	publicHandler := handler.NewPublicHandler(placeRepo, tagRepo)
	adminPlaces := handler.NewAdminPlaceHandler(placeRepo)
	adminTags := handler.NewAdminTagHandler(tagRepo)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterAdmin(e, adminPlaces, adminTags, cfg.JWTSecret)

	// Audit consumer for directory.changed events; runs its own
	// reconnect loop for the life of the process.
	go func() {
		if err := queue.StartDirectoryConsumer(); err != nil {
			log.Printf("directory consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
