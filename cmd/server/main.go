package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	config "github.com/quietroom/quietroom-api/configs"
	"github.com/quietroom/quietroom-api/internal/api/handlers"
	"github.com/quietroom/quietroom-api/internal/api/middleware"
	job "github.com/quietroom/quietroom-api/internal/jobs"
	"github.com/quietroom/quietroom-api/internal/ratelimit"
	"github.com/quietroom/quietroom-api/internal/repository"
	"github.com/quietroom/quietroom-api/internal/storage"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	ctx := context.Background()

	store, rootID, err := storage.NewStoreFromConfig(ctx, *cfg)
	if err != nil {
		log.Fatalf("Failed to set up storage backend: %v", err)
	}

	// Audio streaming prefers a read-only credential when one is configured.
	readStore := store
	if cfg.StorageBackend == "drive" && cfg.GoogleClientEmail != "" && cfg.GooglePrivateKey != "" {
		ro, err := storage.NewDriveReadOnlyStore(ctx, cfg.GoogleClientEmail, cfg.GooglePrivateKey)
		if err != nil {
			log.Printf("Warning: read-only drive credentials unusable, falling back: %v", err)
		} else {
			readStore = ro
		}
	}

	clock := repository.RealClock{}
	folders := repository.NewFolderManager(store, rootID)
	postRepo := repository.NewPostRepository(store, folders, clock)
	reactionRepo := repository.NewReactionRepository(store)
	audioRepo := repository.NewAudioRepository(store, readStore, folders, clock)
	sweeper := repository.NewSweeper(store, folders, clock)

	limiter := ratelimit.NewLimiter(cfg.RateLimitMax, time.Duration(cfg.RateLimitWindowMS)*time.Millisecond)

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    12 * 1024 * 1024, // 10 MB audio plus form overhead
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong."})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Range",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	rateLimited := middleware.NewRateLimitMiddleware(limiter)

	post := handlers.NewPostHandler(postRepo)
	reaction := handlers.NewReactionHandler(reactionRepo)
	audio := handlers.NewAudioHandler(audioRepo)
	cleanup := handlers.NewCleanupHandler(sweeper, cfg.CronSecret)

	api := app.Group("/api")
	api.Post("/posts", rateLimited.Limit(), post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:fileId", post.GetPost)
	api.Post("/reactions/:fileId", reaction.React)
	api.Post("/audio/upload", rateLimited.Limit(), audio.Upload)
	api.Get("/audio/:fileId", audio.Stream)
	api.Get("/drive/cleanup", cleanup.Cleanup)

	// cron jobs
	cleanupJob := job.NewCleanupJob(sweeper)

	c := cron.New()
	c.AddFunc("0 0 3 * * *", cleanupJob.Run)
	c.AddFunc("@every 0h1m0s", limiter.Cleanup)
	c.Start()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app)
}

func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	log.Println("Server shutdown complete.")
}
