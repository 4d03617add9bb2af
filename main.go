package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"clicker-leaderboard/handlers"
	"clicker-leaderboard/middleware"
	"clicker-leaderboard/models"
	"clicker-leaderboard/services"
	"clicker-leaderboard/store"
	"clicker-leaderboard/utils"
	"clicker-leaderboard/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scoreStore := openStore()
	scoreService := services.NewScoreService(scoreStore)

	app := newApp(scoreService, allowedOrigins())

	if utils.R2Configured() {
		r2, err := utils.NewR2FromEnv(ctx)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		interval := utils.GetEnvDuration("SNAPSHOT_INTERVAL", 5*time.Minute)
		snapshots := workers.NewSnapshotWorker(scoreService, r2, utils.GetEnv("SNAPSHOT_PREFIX", "clicker"), interval)
		if err := snapshots.Start(ctx); err != nil {
			log.Fatal("failed to start snapshot worker:", err)
		}
		log.Printf("✅ Leaderboard snapshots every %s", interval)
	} else {
		log.Println("⚠️  R2 not configured, leaderboard snapshots disabled")
	}

	port := utils.GetEnv("PORT", "3001")
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	log.Printf("✅ Game server running at http://localhost:%s (store: %s)", port, scoreStore.Kind())

	<-ctx.Done()
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// openStore uses Postgres when DATABASE_URL is set and memory otherwise.
func openStore() store.ScoreStore {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Println("⚠️  DATABASE_URL not set, scores are kept in memory and lost on restart")
		return store.NewMemoryStore()
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	if err := db.AutoMigrate(&models.ScoreRecord{}); err != nil {
		log.Fatal("failed to migrate database:", err)
	}
	return store.NewGormStore(db)
}

func allowedOrigins() string {
	origins := strings.Split(utils.GetEnv("ALLOWED_ORIGINS", "*"), ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return strings.Join(origins, ",")
}

// newApp builds the Fiber app with middleware and routes.
func newApp(scoreService *services.ScoreService, origins string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "clicker-leaderboard",
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"store":  scoreService.Store.Kind(),
		})
	})

	handlers.SetupScoreRoutes(app, scoreService)
	return app
}
