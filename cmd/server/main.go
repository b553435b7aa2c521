package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/mchavez27/melipanel/configs"
	"github.com/mchavez27/melipanel/internal/api/handlers"
	"github.com/mchavez27/melipanel/internal/api/middleware"
	job "github.com/mchavez27/melipanel/internal/jobs"
	"github.com/mchavez27/melipanel/internal/queue"
	"github.com/mchavez27/melipanel/internal/repository"
	"github.com/mchavez27/melipanel/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upstash-Signature",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	var tokenRepo repository.TokenRepository
	if os.Getenv("TOKEN_BACKEND") == "file" {
		tokenRepo = repository.NewFileTokenRepository(cfg.TokenFile)
	} else {
		tokenRepo = repository.NewTokenRepository(db)
	}

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	meliAuthService := service.NewMeliAuthService(*cfg, tokenRepo)
	meliService := service.NewMeliService()
	storageService := service.NewStorageService(*cfg)
	variationService := service.NewVariationService(cfg.DeepSeekAPIKey)
	schedulerService := service.NewSchedulerService(meliService, variationService, scheduleRepo, historyRepo)
	scheduleService := service.NewScheduleService(scheduleRepo, historyRepo, meliService, meliAuthService)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	// cron jobs
	autoPublishJob := job.NewAutoPublishJob(scheduleRepo, schedulerService, meliAuthService, client)

	// queue
	queueW := queue.NewQueue(scheduleRepo, historyRepo, schedulerService, meliAuthService)

	auth := handlers.NewAuthHandler(*cfg, authService, meliAuthService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)
	app.Get("/auth/meli", auth.MeliAuthorize)
	app.Get("/auth/meli/callback", auth.MeliCallback)

	// Machine entrypoints carry their own credentials; registered before the
	// session middleware claims the /api prefix.
	trigger := handlers.NewTriggerHandler(autoPublishJob, queueW, scheduleRepo, *cfg)
	app.Post("/api/cron/auto-publish", trigger.AutoPublish)
	app.Post("/api/cron/dispatch", trigger.DispatchDue)
	app.Post("/api/jobs/publish-item", trigger.PublishItemTask)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	api.Get("/auth/status", auth.MeliStatus)
	api.Post("/auth/inject-token", auth.InjectToken)

	schedule := handlers.NewScheduleHandler(scheduleService)
	api.Post("/schedules", schedule.CreateSchedule)
	api.Get("/schedules", schedule.ListSchedules)
	api.Get("/schedules/:id", schedule.GetSchedule)
	api.Put("/schedules/:id", schedule.UpdateSchedule)
	api.Delete("/schedules/:id", schedule.DeleteSchedule)
	api.Get("/schedules/:id/history", schedule.ScheduleHistory)

	item := handlers.NewItemHandler(meliService, meliAuthService)
	api.Get("/items", item.ListItems)
	api.Get("/items/:id", item.GetItem)
	api.Post("/items/publish", item.PublishItem)

	image := handlers.NewImageHandler(storageService, meliService, meliAuthService)
	api.Post("/images/upload", image.UploadImage)
	api.Post("/images/listing", image.UploadListingPicture)

	c := cron.New()
	c.AddFunc("@every 1h0m0s", autoPublishJob.Run)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishSchedule, queueW.HandlePublishScheduleTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
