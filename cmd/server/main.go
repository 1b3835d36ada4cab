package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/prakasadw/billsync-backend/internal/api/handlers"
	"github.com/prakasadw/billsync-backend/internal/api/middleware"
	"github.com/prakasadw/billsync-backend/internal/config"
	"github.com/prakasadw/billsync-backend/internal/devrecords"
	"github.com/prakasadw/billsync-backend/internal/repository"
	"github.com/prakasadw/billsync-backend/internal/service"
)

func main() {

	// LOAD ENV
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed load config:", err)
	}

	// INIT DB
	repo, err := repository.NewPostgresRepoFromConfig(&repository.DBConfig{
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal("failed connect db:", err)
	}

	// MIGRATIONS
	if err := repo.RunMigrations(context.Background()); err != nil {
		log.Fatal("migration error:", err)
	}

	// ADMIN SEED
	hashed, _ := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err := repo.UpsertAdmin(context.Background(), cfg.AdminUsername, string(hashed)); err != nil {
		log.Println("failed seeding admin:", err)
	} else {
		log.Println("admin seeded OK")
	}

	// SERVICES
	source := devrecords.NewClient(cfg.DevRecordsBaseURL, cfg.DevRecordsToken, cfg.DevRecordsOrgID)
	syncService, err := service.NewSyncService(
		repo, source, cfg.DevRecordsOrgID,
		cfg.SyncApplyRetries, time.Duration(cfg.SyncRetryBackoffMs)*time.Millisecond,
	)
	if err != nil {
		log.Fatal("failed building sync service:", err)
	}

	// HANDLERS
	authHandler := handlers.NewAuthHandler(repo, cfg.JWTSecret)
	syncHandler := handlers.NewSyncHandler(syncService, cfg.SyncDeleteOrphaned)
	salesHandler := handlers.NewSalesHandler(repo, cfg.DevRecordsOrgID)

	// ROUTER
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	api := r.Group("/api/v1")

	// AUTH ROUTES
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	// SYNC + SALES ROUTES (JWT protected)
	protected := api.Group("")
	protected.Use(middleware.JWTAuth(cfg.JWTSecret))

	sync := protected.Group("/sync")
	{
		sync.GET("/status", syncHandler.GetStatus)
		sync.POST("/preview", syncHandler.Preview)
		sync.POST("/review", syncHandler.Review)
		sync.POST("/apply", syncHandler.Apply)
		sync.GET("/history", syncHandler.GetHistory)
	}

	sales := protected.Group("/sales")
	{
		sales.GET("", salesHandler.ListSales)
	}

	// START SERVER
	log.Println("Server running on port:", cfg.Port)
	r.Run(":" + cfg.Port)
}
