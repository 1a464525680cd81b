package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/surimakeskilled/carrental/internal/database"
	"github.com/surimakeskilled/carrental/internal/handlers"
	"github.com/surimakeskilled/carrental/internal/lifecycle"
	"github.com/surimakeskilled/carrental/internal/middleware"
	"github.com/surimakeskilled/carrental/internal/notify"
	"github.com/surimakeskilled/carrental/internal/pricemodel"
	"github.com/surimakeskilled/carrental/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Search mirror is optional; search falls back to the database
	if err := services.InitMirror(); err != nil {
		log.Printf("Search mirror warning: %v", err)
	}

	// Initialize Storage (S3 or local fallback)
	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	priceModel, err := pricemodel.Load()
	if err != nil {
		log.Fatalf("Failed to load price model: %v", err)
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	notifier := notify.NewDispatcher(notify.NewMailerFromEnv(), hub)
	svc := lifecycle.New(db, notifier)

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve locally stored uploads
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "/app/uploads"
	}
	r.Static("/uploads", uploadDir)

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
		}

		api.GET("/bikes", handlers.GetAvailableBikes(db))
		api.GET("/bikes/search", handlers.SearchBikes(db))
		api.GET("/bikes/:id", handlers.GetBike(db))

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
				users.PUT("/profile", handlers.UpdateProfile(db))
			}

			bikes := protected.Group("/bikes")
			{
				bikes.POST("", handlers.CreateBike(db, svc))
				bikes.GET("/my", handlers.GetMyBikes(db))
				bikes.PUT("/:id", handlers.UpdateBike(db, svc))
				bikes.DELETE("/:id", handlers.DeleteBike(svc))
				bikes.GET("/:id/analyze", handlers.AnalyzeBike(db, priceModel))
			}

			rentals := protected.Group("/rental-requests")
			{
				rentals.POST("", handlers.CreateRentalRequest(svc))
				rentals.GET("", handlers.GetRentalRequests(db))
				rentals.POST("/:id/approve", handlers.ApproveRentalRequest(db, svc))
				rentals.POST("/:id/reject", handlers.RejectRentalRequest(svc))
			}

			myRentals := protected.Group("/rentals")
			{
				myRentals.GET("", handlers.GetMyRentals(db))
				myRentals.POST("/:id/complete", handlers.CompleteRental(db, svc))
				myRentals.POST("/:id/cancel", handlers.CancelRental(db, svc))
			}

			purchases := protected.Group("/purchases")
			{
				purchases.POST("", handlers.CreatePurchaseRequest(svc))
				purchases.GET("", handlers.GetMyPurchases(db))
				purchases.POST("/:id/accept", handlers.AcceptPurchase(db, svc))
				purchases.POST("/:id/reject", handlers.RejectPurchase(svc))
				purchases.POST("/:id/cancel", handlers.CancelPurchase(db, svc))
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
