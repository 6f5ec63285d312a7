package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shop/internal/handlers"
	"shop/internal/middleware"
	"shop/internal/models"
	"shop/internal/repositories"
	"shop/internal/services"
	"shop/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DSN", "") // PostgreSQL DSN; empty uses SQLite
	viper.SetDefault("DATABASE_PATH", "shop.db")
	viper.SetDefault("JWT_SECRET", "change_me_in_production")
	viper.SetDefault("RABBITMQ_URL", "") // empty disables event publishing
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")

	// --- Initialize Database ---
	// TranslateError is required so unique constraint violations surface as
	// gorm.ErrDuplicatedKey, which the product service relies on to retry
	// code generation.
	var dialector gorm.Dialector
	if dsn := viper.GetString("DATABASE_DSN"); dsn != "" {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(viper.GetString("DATABASE_PATH"))
	}
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.User{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Initialize RabbitMQ Client (optional) ---
	var mqClient *rabbitmq.Client
	if rabbitMQURL := viper.GetString("RABBITMQ_URL"); rabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: rabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
	} else {
		log.Println("RABBITMQ_URL not set, product events will not be published.")
	}

	// --- Initialize Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// --- Initialize Services ---
	var events services.EventPublisher
	if mqClient != nil {
		events = mqClient
	}
	productService := services.NewProductService(productRepo, events)
	authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"))

	// Seed some products on first run
	seedProducts(productRepo, productService)

	// --- Initialize Handlers ---
	productHandler := handlers.NewProductHandler(productService)
	authHandler := handlers.NewAuthHandler(authService)

	// --- Initialize Fiber App ---
	app := fiber.New()
	app.Use(logger.New()) // Request logger

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	authHandler.RegisterRoutes(apiV1)

	// Product routes require a valid JWT
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	productHandler.RegisterRoutes(protectedRoutes)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start RabbitMQ Consumer in a Goroutine ---
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for product events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received product event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil // Return nil to acknowledge
			}
			if consumerErr := mqClient.ConsumeProductEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// seedProducts populates an empty store with some initial catalog data.
// Going through the service gives the seeds generated codes, defaults and
// timestamps like any other product.
func seedProducts(repo repositories.ProductRepository, service *services.ProductService) {
	existing, err := repo.GetAll()
	if err != nil {
		log.Printf("Error checking for existing products: %v", err)
		return
	}
	if len(existing) > 0 {
		return
	}

	price := func(v float64) *float64 { return &v }
	qty := func(v int) *int { return &v }

	seeds := []models.ProductView{
		{Name: "Bamboo Watch", Description: "Analog wristwatch with a bamboo case", Category: "Accessories", Price: price(65), Quantity: qty(24)},
		{Name: "Black Watch", Description: "Minimalist black wristwatch", Category: "Accessories", Price: price(72), Quantity: qty(61)},
		{Name: "Blue T-Shirt", Description: "Plain blue cotton t-shirt", Category: "Clothing", Price: price(29), Quantity: qty(25)},
	}
	for _, seed := range seeds {
		created, err := service.CreateProduct(seed)
		if err != nil {
			log.Printf("Error seeding product %s: %v", seed.Name, err)
			continue
		}
		log.Printf("Seeded product: %s (ID: %d, code: %s)", created.Name, created.ID, created.Code)
	}
}
