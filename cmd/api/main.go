package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"supachat-woocommerce-layer/internal/application"
	apiinfra "supachat-woocommerce-layer/internal/infrastructure/api"
	"supachat-woocommerce-layer/internal/infrastructure/repository"
	"supachat-woocommerce-layer/internal/infrastructure/supachat"
	"supachat-woocommerce-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const version = "1.0.0"

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	// Get configuration from environment
	mongoURI := getenv("MONGODB_URI", "mongodb://localhost:27017")
	mongoDatabase := getenv("MONGODB_DATABASE", "supachat")
	userServiceURL := getenv("SUPACHAT_USER_SERVICE_URL", "https://users.supachat.io")
	chatbotServiceURL := getenv("SUPACHAT_CHATBOT_SERVICE_URL", "https://chatbots.supachat.io")
	widgetURL := getenv("SUPACHAT_WIDGET_URL", "https://widget.supachat.io")
	storeURL := getenv("STORE_URL", "http://localhost:8080")

	adminUserID, err := strconv.ParseInt(getenv("ADMIN_USER_ID", "1"), 10, 64)
	if err != nil {
		logger.Fatal().Err(err).Msg("ADMIN_USER_ID must be an integer")
	}

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(mongoDatabase)

	// Option store: Redis when configured, in-memory otherwise
	var optionStore ports.OptionStore
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		optionStore = repository.NewRedisOptionStore(redisClient, "")
		logger.Info().Str("addr", redisAddr).Msg("Using Redis option store")
	} else {
		optionStore = repository.NewMemoryOptionStore()
		logger.Warn().Msg("REDIS_ADDR not set, options are held in memory only")
	}

	// Initialize repositories
	credentialStore := repository.NewMongoCredentialStore(db, logger)
	ledger := repository.NewOptionLedger(optionStore)
	sessions := repository.NewOptionSessionStore(optionStore)
	bubbles := repository.NewOptionBubbleSettings(optionStore)

	// Initialize remote client
	supachatClient := supachat.NewClient(userServiceURL, chatbotServiceURL, sessions, logger)

	// Initialize application services
	integrationService := application.NewIntegrationService(
		ledger,
		credentialStore,
		supachatClient,
		bubbles,
		storeURL,
		adminUserID,
		logger,
	)
	authService := application.NewAuthService(
		supachatClient,
		supachatClient,
		sessions,
		integrationService,
		logger,
	)
	widgetService := application.NewWidgetService(bubbles, ledger, widgetURL, logger)

	apiHandler := apiinfra.NewHandler(
		authService,
		integrationService,
		widgetService,
		supachatClient,
		version,
		storeURL,
		logger,
	)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": version})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	apiHandler.Routes(r)

	port := getenv("PORT", "8080")
	logger.Info().Str("port", port).Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + port + "/swagger/index.html")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
