package main

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/social-jukebox/internal/auth"
	"github.com/social-jukebox/internal/bot"
	"github.com/social-jukebox/internal/history"
	"github.com/social-jukebox/internal/queue"
	"github.com/social-jukebox/internal/room"
	"github.com/social-jukebox/internal/spotify"
	"github.com/social-jukebox/internal/ws"
	"github.com/social-jukebox/pkg/database"
	"github.com/social-jukebox/pkg/events"
	"github.com/social-jukebox/pkg/redis"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		zlog.Warn().Msg(".env file not found")
	}

	if os.Getenv("ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Optional Redis mirror for the catalog token
	var tokenStore *redis.TokenStore
	if host := os.Getenv("REDIS_HOST"); host != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     host + ":" + os.Getenv("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		})
		tokenStore = redis.NewTokenStore(redisClient)
	}

	// Catalog client with process-wide client-credentials token
	catalogClient := spotify.NewClient(
		os.Getenv("SPOTIFY_CLIENT_ID"),
		os.Getenv("SPOTIFY_CLIENT_SECRET"),
		tokenStore,
	)

	// Optional Kafka mirror for lifecycle events
	var publisher *events.Publisher
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		publisher = events.NewPublisher(strings.Split(brokers, ","), "jukebox-events")
		defer publisher.Close()
	}

	// Optional MySQL play-history archive
	var db *database.MySQLDB
	var archiver *history.Archiver
	if os.Getenv("MYSQL_HOST") != "" {
		var err error
		db, err = database.NewMySQLDB(
			os.Getenv("MYSQL_HOST"),
			os.Getenv("MYSQL_PORT"),
			os.Getenv("MYSQL_USER"),
			os.Getenv("MYSQL_PASSWORD"),
			os.Getenv("MYSQL_DATABASE"),
		)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to connect to database")
		}
		archiver = history.NewArchiver(db)
	}

	djBot := bot.New(catalogClient)
	hub := ws.NewHub(catalogClient, publisher)

	registry := queue.NewRegistry(func(roomID string) queue.Config {
		listeners := queue.MultiListener{hub.RoomListener(roomID)}
		if archiver != nil {
			listeners = append(listeners, archiver.ForRoom(roomID))
		}
		return queue.Config{
			RoomID:      roomID,
			Listener:    listeners,
			Recommender: djBot,
			Agent:       djBot.User(),
			CanRemove:   queue.AllowAllRemovals,
		}
	})
	hub.SetRegistry(registry)

	authHandler := auth.NewHandler()
	roomHandler := room.NewHandler(registry, hub, db)

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	authHandler.RegisterRoutes(v1)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(auth.AuthMiddleware())
	{
		roomHandler.RegisterRoutes(protected)
		protected.GET("/ws", hub.HandleWebSocket)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	zlog.Info().Str("port", port).Msg("server starting")
	if err := router.Run(":" + port); err != nil {
		zlog.Fatal().Err(err).Msg("failed to start server")
	}
}
