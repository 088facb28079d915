package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/weaveapp/weave/backend/go-services/handlers"
	"github.com/weaveapp/weave/backend/go-services/internal/communities"
	"github.com/weaveapp/weave/backend/go-services/internal/config"
	"github.com/weaveapp/weave/backend/go-services/internal/database"
	appoidc "github.com/weaveapp/weave/backend/go-services/internal/oidc"
	"github.com/weaveapp/weave/backend/go-services/internal/revalidate"
	"github.com/weaveapp/weave/backend/go-services/internal/storage"
	"github.com/weaveapp/weave/backend/go-services/internal/threads"
	"github.com/weaveapp/weave/backend/go-services/internal/users"
	"github.com/weaveapp/weave/backend/go-services/pkg/logger"
	"github.com/weaveapp/weave/backend/go-services/pkg/metrics"
	"github.com/weaveapp/weave/backend/go-services/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: oidc=%v mongo=%v redis=%v", cfg.OIDC.IssuerURL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Redis feeds the revalidation publisher and the distributed rate limiter
	var rdb *redis.Client
	var reval revalidate.Revalidator = revalidate.Noop{}
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			rdb = nil
		} else {
			reval = revalidate.NewRedisPublisher(rdb, cfg.Redis.RevalidateChannel)
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Connect to MongoDB with retry/backoff to tolerate startup races
	var client *mongo.Client
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		}
		defer func() { _ = client.Disconnect(ctx) }()
	} else {
		logger.Fatalf("MONGODB_URI is required")
	}
	db := client.Database(cfg.MongoDB.Database)

	threadsSvc := threads.NewService(threads.NewMongoRepository(db), reval)
	usersSvc := users.NewService(users.NewMongoUserRepository(db), reval)
	communitiesSvc := communities.NewService(communities.NewMongoRepository(db))

	// OIDC verifier; integration setups may opt into the insecure variant
	var verifier middleware.Verifier
	if cfg.OIDC.IssuerURL != "" && cfg.OIDC.ClientID != "" {
		ver, err := appoidc.NewVerifier(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && handlers.DevTokensAllowed() {
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		verifier = appoidc.NewInsecureVerifier()
	}
	if verifier == nil {
		logger.Fatalf("no token verifier available; set OIDC_ISSUER_URL/OIDC_CLIENT_ID or ALLOW_INSECURE_TOKEN=true")
	}
	auth := middleware.AuthMiddleware(verifier)

	// Avatar uploads go straight to object storage when configured
	var avatars *storage.MinIOStorage
	if mc := storage.LoadMinIOConfig(); mc.Endpoint != "" {
		avatars, err = storage.NewMinIOStorage(mc)
		if err != nil {
			logger.Warnf("object storage unavailable: %v", err)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{
			"mongo":   client != nil,
			"redis":   rdb != nil || cfg.Redis.Host == "",
			"storage": avatars != nil || os.Getenv("MINIO_ENDPOINT") == "",
		}
		ready := true
		for _, ok := range deps {
			if !ok {
				ready = false
			}
		}
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	api := r.Group("/api/v1")
	handlers.NewThreadHandler(threadsSvc, usersSvc).Register(api, auth)
	handlers.NewUserHandler(usersSvc, avatars).Register(api, auth)
	handlers.NewCommunityHandler(communitiesSvc).Register(api, auth)
	if handlers.DevTokensAllowed() {
		handlers.NewAuthHandler(cfg).Register(r.Group("/"))
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting weave service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
