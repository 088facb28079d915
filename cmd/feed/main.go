package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weaveapp/weave/backend/go-services/internal/database"
	"github.com/weaveapp/weave/backend/go-services/internal/memstore"
	"github.com/weaveapp/weave/backend/go-services/internal/revalidate"
	"github.com/weaveapp/weave/backend/go-services/internal/threads"
)

// Standalone read-only feed service. Prefers Mongo when MONGODB_URI is set
// and falls back to an empty in-memory store so the endpoint stays usable in
// local prototyping.
func main() {
	port := os.Getenv("FEED_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}

	r := gin.New()
	r.Use(gin.Recovery())

	var repo threads.Repository
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		client, err := database.ConnectMongo(context.Background(), uri, 10*time.Second)
		if err != nil {
			log.Printf("warning: cannot connect to MongoDB (%v) — using memory-backed repo", err)
			repo = threads.NewMemoryRepository(memstore.New())
		} else {
			repo = threads.NewMongoRepository(client.Database(os.Getenv("MONGODB_DATABASE")))
		}
	} else {
		repo = threads.NewMemoryRepository(memstore.New())
	}
	svc := threads.NewService(repo, revalidate.Noop{})

	r.GET("/api/feed", func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
		posts, isNext, err := svc.FetchPosts(c.Request.Context(), page, size)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"posts": posts, "isNext": isNext})
	})

	log.Printf("feed service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
