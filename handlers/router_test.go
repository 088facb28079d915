package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weaveapp/weave/backend/go-services/internal/communities"
	"github.com/weaveapp/weave/backend/go-services/internal/memstore"
	"github.com/weaveapp/weave/backend/go-services/internal/revalidate"
	"github.com/weaveapp/weave/backend/go-services/internal/threads"
	"github.com/weaveapp/weave/backend/go-services/internal/users"
)

// testAuth authenticates as the subject named in the X-Test-Sub header.
func testAuth(c *gin.Context) {
	sub := c.GetHeader("X-Test-Sub")
	if sub == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
		return
	}
	c.Set("claims", map[string]interface{}{"sub": sub})
	c.Next()
}

// newTestRouter wires all handlers onto memory-backed services sharing one
// store, the way main wires them onto Mongo.
func newTestRouter() (*gin.Engine, *memstore.Store, *revalidate.Recorder) {
	gin.SetMode(gin.TestMode)
	store := memstore.New()
	rec := &revalidate.Recorder{}

	usersSvc := users.NewService(users.NewMemoryUserRepository(store), rec)
	threadsSvc := threads.NewService(threads.NewMemoryRepository(store), rec)
	communitiesSvc := communities.NewService(communities.NewMemoryRepository(store))

	g := gin.New()
	api := g.Group("/api/v1")
	NewThreadHandler(threadsSvc, usersSvc).Register(api, testAuth)
	NewUserHandler(usersSvc, nil).Register(api, testAuth)
	NewCommunityHandler(communitiesSvc).Register(api, testAuth)
	return g, store, rec
}
