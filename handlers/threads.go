package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/weaveapp/weave/backend/go-services/internal/threads"
	"github.com/weaveapp/weave/backend/go-services/internal/users"
	"github.com/weaveapp/weave/backend/go-services/pkg/middleware"
)

// ThreadHandler serves the feed, single-thread and reply endpoints. It
// resolves the authenticated subject to an internal user record before
// touching the thread repository.
type ThreadHandler struct {
	threadsSvc *threads.Service
	usersSvc   *users.Service
}

func NewThreadHandler(t *threads.Service, u *users.Service) *ThreadHandler {
	return &ThreadHandler{threadsSvc: t, usersSvc: u}
}

func (h *ThreadHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.GET("/threads", h.ListPosts)
	rg.GET("/threads/:id", h.GetThread)
	rg.POST("/threads", auth, h.CreateThread)
	rg.POST("/threads/:id/comments", auth, h.AddComment)
	rg.GET("/activity", auth, h.Activity)
}

type createThreadRequest struct {
	Text        string `json:"text" binding:"required"`
	CommunityID string `json:"communityId"`
	Path        string `json:"path"`
}

func (h *ThreadHandler) CreateThread(c *gin.Context) {
	var req createThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	author, ok := h.currentUser(c)
	if !ok {
		return
	}

	var communityID *primitive.ObjectID
	if req.CommunityID != "" {
		if id, err := primitive.ObjectIDFromHex(req.CommunityID); err == nil {
			communityID = &id
		}
	}

	t, err := h.threadsSvc.CreateThread(c.Request.Context(), req.Text, author.ID, communityID, req.Path)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *ThreadHandler) ListPosts(c *gin.Context) {
	page := intQuery(c, "page", 1)
	size := intQuery(c, "pageSize", 20)
	posts, isNext, err := h.threadsSvc.FetchPosts(c.Request.Context(), page, size)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "isNext": isNext})
}

func (h *ThreadHandler) GetThread(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread id"})
		return
	}
	node, err := h.threadsSvc.FetchThreadByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

type addCommentRequest struct {
	Text string `json:"text" binding:"required"`
	Path string `json:"path"`
}

func (h *ThreadHandler) AddComment(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread id"})
		return
	}
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	author, ok := h.currentUser(c)
	if !ok {
		return
	}

	reply, err := h.threadsSvc.AddCommentToThread(c.Request.Context(), id, req.Text, author.ID, req.Path)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}

func (h *ThreadHandler) Activity(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	replies, err := h.threadsSvc.GetActivity(c.Request.Context(), user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": replies})
}

func (h *ThreadHandler) currentUser(c *gin.Context) (*usersView, bool) {
	sub, ok := middleware.SubjectFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no authenticated subject"})
		return nil, false
	}
	u, err := h.usersSvc.FetchUser(c.Request.Context(), sub)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return &usersView{ID: u.ID, Sub: u.Sub}, true
}

type usersView struct {
	ID  primitive.ObjectID
	Sub string
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
