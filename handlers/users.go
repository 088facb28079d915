package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weaveapp/weave/backend/go-services/internal/storage"
	"github.com/weaveapp/weave/backend/go-services/internal/users"
	"github.com/weaveapp/weave/backend/go-services/pkg/middleware"
)

// UserHandler serves profile onboarding/editing, lookup and listing.
// Avatar bytes go to object storage; the user record only ever stores the
// resulting URL.
type UserHandler struct {
	usersSvc *users.Service
	avatars  *storage.MinIOStorage
}

func NewUserHandler(u *users.Service, avatars *storage.MinIOStorage) *UserHandler {
	return &UserHandler{usersSvc: u, avatars: avatars}
}

func (h *UserHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.POST("/users", auth, h.UpsertUser)
	rg.GET("/users", auth, h.ListUsers)
	rg.GET("/users/:sub", h.GetUser)
	rg.GET("/users/:sub/threads", h.GetUserThreads)
	rg.POST("/users/avatar", auth, h.UploadAvatar)
}

type upsertUserRequest struct {
	Username string `json:"username" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Image    string `json:"image"`
	Bio      string `json:"bio"`
	Path     string `json:"path"`
}

func (h *UserHandler) UpsertUser(c *gin.Context) {
	var req upsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, ok := middleware.SubjectFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no authenticated subject"})
		return
	}

	u, err := h.usersSvc.UpsertUser(c.Request.Context(), users.UpsertParams{
		Sub:      sub,
		Username: req.Username,
		Name:     req.Name,
		Image:    req.Image,
		Bio:      req.Bio,
	}, req.Path)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	u, err := h.usersSvc.FetchUser(c.Request.Context(), c.Param("sub"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) GetUserThreads(c *gin.Context) {
	pt, err := h.usersSvc.FetchUserThreads(c.Request.Context(), c.Param("sub"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pt)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	sub, _ := middleware.SubjectFromContext(c)
	list, isNext, err := h.usersSvc.FetchUsers(c.Request.Context(), users.ListParams{
		Sub:          sub,
		SearchString: c.Query("search"),
		PageNumber:   intQuery(c, "page", 1),
		PageSize:     intQuery(c, "pageSize", 20),
		SortBy:       c.DefaultQuery("sortBy", "desc"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list, "isNext": isNext})
}

// UploadAvatar stores the uploaded image and returns its URL. The caller
// passes that URL back through the profile upsert.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	if h.avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage not configured"})
		return
	}
	sub, ok := middleware.SubjectFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no authenticated subject"})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file"})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("avatars/%s/%d-%s", sub, time.Now().UnixNano(), header.Filename)
	contentType := header.Header.Get("Content-Type")
	if err := h.avatars.UploadFile(c.Request.Context(), key, file, header.Size, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed", "details": err.Error()})
		return
	}
	url, err := h.avatars.GetPresignedURL(c.Request.Context(), key, 7*24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presign failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key, "url": url})
}
