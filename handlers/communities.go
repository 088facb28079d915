package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/weaveapp/weave/backend/go-services/internal/communities"
	"github.com/weaveapp/weave/backend/go-services/pkg/middleware"
)

// CommunityHandler serves community CRUD and membership endpoints.
// Communities are addressed by their external org id except for the posts
// listing, which uses the internal record id.
type CommunityHandler struct {
	svc *communities.Service
}

func NewCommunityHandler(s *communities.Service) *CommunityHandler {
	return &CommunityHandler{svc: s}
}

func (h *CommunityHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.GET("/communities", h.ListCommunities)
	rg.GET("/communities/:id", h.GetCommunity)
	rg.GET("/communities/:id/threads", h.GetCommunityPosts)
	rg.POST("/communities", auth, h.CreateCommunity)
	rg.POST("/communities/:id/members", auth, h.AddMember)
	rg.DELETE("/communities/:id/members/:sub", auth, h.RemoveMember)
	rg.PATCH("/communities/:id", auth, h.UpdateCommunity)
	rg.DELETE("/communities/:id", auth, h.DeleteCommunity)
}

type createCommunityRequest struct {
	OrgID    string `json:"orgId" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Image    string `json:"image"`
	Bio      string `json:"bio"`
}

func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	var req createCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, ok := middleware.SubjectFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no authenticated subject"})
		return
	}

	community, err := h.svc.CreateCommunity(c.Request.Context(), req.OrgID, req.Name, req.Username, req.Image, req.Bio, sub)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, community)
}

func (h *CommunityHandler) GetCommunity(c *gin.Context) {
	d, err := h.svc.FetchCommunityDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *CommunityHandler) GetCommunityPosts(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}
	p, err := h.svc.FetchCommunityPosts(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *CommunityHandler) ListCommunities(c *gin.Context) {
	list, isNext, err := h.svc.FetchCommunities(c.Request.Context(), communities.ListParams{
		SearchString: c.Query("search"),
		PageNumber:   intQuery(c, "page", 1),
		PageSize:     intQuery(c, "pageSize", 20),
		SortBy:       c.DefaultQuery("sortBy", "desc"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"communities": list, "isNext": isNext})
}

type addMemberRequest struct {
	Sub string `json:"sub" binding:"required"`
}

func (h *CommunityHandler) AddMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	community, err := h.svc.AddMemberToCommunity(c.Request.Context(), c.Param("id"), req.Sub)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

func (h *CommunityHandler) RemoveMember(c *gin.Context) {
	if err := h.svc.RemoveUserFromCommunity(c.Request.Context(), c.Param("sub"), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type updateCommunityRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Image    string `json:"image"`
}

func (h *CommunityHandler) UpdateCommunity(c *gin.Context) {
	var req updateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	community, err := h.svc.UpdateCommunityInfo(c.Request.Context(), c.Param("id"), req.Name, req.Username, req.Image)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

func (h *CommunityHandler) DeleteCommunity(c *gin.Context) {
	community, err := h.svc.DeleteCommunity(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, community)
}
