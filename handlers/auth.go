package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weaveapp/weave/backend/go-services/internal/config"
	"github.com/weaveapp/weave/backend/go-services/internal/models"
	"github.com/weaveapp/weave/backend/go-services/internal/tokens"
)

// AuthHandler exposes a dev-only token endpoint. Production authentication
// lives entirely at the identity provider; this endpoint exists so local and
// integration setups can mint a bearer token without standing one up. It is
// registered only when ALLOW_INSECURE_TOKEN=true.
type AuthHandler struct {
	cfg *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// DevTokensAllowed reports whether the dev token endpoint may be registered.
func DevTokensAllowed() bool {
	return strings.ToLower(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN"))) == "true"
}

func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/dev-token", h.DevToken)
}

type devTokenRequest struct {
	Sub  string `json:"sub" binding:"required"`
	Name string `json:"name"`
}

func (h *AuthHandler) DevToken(c *gin.Context) {
	var req devTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := &models.User{Sub: req.Sub, Name: req.Name}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access, "token_type": "Bearer"})
}
