package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/weaveapp/weave/backend/go-services/internal/config"
	"github.com/weaveapp/weave/backend/go-services/internal/models"
)

// GenerateAccessToken creates a signed JWT for the user. Only the dev-mode
// token endpoint uses this; production tokens come from the identity provider.
func GenerateAccessToken(cfg *config.Config, u *models.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":      u.Sub,
		"name":     u.Name,
		"username": u.Username,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}
