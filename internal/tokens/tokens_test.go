package tokens

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/weaveapp/weave/backend/go-services/internal/config"
	"github.com/weaveapp/weave/backend/go-services/internal/models"
)

func TestGenerateAccessToken_ValidAndClaims(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-32-bytes-should-be-long-enough"

	u := &models.User{Sub: "user-123", Name: "Test User", Username: "testuser"}
	tokenStr, err := GenerateAccessToken(cfg, u, 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if !parsed.Valid {
		t.Fatalf("token should be valid")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("claims type assertion failed")
	}
	if claims["sub"] != u.Sub {
		t.Fatalf("unexpected sub claim: got=%v want=%v", claims["sub"], u.Sub)
	}
	if claims["username"] != u.Username {
		t.Fatalf("unexpected username claim: got=%v want=%v", claims["username"], u.Username)
	}
}

func TestGenerateAccessToken_Expiry(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "another-secret-32-bytes-longgggg"
	u := &models.User{Sub: "u2", Name: "X", Username: "x"}
	tokenStr, err := GenerateAccessToken(cfg, u, 1*time.Second)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	// wait for expiry
	time.Sleep(2 * time.Second)
	_, err = jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) { return []byte(cfg.JWT.Secret), nil })
	if err == nil {
		t.Fatalf("expected token parse to fail after expiry")
	}
}

func TestParseToken_WrongSecretFails(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "secret-one-32-bytes-xxxxxxxxxxxxxxxx"
	u := &models.User{Sub: "u3", Name: "Bob", Username: "bob"}
	tokenStr, err := GenerateAccessToken(cfg, u, 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	_, err = jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) { return []byte("different-secret-xxxxxxxxxxxxxxxx"), nil })
	if err == nil {
		t.Fatalf("expected parse to fail with wrong secret")
	}
}

// Tampering with payload must fail signature verification
func TestParseToken_TamperedPayload(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "tamper-test-secret-32-bytes-xxxxxxx"
	u := &models.User{Sub: "user-t", Name: "Tamper", Username: "tamper"}
	tokenStr, err := GenerateAccessToken(cfg, u, 5*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, _ := jwt.NewParser().DecodeSegment(parts[1])
	payloadStr := strings.Replace(string(payloadBytes), "user-t", "attacker", 1)
	parts[1] = (&jwt.Token{}).EncodeSegment([]byte(payloadStr))
	tampered := strings.Join(parts, ".")
	_, err = jwt.Parse(tampered, func(token *jwt.Token) (interface{}, error) { return []byte(cfg.JWT.Secret), nil })
	if err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}
