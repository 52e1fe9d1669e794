package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/NextFutureHub/ocr-quality-service/internal/db"
)

// tokenTTL is how long an issued token stays valid.
const tokenTTL = 72 * time.Hour

var jwtSecret []byte

// Claims carries the authenticated project identity inside a JWT.
type Claims struct {
	ProjectID    string `json:"project_id"`
	ProjectAlias string `json:"project_alias"`
	ProjectName  string `json:"project_name"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}

// Init loads the signing secret from JWT_SECRET. Without one the service
// generates an ephemeral secret, so tokens do not survive a restart.
func Init() error {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		jwtSecret = []byte(secret)
		return nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	jwtSecret = []byte(hex.EncodeToString(buf))
	log.Println("Warning: JWT_SECRET not set, using an ephemeral secret")
	return nil
}

// GenerateToken issues a signed token for an authenticated project.
func GenerateToken(projectID, alias, name, role string) (string, error) {
	claims := Claims{
		ProjectID:    projectID,
		ProjectAlias: alias,
		ProjectName:  name,
		Role:         role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   projectID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateToken parses and verifies a token string.
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

type contextKey string

const claimsKey contextKey = "claims"

// JWTMiddleware enforces Bearer tokens on everything except login and
// health. When no database is configured there are no projects to
// authenticate against and the whole surface runs open.
func JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/api/auth/login" {
			next.ServeHTTP(w, r)
			return
		}
		if !db.Available() {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"missing or invalid authorization header"}`, http.StatusUnauthorized)
			return
		}

		claims, err := ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClaimsFromContext returns the claims stored by JWTMiddleware.
func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("no claims in context")
	}
	return claims, nil
}
