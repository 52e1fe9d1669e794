package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/NextFutureHub/ocr-quality-service/internal/db"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Project   string `json:"project"`
	AccessKey string `json:"access_key"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	ProjectID    string `json:"project_id"`
	ProjectAlias string `json:"project_alias"`
	ProjectName  string `json:"project_name"`
	Role         string `json:"role"`
}

// LoginHandler authenticates a project by alias and access key
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	if db.Pool == nil {
		http.Error(w, `{"error":"authentication not available in open mode"}`, http.StatusServiceUnavailable)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	alias := strings.ToLower(strings.TrimSpace(req.Project))
	if alias == "" || req.AccessKey == "" {
		http.Error(w, `{"error":"project and access_key are required"}`, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// Locked projects are filtered out here, so a lockout reads the same
	// as wrong credentials from outside
	query := `SELECT id, name, COALESCE(role, 'member'), access_key_hash
	          FROM projects
	          WHERE alias = $1
	          AND active = true
	          AND (locked_until IS NULL OR locked_until < NOW())`

	var id, name, role string
	var keyHash *string
	err := db.Pool.QueryRow(ctx, query, alias).Scan(&id, &name, &role, &keyHash)
	if err != nil || keyHash == nil {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*keyHash), []byte(req.AccessKey)); err != nil {
		// Count the failed attempt; the fifth in a row locks the project
		go func() {
			ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel2()
			db.Pool.Exec(ctx2, `UPDATE projects SET failed_attempts = COALESCE(failed_attempts, 0) + 1,
			                   locked_until = CASE WHEN COALESCE(failed_attempts, 0) >= 4
			                   THEN NOW() + INTERVAL '30 minutes' ELSE NULL END
			                   WHERE id = $1::uuid`, id)
		}()
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	token, err := GenerateToken(id, alias, name, role)
	if err != nil {
		http.Error(w, `{"error":"failed to generate token"}`, http.StatusInternalServerError)
		return
	}

	// Clear failed attempts and update last login in background
	go func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		db.Pool.Exec(ctx2, `UPDATE projects SET
		    last_login_at = NOW(),
		    failed_attempts = 0,
		    locked_until = NULL
		    WHERE id = $1::uuid`, id)
	}()

	json.NewEncoder(w).Encode(LoginResponse{
		Token:        token,
		ProjectID:    id,
		ProjectAlias: alias,
		ProjectName:  name,
		Role:         role,
	})
}
