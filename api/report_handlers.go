package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/minio/minio-go/v7"

	"github.com/NextFutureHub/ocr-quality-service/internal/auth"
	"github.com/NextFutureHub/ocr-quality-service/internal/db"
	"github.com/NextFutureHub/ocr-quality-service/internal/storage"
)

// projectScope returns the authenticated project id, or "" when the
// service runs in open mode and reports are not partitioned.
func projectScope(r *http.Request) string {
	claims, err := auth.GetClaimsFromContext(r.Context())
	if err != nil {
		return ""
	}
	return claims.ProjectID
}

// GetReports - GET /api/reports
func (h *Handler) GetReports(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if !db.Available() {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	// Parse pagination params
	page := 1
	limit := 50
	if p := r.URL.Query().Get("page"); p != "" {
		if val, err := strconv.Atoi(p); err == nil && val > 0 {
			page = val
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 100 {
			limit = val
		}
	}

	offset := (page - 1) * limit

	projectID := projectScope(r)
	reports, total, err := db.GetReports(ctx, projectID, limit, offset)
	if err != nil {
		log.Printf("GetReports error for project %q: %v", projectID, err)
		h.sendError(w, http.StatusInternalServerError, "failed to get reports")
		return
	}

	if reports == nil {
		reports = []db.Report{}
	}

	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	// Swap stored object paths for presigned links
	if storage.Available() {
		for i := range reports {
			if reports[i].FileURL == "" {
				continue
			}
			if u, err := storage.GetPresignedURL(ctx, reports[i].FileURL); err == nil {
				reports[i].FileURL = u
			}
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"reports":     reports,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages,
	})
}

// GetReport - GET /api/reports/{id}
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if !db.Available() {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	vars := mux.Vars(r)
	reportID := vars["id"]

	report, err := db.GetReportByID(ctx, reportID)
	if err != nil {
		h.sendError(w, http.StatusNotFound, "report not found")
		return
	}

	if report.FileURL != "" && storage.Available() {
		if u, err := storage.GetPresignedURL(ctx, report.FileURL); err == nil {
			report.FileURL = u
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"report": report,
	})
}

// DeleteReport - DELETE /api/reports/{id}
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if !db.Available() {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	vars := mux.Vars(r)
	reportID := vars["id"]

	// Remove the archived source document first
	if storage.Available() {
		if report, err := db.GetReportByID(ctx, reportID); err == nil && report.FileURL != "" {
			if err := storage.DeleteDocument(ctx, report.FileURL); err != nil {
				log.Printf("Warning: failed to delete archived file for report %s: %v", reportID, err)
			}
		}
	}

	if err := db.DeleteReport(ctx, reportID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.sendError(w, http.StatusNotFound, "report not found")
			return
		}
		h.sendError(w, http.StatusInternalServerError, "failed to delete report")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "report deleted",
	})
}

// GetStats - GET /api/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if !db.Available() {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	stats, err := db.GetMonthlyStats(ctx, projectScope(r))
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	response := map[string]interface{}{
		"success": true,
		"stats":   stats,
	}
	if claims, err := auth.GetClaimsFromContext(ctx); err == nil {
		response["project"] = claims.ProjectAlias
	}

	json.NewEncoder(w).Encode(response)
}

// GetReportFile - GET /api/reports/{id}/file - Proxy the archived source
// document out of MinIO
func (h *Handler) GetReportFile(w http.ResponseWriter, r *http.Request) {
	if !storage.Available() {
		http.Error(w, "storage not available", http.StatusServiceUnavailable)
		return
	}

	if !db.Available() {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	vars := mux.Vars(r)
	reportID := vars["id"]

	var fileURL string
	err := db.Pool.QueryRow(r.Context(),
		"SELECT COALESCE(file_url, '') FROM reports WHERE id = $1::uuid", reportID,
	).Scan(&fileURL)
	if err != nil || fileURL == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	// Remove bucket prefix to get object name
	objectName := strings.TrimPrefix(fileURL, storage.BucketName+"/")

	obj, err := storage.Client.GetObject(r.Context(), storage.BucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		log.Printf("GetReportFile: MinIO error: %v", err)
		http.Error(w, "file not available", http.StatusInternalServerError)
		return
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		log.Printf("GetReportFile: Stat error: %v", err)
		http.Error(w, "file not available", http.StatusInternalServerError)
		return
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	io.Copy(w, obj)
}
