package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/NextFutureHub/ocr-quality-service/internal/ai"
	"github.com/NextFutureHub/ocr-quality-service/internal/auth"
	"github.com/NextFutureHub/ocr-quality-service/internal/db"
	"github.com/NextFutureHub/ocr-quality-service/internal/extract"
	"github.com/NextFutureHub/ocr-quality-service/internal/imgproc"
	"github.com/NextFutureHub/ocr-quality-service/internal/layout"
	"github.com/NextFutureHub/ocr-quality-service/internal/metrics"
	"github.com/NextFutureHub/ocr-quality-service/internal/models"
	"github.com/NextFutureHub/ocr-quality-service/internal/ocr"
	"github.com/NextFutureHub/ocr-quality-service/internal/pdf"
	"github.com/NextFutureHub/ocr-quality-service/internal/storage"
)

const (
	MaxUploadSize      = 10 * 1024 * 1024  // 10MB per image
	MaxPDFUploadSize   = 50 * 1024 * 1024  // 50MB per PDF
	MaxBatchUploadSize = 100 * 1024 * 1024 // 100MB across a batch
	Version            = "1.2.0"
)

// allowedExtensions lists the upload formats the recognition pipeline
// accepts.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
	".pdf":  true,
}

// Handler handles HTTP requests for document recognition and quality
// assessment
type Handler struct {
	config     *models.Config
	segmenter  *layout.Segmenter
	recognizer *ocr.Recognizer
	engines    []ocr.Engine
	vision     ocr.Engine
	pdf        *pdf.Processor
}

// NewHandler creates a new API handler with the shared recognition stack
func NewHandler(config *models.Config) *Handler {
	h := &Handler{
		config: config,
		segmenter: layout.New(layout.Config{
			MinConfidence:   config.Layout.MinConfidence,
			GapFraction:     config.Layout.GapFraction,
			MinPairEvidence: config.Layout.MinPairEvidence,
			MinSizeRatio:    config.Layout.MinSizeRatio,
		}),
	}

	h.engines = ocr.NewTesseractEngines(config.OCR)
	if config.AI.UseVision {
		provider, err := h.visionProvider()
		if err != nil {
			log.Printf("Warning: vision engine disabled: %v", err)
		} else {
			h.vision = ocr.NewVisionEngine(provider)
			h.engines = append(h.engines, h.vision)
		}
	}
	h.recognizer = ocr.NewRecognizer(h.engines, config.OCR)
	h.pdf = pdf.NewProcessor(h.recognizer)

	return h
}

// visionProvider builds the configured AI provider for vision
// transcription
func (h *Handler) visionProvider() (ai.Provider, error) {
	cfg := h.config.AI
	switch cfg.DefaultProvider {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai: no API key configured")
		}
		model := cfg.OpenAI.Model
		if model == "" {
			model = "gpt-4o"
		}
		return ai.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, model), nil

	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini: no API key configured")
		}
		model := cfg.Gemini.Model
		if model == "" {
			model = "gemini-1.5-flash"
		}
		return ai.NewGeminiProvider(cfg.Gemini.APIKey, model), nil

	case "ollama":
		baseURL := cfg.Ollama.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model := cfg.Ollama.Model
		if model == "" {
			model = "llava"
		}
		return ai.NewOllamaProvider(baseURL, model), nil

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.DefaultProvider)
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Recognition endpoints
	router.HandleFunc("/api/ocr/process", h.ProcessDocument).Methods("POST")
	router.HandleFunc("/api/ocr/batch", h.ProcessBatch).Methods("POST")
	router.HandleFunc("/api/ocr/test", h.TestOCR).Methods("POST")

	// Assessment endpoints
	router.HandleFunc("/api/metrics/calculate", h.CalculateMetrics).Methods("POST")
	router.HandleFunc("/api/noise/process", h.ProcessNoise).Methods("POST")

	// PDF endpoint
	router.HandleFunc("/api/pdf/process", h.ProcessPDF).Methods("POST")

	// Stored reports
	router.HandleFunc("/api/reports", h.GetReports).Methods("GET")
	router.HandleFunc("/api/reports/{id}", h.GetReport).Methods("GET")
	router.HandleFunc("/api/reports/{id}", h.DeleteReport).Methods("DELETE")
	router.HandleFunc("/api/reports/{id}/file", h.GetReportFile).Methods("GET")

	// Statistics
	router.HandleFunc("/api/stats", h.GetStats).Methods("GET")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Memory    MemoryStats       `json:"memory"`
	Engines   []string          `json:"engines"`
	Tesseract ServiceStatus     `json:"tesseract"`
	Database  ServiceStatus     `json:"database"`
	Storage   ServiceStatus     `json:"storage"`
	AI        map[string]string `json:"ai"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint - enhanced for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Memory statistics
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// Check services
	tesseractStatus := h.checkTesseract()
	databaseStatus := h.checkDatabase()
	storageStatus := h.checkStorage()

	engineNames := make([]string, 0, len(h.engines))
	for _, e := range h.engines {
		engineNames = append(engineNames, e.Name())
	}

	// Build response
	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Engines:   engineNames,
		Tesseract: tesseractStatus,
		Database:  databaseStatus,
		Storage:   storageStatus,
		AI: map[string]string{
			"defaultProvider": h.config.AI.DefaultProvider,
			"visionEnabled":   fmt.Sprintf("%t", h.vision != nil),
		},
	}

	// Database and storage are optional; only a missing recognizer
	// marks the service degraded.
	if !tesseractStatus.Available {
		response.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

// checkTesseract verifies Tesseract OCR is available
func (h *Handler) checkTesseract() ServiceStatus {
	cmd := exec.Command("tesseract", "--version")
	output, err := cmd.CombinedOutput()

	if err != nil {
		return ServiceStatus{
			Available: false,
			Error:     "tesseract not found or not executable",
		}
	}

	version := "unknown"
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		version = strings.TrimSpace(lines[0])
	}

	return ServiceStatus{
		Available: true,
		Version:   version,
	}
}

// checkDatabase verifies PostgreSQL connection
func (h *Handler) checkDatabase() ServiceStatus {
	if !db.Available() {
		return ServiceStatus{
			Available: false,
			Error:     "database pool not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "PostgreSQL",
	}
}

// checkStorage verifies MinIO connection
func (h *Handler) checkStorage() ServiceStatus {
	if !storage.Available() {
		return ServiceStatus{
			Available: false,
			Error:     "storage client not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "MinIO S3",
	}
}

// processOptions carries the optional form values of a processing request.
type processOptions struct {
	GroundTruth    string
	Language       string
	Engine         string
	ExpectedFields []string
	Schema         string
}

func parseOptions(r *http.Request) processOptions {
	return processOptions{
		GroundTruth:    r.FormValue("ground_truth"),
		Language:       r.FormValue("language"),
		Engine:         r.FormValue("engine"),
		ExpectedFields: parseFieldList(r.FormValue("expected_fields")),
		Schema:         r.FormValue("schema"),
	}
}

// parseFieldList accepts either a JSON array or a comma-separated list of
// field names.
func parseFieldList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var fields []string
		if err := json.Unmarshal([]byte(raw), &fields); err == nil {
			return fields
		}
	}

	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// ProcessDocument handles a single upload through the full pipeline:
// recognition, column segmentation, field extraction and quality metrics
func (h *Handler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	// Parse multipart form
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "File too large or invalid form data")
		return
	}

	// Get file - accept both "file" and "image" field names
	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("image")
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' or 'image' field)")
			return
		}
	}
	defer file.Close()

	if !allowedExtension(header.Filename) {
		h.sendError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type %q", filepath.Ext(header.Filename)))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	if len(data) == 0 {
		h.sendError(w, http.StatusBadRequest, "Empty file")
		return
	}

	opts := parseOptions(r)
	if code, msg := validateOptions(opts); code != 0 {
		h.sendError(w, code, msg)
		return
	}

	resp, engine, err := h.processUpload(ctx, header.Filename, data, opts)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Processing failed: %v", err))
		return
	}

	claims, _ := auth.GetClaimsFromContext(ctx)
	h.saveReport(ctx, claims, header.Filename, engine, h.languageLabel(opts.Language), data, header.Header.Get("Content-Type"), resp)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// ProcessBatch runs the pipeline over every file of a multipart batch.
// Per-file failures land in the result list instead of failing the call
func (h *Handler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, MaxBatchUploadSize)
	if err := r.ParseMultipartForm(MaxBatchUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "Batch too large or invalid form data")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		h.sendError(w, http.StatusBadRequest, "No files provided (use 'files' field)")
		return
	}

	opts := parseOptions(r)
	if code, msg := validateOptions(opts); code != 0 {
		h.sendError(w, code, msg)
		return
	}

	// Ground truths pair with files by position.
	groundTruths := r.MultipartForm.Value["ground_truths"]

	claims, _ := auth.GetClaimsFromContext(ctx)

	resp := models.BatchResponse{Results: make([]models.BatchItem, 0, len(files))}
	var collected []metrics.QualityMetrics

	for i, fh := range files {
		item := models.BatchItem{Filename: fh.Filename}

		fileOpts := opts
		if i < len(groundTruths) {
			fileOpts.GroundTruth = groundTruths[i]
		}

		data, err := readUpload(fh)
		if err == nil && !allowedExtension(fh.Filename) {
			err = fmt.Errorf("unsupported file type %q", filepath.Ext(fh.Filename))
		}

		var result *models.ProcessResponse
		var engine string
		if err == nil {
			result, engine, err = h.processUpload(ctx, fh.Filename, data, fileOpts)
		}

		if err != nil {
			item.Error = err.Error()
			resp.Failed++
		} else {
			item.Result = result
			resp.Processed++
			if result.Metrics != nil {
				collected = append(collected, *result.Metrics)
			}
			h.saveReport(ctx, claims, fh.Filename, engine, h.languageLabel(fileOpts.Language), data, fh.Header.Get("Content-Type"), result)
		}

		resp.Results = append(resp.Results, item)
	}

	if len(collected) > 0 {
		summary := metrics.Summarize(collected)
		resp.Summary = &summary
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// MetricsRequest is the body of a metrics calculation call
type MetricsRequest struct {
	ExtractedText string `json:"extracted_text"`
	GroundTruth   string `json:"ground_truth"`
}

// MetricsResponse carries the quality metrics plus their single-number
// collapse
type MetricsResponse struct {
	metrics.QualityMetrics
	OverallScore float64 `json:"overall_score"`
}

// CalculateMetrics compares an extracted text against its ground truth
// without running any recognition
func (h *Handler) CalculateMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req MetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.GroundTruth == "" {
		h.sendError(w, http.StatusBadRequest, "ground_truth is required")
		return
	}

	m := metrics.Compute(req.ExtractedText, req.GroundTruth)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(MetricsResponse{
		QualityMetrics: m,
		OverallScore:   m.OverallScore(),
	})
}

// ProcessNoise cleans a noisy scan before recognition and reports how much
// noise the cleaning chain removed
func (h *Handler) ProcessNoise(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "File too large or invalid form data")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		file, _, err = r.FormFile("image")
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' or 'image' field)")
			return
		}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	if len(data) == 0 {
		h.sendError(w, http.StatusBadRequest, "Empty file")
		return
	}

	before := imgproc.NoiseLevel(data)
	cleaned := imgproc.Clean(data)
	after := imgproc.NoiseLevel(cleaned)

	res := h.recognizerFor(r.FormValue("language"), r.FormValue("engine")).Recognize(ctx, cleaned)

	resp := models.NoiseResponse{
		ExtractedText:    res.Text,
		NoiseRemoved:     after < before,
		NoiseLevelBefore: before,
		NoiseLevel:       after,
		CleanedImage:     base64.StdEncoding.EncodeToString(cleaned),
	}
	if gt := r.FormValue("ground_truth"); gt != "" {
		m := metrics.Compute(res.Text, gt)
		resp.Metrics = &m
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// ProcessPDF handles PDF uploads: text layer first, OCR over embedded page
// images where the layer is missing, plus per-page column breakdown
func (h *Handler) ProcessPDF(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, MaxPDFUploadSize)
	if err := r.ParseMultipartForm(MaxPDFUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "File too large or invalid form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' field)")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	if len(data) == 0 {
		h.sendError(w, http.StatusBadRequest, "Empty file")
		return
	}
	if !pdf.IsPDF(header.Filename, data) {
		h.sendError(w, http.StatusBadRequest, "File must be a PDF")
		return
	}

	opts := parseOptions(r)
	if code, msg := validateOptions(opts); code != 0 {
		h.sendError(w, code, msg)
		return
	}

	doc, err := h.pdf.Process(ctx, data)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("PDF processing failed: %v", err))
		return
	}

	resp := models.PDFResponse{
		PDFInfo:  doc.Info,
		FileType: "PDF",
	}
	resp.ExtractedText = doc.Text()
	resp.Columns = h.segmenter.SegmentText(resp.ExtractedText)
	h.assess(&resp.ProcessResponse, opts)

	for _, page := range doc.Pages {
		segments := h.segmenter.SegmentText(page.Text)
		resp.Pages = append(resp.Pages, models.PageResult{
			Page:               page.Number,
			Text:               page.Text,
			Method:             page.Method,
			ColumnsCount:       len(segments),
			HasMultipleColumns: layout.HasMultipleColumns(segments),
		})
	}

	resp.ProcessingTime = time.Since(start).Seconds()

	claims, _ := auth.GetClaimsFromContext(ctx)
	h.saveReport(ctx, claims, header.Filename, "pdf", h.languageLabel(opts.Language), data, "application/pdf", &resp.ProcessResponse)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// TestOCR runs the recognizer against a synthetic image rendered on the
// fly, so the pipeline can be checked without uploading anything
func (h *Handler) TestOCR(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	img := image.NewRGBA(image.Rect(0, 0, 400, 100))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	d := font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString("OCR quality check 123")

	data, err := imgproc.EncodePNG(img)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to build test image")
		return
	}

	res := h.recognizer.Recognize(r.Context(), data)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":         "success",
		"extracted_text": res.Text,
		"engine":         res.Engine,
		"candidates":     res.Candidates,
	})
}

// processUpload runs the whole assessment pipeline for one uploaded file
// and reports which engine produced the winning transcript. PDFs take the
// text-layer path; everything else goes through the recognizer.
func (h *Handler) processUpload(ctx context.Context, filename string, data []byte, opts processOptions) (*models.ProcessResponse, string, error) {
	start := time.Now()

	var (
		resp   models.ProcessResponse
		engine string
	)
	if pdf.IsPDF(filename, data) {
		doc, err := h.pdf.Process(ctx, data)
		if err != nil {
			return nil, "", err
		}
		resp.ExtractedText = doc.Text()
		resp.Columns = h.segmenter.SegmentText(resp.ExtractedText)
		engine = "pdf"
	} else {
		res := h.recognizerFor(opts.Language, opts.Engine).Recognize(ctx, data)
		resp.ExtractedText = res.Text
		resp.Columns = h.segmenter.SegmentFragments(res.Fragments, res.Width)
		engine = res.Engine
	}

	h.assess(&resp, opts)
	resp.ProcessingTime = time.Since(start).Seconds()

	return &resp, engine, nil
}

// assess fills the text-quality half of a response: structured fields,
// validity checks, metrics against the ground truth and column counters.
func (h *Handler) assess(resp *models.ProcessResponse, opts processOptions) {
	resp.StructuredData = extract.Fields(resp.ExtractedText, opts.ExpectedFields)
	resp.JSONValidity = extract.ValidateJSON(resp.StructuredData)

	// Without a requested schema the data is trivially consistent.
	resp.SchemaConsistency = true
	if opts.Schema != "" {
		if schema, ok := extract.SchemaByName(opts.Schema); ok {
			resp.SchemaConsistency = schema.Validate(resp.StructuredData)
		}
	}

	if opts.GroundTruth != "" {
		m := metrics.Compute(resp.ExtractedText, opts.GroundTruth)
		resp.Metrics = &m
	}

	resp.ColumnsCount = len(resp.Columns)
	resp.HasMultipleColumns = layout.HasMultipleColumns(resp.Columns)
}

// validateOptions rejects option values that would otherwise fail deep in
// the pipeline. A zero code means the options are usable.
func validateOptions(opts processOptions) (int, string) {
	if opts.Schema != "" {
		if _, ok := extract.SchemaByName(opts.Schema); !ok {
			return http.StatusBadRequest, fmt.Sprintf("Unknown schema %q", opts.Schema)
		}
	}
	return 0, ""
}

// recognizerFor returns the shared recognizer, or builds a request-scoped
// one when the caller overrides the language or restricts the engine set.
// Engine filters match by name prefix, so "tesseract" selects every PSM
// variant and "vision" the AI engine.
func (h *Handler) recognizerFor(language, engine string) *ocr.Recognizer {
	if language == "" && engine == "" {
		return h.recognizer
	}

	cfg := h.config.OCR
	engines := h.engines
	if language != "" {
		cfg.Languages = language
		engines = ocr.NewTesseractEngines(cfg)
		if h.vision != nil {
			engines = append(engines, h.vision)
		}
	}

	if engine != "" {
		selected := make([]ocr.Engine, 0, len(engines))
		for _, e := range engines {
			if strings.HasPrefix(e.Name(), engine) {
				selected = append(selected, e)
			}
		}
		if len(selected) == 0 {
			log.Printf("Warning: no engine matches %q, using all engines", engine)
		} else {
			engines = selected
		}
	}

	return ocr.NewRecognizer(engines, cfg)
}

// languageLabel is the language recorded with a report.
func (h *Handler) languageLabel(override string) string {
	if override != "" {
		return override
	}
	return h.config.OCR.Languages
}

// saveReport archives the source document and records the processing
// outcome. Failures only log; the response is already complete without
// them.
func (h *Handler) saveReport(ctx context.Context, claims *auth.Claims, filename, engine, language string, data []byte, contentType string, resp *models.ProcessResponse) {
	if !db.Available() {
		return
	}

	project := "default"
	var projectID *uuid.UUID
	if claims != nil {
		if id, err := uuid.Parse(claims.ProjectID); err == nil {
			projectID = &id
		}
		if claims.ProjectAlias != "" {
			project = claims.ProjectAlias
		}
	}

	var fileURL string
	if storage.Available() {
		url, err := storage.UploadDocument(ctx, project, filename, bytes.NewReader(data), int64(len(data)), contentType)
		if err != nil {
			log.Printf("Warning: failed to archive %s: %v", filename, err)
		} else {
			fileURL = url
		}
	}

	report := &db.Report{
		ProjectID: projectID,
		Filename:  filename,
		Engine:    engine,
		Language:  language,
		Text:      resp.ExtractedText,
		FileURL:   fileURL,
	}
	if resp.Metrics != nil {
		if b, err := json.Marshal(resp.Metrics); err == nil {
			report.MetricsJSON = string(b)
		}
		cer, wer := resp.Metrics.CER, resp.Metrics.WER
		report.CER, report.WER = &cer, &wer
	}
	if len(resp.Columns) > 0 {
		if b, err := json.Marshal(resp.Columns); err == nil {
			report.SegmentsJSON = string(b)
		}
	}

	if err := db.SaveReport(ctx, report); err != nil {
		log.Printf("Warning: failed to save report for %s: %v", filename, err)
	}
}

// readUpload extracts the bytes of one file of a multipart batch.
func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > MaxUploadSize {
		return nil, fmt.Errorf("file too large (maximum %d MB)", MaxUploadSize/1024/1024)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	return data, nil
}

func allowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
