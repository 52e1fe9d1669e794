package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"reflect"
	"strings"
	"testing"

	"github.com/NextFutureHub/ocr-quality-service/internal/db"
	"github.com/NextFutureHub/ocr-quality-service/internal/imgproc"
	"github.com/NextFutureHub/ocr-quality-service/internal/models"
	"github.com/NextFutureHub/ocr-quality-service/internal/ocr"
	"github.com/NextFutureHub/ocr-quality-service/internal/pdf"
)

// stubEngine returns one fixed fragment for every candidate, so recognition
// results are deterministic without a real engine.
type stubEngine struct {
	text string
}

func (e *stubEngine) Name() string { return "stub" }

func (e *stubEngine) Recognize(_ context.Context, _ []byte) ([]models.Fragment, error) {
	return []models.Fragment{{Text: e.text, Confidence: 0.9}}, nil
}

func newTestHandler(text string) *Handler {
	config := &models.Config{}
	config.OCR.Languages = "rus+eng"

	h := NewHandler(config)
	h.engines = []ocr.Engine{&stubEngine{text: text}}
	h.recognizer = ocr.NewRecognizer(h.engines, config.OCR)
	h.pdf = pdf.NewProcessor(h.recognizer)
	return h
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	data, err := imgproc.EncodePNG(img)
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return data
}

func grayImage(value uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, 80, 40))
	for i := range img.Pix {
		img.Pix[i] = value
	}
	return img
}

func noisyImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 60, 60))
	for i := range img.Pix {
		img.Pix[i] = uint8((i * 37) % 251)
	}
	return img
}

// buildTextPDF writes a one-page PDF whose content stream draws the given
// ASCII text. Object offsets are recorded while writing so the xref table
// is correct by construction.
func buildTextPDF(t *testing.T, text string) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>")
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

type formFile struct {
	field    string
	filename string
	data     []byte
}

func multipartBody(t *testing.T, files []formFile, values map[string][]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		if _, err := fw.Write(f.data); err != nil {
			t.Fatalf("writing form file: %v", err)
		}
	}
	for key, vals := range values {
		for _, v := range vals {
			if err := mw.WriteField(key, v); err != nil {
				t.Fatalf("writing form value: %v", err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing form: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func postMultipart(t *testing.T, h *Handler, path string, files []formFile, values map[string][]string) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, files, values)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)

	rr := httptest.NewRecorder()
	h.SetupRoutes().ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q: %v", rr.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler("любой текст")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.SetupRoutes().ServeHTTP(rr, req)

	var resp HealthResponse
	decodeJSON(t, rr, &resp)

	if resp.Version != Version {
		t.Errorf("version = %q, want %q", resp.Version, Version)
	}
	if !reflect.DeepEqual(resp.Engines, []string{"stub"}) {
		t.Errorf("engines = %v, want [stub]", resp.Engines)
	}
	if resp.Database.Available {
		t.Error("database should not be available in tests")
	}
	if resp.AI["visionEnabled"] != "false" {
		t.Errorf("visionEnabled = %q, want false", resp.AI["visionEnabled"])
	}

	if _, err := exec.LookPath("tesseract"); err != nil {
		if rr.Code != http.StatusServiceUnavailable || resp.Status != "degraded" {
			t.Errorf("without tesseract: code %d status %q, want 503 degraded", rr.Code, resp.Status)
		}
	} else {
		if rr.Code != http.StatusOK || resp.Status != "healthy" {
			t.Errorf("with tesseract: code %d status %q, want 200 healthy", rr.Code, resp.Status)
		}
	}
}

func TestProcessDocumentImage(t *testing.T) {
	text := "Имя: Иванов Иван\nEmail: Test@Mail.ru"
	h := newTestHandler(text)

	rr := postMultipart(t, h, "/api/ocr/process",
		[]formFile{{"file", "scan.png", encodePNG(t, grayImage(255))}},
		map[string][]string{
			"ground_truth":    {text},
			"expected_fields": {"name,email"},
		})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp models.ProcessResponse
	decodeJSON(t, rr, &resp)

	if resp.ExtractedText != text {
		t.Errorf("extracted_text = %q, want %q", resp.ExtractedText, text)
	}
	if resp.StructuredData["email"] != "test@mail.ru" {
		t.Errorf("email = %q, want test@mail.ru", resp.StructuredData["email"])
	}
	if resp.StructuredData["name"] != "Иванов Иван" {
		t.Errorf("name = %q, want Иванов Иван", resp.StructuredData["name"])
	}
	if resp.Metrics == nil {
		t.Fatal("metrics missing despite ground truth")
	}
	if resp.Metrics.CER != 0 || resp.Metrics.ExactMatch != 1 {
		t.Errorf("CER = %v exact = %v, want 0 and 1", resp.Metrics.CER, resp.Metrics.ExactMatch)
	}
	if !resp.JSONValidity {
		t.Error("json_validity should be true")
	}
	if !resp.SchemaConsistency {
		t.Error("schema_consistency should default to true")
	}
	if resp.ProcessingTime < 0 {
		t.Errorf("processing_time = %v", resp.ProcessingTime)
	}
}

func TestProcessDocumentSchema(t *testing.T) {
	cases := []struct {
		name       string
		text       string
		schema     string
		consistent bool
	}{
		{"person satisfied", "Имя: Петров Петр", "person_document", true},
		{"person missing name", "Email: a@b.ru", "person_document", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(tc.text)
			rr := postMultipart(t, h, "/api/ocr/process",
				[]formFile{{"file", "scan.png", encodePNG(t, grayImage(255))}},
				map[string][]string{
					"schema":          {tc.schema},
					"expected_fields": {"name,email"},
				})

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
			}

			var resp models.ProcessResponse
			decodeJSON(t, rr, &resp)
			if resp.SchemaConsistency != tc.consistent {
				t.Errorf("schema_consistency = %v, want %v", resp.SchemaConsistency, tc.consistent)
			}
		})
	}
}

func TestProcessDocumentRejects(t *testing.T) {
	h := newTestHandler("текст")

	t.Run("no file", func(t *testing.T) {
		rr := postMultipart(t, h, "/api/ocr/process", nil, map[string][]string{"language": {"eng"}})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		rr := postMultipart(t, h, "/api/ocr/process",
			[]formFile{{"file", "notes.txt", []byte("plain text")}}, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		rr := postMultipart(t, h, "/api/ocr/process",
			[]formFile{{"file", "scan.png", nil}}, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("unknown schema", func(t *testing.T) {
		rr := postMultipart(t, h, "/api/ocr/process",
			[]formFile{{"file", "scan.png", encodePNG(t, grayImage(255))}},
			map[string][]string{"schema": {"bogus"}})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})
}

func TestProcessDocumentTextPDF(t *testing.T) {
	text := "Email: report@test.ru quality assessment run"
	h := newTestHandler("никогда не используется")

	rr := postMultipart(t, h, "/api/ocr/process",
		[]formFile{{"file", "report.pdf", buildTextPDF(t, text)}},
		map[string][]string{
			"ground_truth":    {text},
			"expected_fields": {"email"},
		})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp models.ProcessResponse
	decodeJSON(t, rr, &resp)

	if !strings.Contains(resp.ExtractedText, "report@test.ru") {
		t.Errorf("extracted_text = %q, want the PDF text layer", resp.ExtractedText)
	}
	if resp.StructuredData["email"] != "report@test.ru" {
		t.Errorf("email = %q", resp.StructuredData["email"])
	}
	if resp.Metrics == nil || resp.Metrics.CER != 0 {
		t.Errorf("metrics = %+v, want CER 0", resp.Metrics)
	}
}

func TestProcessPDFEndpoint(t *testing.T) {
	text := "Contract number 42 signed on 01.02.2024"
	h := newTestHandler("не используется")

	rr := postMultipart(t, h, "/api/pdf/process",
		[]formFile{{"file", "contract.pdf", buildTextPDF(t, text)}},
		map[string][]string{"ground_truth": {text}})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp models.PDFResponse
	decodeJSON(t, rr, &resp)

	if resp.FileType != "PDF" {
		t.Errorf("file_type = %q, want PDF", resp.FileType)
	}
	if resp.PDFInfo.Pages != 1 {
		t.Errorf("pages = %d, want 1", resp.PDFInfo.Pages)
	}
	if resp.PDFInfo.Encrypted {
		t.Error("encrypted should be false")
	}
	if len(resp.Pages) != 1 {
		t.Fatalf("page results = %d, want 1", len(resp.Pages))
	}
	if resp.Pages[0].Method != pdf.MethodText {
		t.Errorf("method = %q, want %q", resp.Pages[0].Method, pdf.MethodText)
	}
	if !strings.Contains(resp.Pages[0].Text, "Contract number 42") {
		t.Errorf("page text = %q", resp.Pages[0].Text)
	}
	if resp.Metrics == nil || resp.Metrics.CER != 0 {
		t.Errorf("metrics = %+v, want CER 0", resp.Metrics)
	}
}

func TestProcessPDFRejects(t *testing.T) {
	h := newTestHandler("не используется")

	t.Run("not a pdf", func(t *testing.T) {
		rr := postMultipart(t, h, "/api/pdf/process",
			[]formFile{{"file", "scan.png", encodePNG(t, grayImage(255))}}, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("unreadable pdf", func(t *testing.T) {
		rr := postMultipart(t, h, "/api/pdf/process",
			[]formFile{{"file", "junk.pdf", []byte("%PDF-1.4 not really")}}, nil)
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rr.Code)
		}
	})
}

func TestProcessBatch(t *testing.T) {
	text := "Email: batch@test.ru first document"
	h := newTestHandler("не используется")

	rr := postMultipart(t, h, "/api/ocr/batch",
		[]formFile{
			{"files", "one.pdf", buildTextPDF(t, text)},
			{"files", "notes.txt", []byte("plain")},
		},
		map[string][]string{"ground_truths": {text}})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp models.BatchResponse
	decodeJSON(t, rr, &resp)

	if resp.Processed != 1 || resp.Failed != 1 {
		t.Errorf("processed/failed = %d/%d, want 1/1", resp.Processed, resp.Failed)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}
	if resp.Results[0].Result == nil || resp.Results[0].Error != "" {
		t.Errorf("first result = %+v, want success", resp.Results[0])
	}
	if resp.Results[1].Error == "" {
		t.Error("second result should carry an error")
	}
	if resp.Summary == nil {
		t.Fatal("summary missing despite ground truth")
	}
	if resp.Summary.AverageCER != 0 {
		t.Errorf("average CER = %v, want 0", resp.Summary.AverageCER)
	}
}

func TestCalculateMetricsEndpoint(t *testing.T) {
	h := newTestHandler("не используется")
	router := h.SetupRoutes()

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/metrics/calculate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("perfect match", func(t *testing.T) {
		rr := post(`{"extracted_text": "Привет мир", "ground_truth": "Привет мир"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		var resp MetricsResponse
		decodeJSON(t, rr, &resp)
		if resp.CER != 0 || resp.WER != 0 || resp.ExactMatch != 1 {
			t.Errorf("metrics = %+v", resp.QualityMetrics)
		}
		if resp.OverallScore != 100 {
			t.Errorf("overall_score = %v, want 100", resp.OverallScore)
		}
	})

	t.Run("partial match", func(t *testing.T) {
		rr := post(`{"extracted_text": "привет", "ground_truth": "привет мир"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		var resp MetricsResponse
		decodeJSON(t, rr, &resp)
		if resp.CER <= 0 || resp.CER > 1 {
			t.Errorf("CER = %v, want within (0,1]", resp.CER)
		}
	})

	t.Run("missing ground truth", func(t *testing.T) {
		if rr := post(`{"extracted_text": "привет"}`); rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		if rr := post(`{broken`); rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})
}

func TestProcessNoiseEndpoint(t *testing.T) {
	text := "восстановленный текст"
	h := newTestHandler(text)

	rr := postMultipart(t, h, "/api/noise/process",
		[]formFile{{"file", "noisy.png", encodePNG(t, noisyImage())}},
		map[string][]string{"ground_truth": {text}})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp models.NoiseResponse
	decodeJSON(t, rr, &resp)

	if resp.ExtractedText != text {
		t.Errorf("extracted_text = %q, want %q", resp.ExtractedText, text)
	}
	if resp.NoiseLevelBefore <= 0 {
		t.Errorf("noise_level_before = %v, want > 0", resp.NoiseLevelBefore)
	}
	if resp.CleanedImage == "" {
		t.Fatal("cleaned_image missing")
	}
	cleaned, err := base64.StdEncoding.DecodeString(resp.CleanedImage)
	if err != nil {
		t.Fatalf("cleaned_image is not base64: %v", err)
	}
	if _, err := imgproc.Decode(cleaned); err != nil {
		t.Fatalf("cleaned_image does not decode: %v", err)
	}
	if resp.Metrics == nil || resp.Metrics.CER != 0 {
		t.Errorf("metrics = %+v, want CER 0", resp.Metrics)
	}
}

func TestTestOCREndpoint(t *testing.T) {
	text := "проверочная строка"
	h := newTestHandler(text)

	req := httptest.NewRequest(http.MethodPost, "/api/ocr/test", nil)
	rr := httptest.NewRecorder()
	h.SetupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp map[string]interface{}
	decodeJSON(t, rr, &resp)

	if resp["status"] != "success" {
		t.Errorf("status = %v", resp["status"])
	}
	if resp["extracted_text"] != text {
		t.Errorf("extracted_text = %v, want %q", resp["extracted_text"], text)
	}
	if resp["engine"] != "stub" {
		t.Errorf("engine = %v, want stub", resp["engine"])
	}
}

func TestReportEndpointsWithoutDatabase(t *testing.T) {
	if db.Available() {
		t.Skip("database configured in environment")
	}

	h := newTestHandler("не используется")
	router := h.SetupRoutes()

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/reports"},
		{http.MethodGet, "/api/reports/550e8400-e29b-41d4-a716-446655440000"},
		{http.MethodDelete, "/api/reports/550e8400-e29b-41d4-a716-446655440000"},
		{http.MethodGet, "/api/stats"},
		{http.MethodGet, "/api/reports/550e8400-e29b-41d4-a716-446655440000/file"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s: status = %d, want 503", tc.method, tc.path, rr.Code)
		}
	}
}

func TestParseFieldList(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"email", []string{"email"}},
		{" name , phone ", []string{"name", "phone"}},
		{`["email","inn"]`, []string{"email", "inn"}},
	}

	for _, tc := range cases {
		if got := parseFieldList(tc.raw); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseFieldList(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
