package transport

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NAITIK-builds/Civitas/internal/authenticity"
	"github.com/NAITIK-builds/Civitas/internal/config"
	"github.com/NAITIK-builds/Civitas/internal/exif"
	"github.com/NAITIK-builds/Civitas/internal/geotime"
	"github.com/NAITIK-builds/Civitas/internal/scene"
	"github.com/NAITIK-builds/Civitas/internal/verification"
	"github.com/NAITIK-builds/Civitas/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		DetectorTimeout:    time.Second,
		MaxRequestBodySize: 10 << 20,
		StorageBackend:     "http",
		Verification:       config.DefaultVerificationConfig(),
	}
	service := verification.NewService(
		cfg.Verification,
		exif.NewExtractor(),
		geotime.NewValidator(cfg.Verification),
		authenticity.NewAnalyzer(cfg.Verification),
		scene.NewRegistry(cfg.Verification),
		nil,
	)
	return NewHandler(service, nil, nil, nil, cfg)
}

func testPhotoPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.RGBA{120, 120, 120, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test photo: %v", err)
	}
	return buf.Bytes()
}

type multipartRequest struct {
	fields map[string]string
	files  map[string][][]byte
}

func (m multipartRequest) build(t *testing.T, target string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range m.fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	for field, payloads := range m.files {
		for i, payload := range payloads {
			part, err := writer.CreateFormFile(field, "photo-"+string(rune('a'+i))+".png")
			if err != nil {
				t.Fatalf("creating file part: %v", err)
			}
			part.Write(payload)
		}
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func requirementFields() map[string]string {
	return map[string]string{
		"task_type":       "tree_planting",
		"location_lat":    "28.6139",
		"location_lng":    "77.2090",
		"location_radius": "100",
		"deadline_start":  time.Now().Add(-24 * time.Hour).Format(time.RFC3339),
		"deadline_end":    time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["status"] != "available" {
		t.Errorf("unexpected status: %v", resp["status"])
	}
}

func TestVerifyPhoto_MissingTaskType(t *testing.T) {
	handler := newTestHandler(t)
	fields := requirementFields()
	delete(fields, "task_type")

	req := multipartRequest{
		fields: fields,
		files:  map[string][][]byte{"photo": {testPhotoPNG(t)}},
	}.build(t, "/verify-photo")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestVerifyPhoto_MissingPhoto(t *testing.T) {
	handler := newTestHandler(t)
	req := multipartRequest{fields: requirementFields()}.build(t, "/verify-photo")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestVerifyPhoto_ReturnsStructuredResult(t *testing.T) {
	handler := newTestHandler(t)
	req := multipartRequest{
		fields: requirementFields(),
		files:  map[string][][]byte{"photo": {testPhotoPNG(t)}},
	}.build(t, "/verify-photo")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result models.VerificationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid result JSON: %v", err)
	}
	// A bare test PNG has no EXIF block, so the hard gates must fail.
	if result.IsValid {
		t.Error("a metadata-less photo must not verify")
	}
	if result.ID == "" {
		t.Error("expected a result ID")
	}
	if len(result.Issues) == 0 {
		t.Error("expected issues for a metadata-less photo")
	}
}

func TestVerifyPhotoBatch(t *testing.T) {
	handler := newTestHandler(t)
	photo := testPhotoPNG(t)
	req := multipartRequest{
		fields: requirementFields(),
		files:  map[string][][]byte{"photos": {photo, photo}},
	}.build(t, "/verify-photo/batch")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var batch models.BatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &batch); err != nil {
		t.Fatalf("invalid batch JSON: %v", err)
	}
	if batch.TotalPhotos != 2 || len(batch.Results) != 2 {
		t.Errorf("expected 2 results, got total=%d len=%d", batch.TotalPhotos, len(batch.Results))
	}
	if batch.OverallValid {
		t.Error("metadata-less photos must not produce a passing batch")
	}
}

func TestVerifyPhotoBatch_NoPhotos(t *testing.T) {
	handler := newTestHandler(t)
	req := multipartRequest{fields: requirementFields()}.build(t, "/verify-photo/batch")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestWatermarkPhoto(t *testing.T) {
	handler := newTestHandler(t)
	req := multipartRequest{
		fields: map[string]string{"user_id": "citizen-42"},
		files:  map[string][][]byte{"photo": {testPhotoPNG(t)}},
	}.build(t, "/watermark-photo")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected a stamped JPEG body")
	}
}

func TestExtractMetadata(t *testing.T) {
	handler := newTestHandler(t)
	req := multipartRequest{
		files: map[string][][]byte{"photo": {testPhotoPNG(t)}},
	}.build(t, "/extract-metadata")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := resp["metadata"]; !ok {
		t.Error("expected a metadata object in the response")
	}
}
