package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/NAITIK-builds/Civitas/internal/config"
	apperrors "github.com/NAITIK-builds/Civitas/internal/errors"
	"github.com/NAITIK-builds/Civitas/internal/logger"
	"github.com/NAITIK-builds/Civitas/internal/observer"
	"github.com/NAITIK-builds/Civitas/internal/storage"
	"github.com/NAITIK-builds/Civitas/internal/verification"
	"github.com/NAITIK-builds/Civitas/internal/watermark"
	"github.com/NAITIK-builds/Civitas/pkg/models"
)

// defaultRadiusMeters applies when the caller omits location_radius.
const defaultRadiusMeters = 100

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Metrics exposes verification counters on the health endpoint.
type Metrics interface {
	GetMetrics() map[string]interface{}
}

type Handler struct {
	service *verification.Service
	fetcher storage.PhotoFetcher
	events  observer.Subject
	metrics Metrics
	cfg     *config.Config
}

// NewHandler builds the HTTP API. fetcher resolves photo_url submissions;
// events and metrics may be nil.
func NewHandler(service *verification.Service, fetcher storage.PhotoFetcher, events observer.Subject, metrics Metrics, cfg *config.Config) http.Handler {
	h := &Handler{
		service: service,
		fetcher: fetcher,
		events:  events,
		metrics: metrics,
		cfg:     cfg,
	}

	r := gin.Default()
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", h.healthCheck)
	r.POST("/verify-photo", h.verifyPhoto)
	r.POST("/verify-photo/batch", h.verifyPhotoBatch)
	r.POST("/extract-metadata", h.extractMetadata)
	r.POST("/watermark-photo", h.watermarkPhoto)

	return r
}

func (h *Handler) verifyPhoto(c *gin.Context) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	logger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"ip":     c.ClientIP(),
	}).Info("Processing photo verification request")

	req, err := parseRequirements(c)
	if err != nil {
		logger.WithError(err).WithField("ip", c.ClientIP()).Error("Invalid task requirements")
		respondError(c, apperrors.GetStatusCode(err), "invalid task requirements", err)
		return
	}

	data, err := h.photoBytes(ctx, c)
	if err != nil {
		logger.WithError(err).WithField("ip", c.ClientIP()).Error("Failed to read photo")
		respondError(c, apperrors.GetStatusCode(err), "failed to read photo", err)
		return
	}

	result := h.service.VerifyPhoto(ctx, data, req)

	logger.WithFields(logrus.Fields{
		"task_type":          req.TaskType,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
		"score":              result.Score,
		"is_valid":           result.IsValid,
	}).Info("Photo verification request completed")

	c.JSON(http.StatusOK, result)
}

func (h *Handler) verifyPhotoBatch(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	req, err := parseRequirements(c)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "invalid task requirements", err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid multipart form", err)
		return
	}
	files := form.File["photos"]
	if len(files) == 0 {
		respondError(c, http.StatusBadRequest, "no photos submitted",
			apperrors.NewValidationError("at least one photos part is required", nil))
		return
	}

	photos := make([]verification.BatchPhoto, len(files))
	for i, file := range files {
		data, readErr := readPart(file)
		photos[i] = verification.BatchPhoto{
			Filename: file.Filename,
			Data:     data,
			Err:      readErr,
		}
	}

	batch := h.service.VerifyBatch(ctx, photos, req)

	logger.WithFields(logrus.Fields{
		"task_type":     req.TaskType,
		"total_photos":  batch.TotalPhotos,
		"valid_photos":  batch.ValidPhotos,
		"overall_valid": batch.OverallValid,
	}).Info("Batch verification request completed")

	c.JSON(http.StatusOK, batch)
}

func (h *Handler) extractMetadata(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	data, err := h.photoBytes(ctx, c)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "failed to read photo", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"metadata": h.service.ExtractMetadata(data)})
}

// watermarkPhoto stamps the submission details onto the photo and returns
// the stamped JPEG. Purely cosmetic: verification outcomes never depend on
// the stamp.
func (h *Handler) watermarkPhoto(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	data, err := h.photoBytes(ctx, c)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "failed to read photo", err)
		return
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		appErr := apperrors.NewUnreadableImageError("could not decode image", err)
		respondError(c, appErr.StatusCode, "could not decode photo", appErr)
		return
	}

	lines := []string{"CIVITAS VERIFIED " + time.Now().UTC().Format("2006-01-02 15:04")}
	if userID := c.PostForm("user_id"); userID != "" {
		lines = append(lines, "User: "+userID)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, watermark.Stamp(img, lines...), &jpeg.Options{Quality: 90}); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to encode stamped photo",
			apperrors.NewProcessingError("stamped photo encode failed", err))
		return
	}

	c.Data(http.StatusOK, "image/jpeg", out.Bytes())
}

func (h *Handler) healthCheck(c *gin.Context) {
	resp := gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.GetMetrics()
	}
	c.JSON(http.StatusOK, resp)
}

// photoBytes resolves the submitted photo: an uploaded photo part takes
// precedence, photo_url is fetched through the configured backend.
func (h *Handler) photoBytes(ctx context.Context, c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("photo"); err == nil {
		data, readErr := readPart(file)
		if readErr != nil {
			return nil, apperrors.NewValidationError("could not read uploaded photo", readErr)
		}
		return data, nil
	}

	photoURL := c.PostForm("photo_url")
	if photoURL == "" {
		return nil, apperrors.NewValidationError("either a photo upload or photo_url is required", nil)
	}
	if err := validatePhotoURL(photoURL); err != nil {
		return nil, err
	}

	data, err := h.fetcher.FetchPhoto(ctx, photoURL)
	if err != nil {
		h.publishFetch(ctx, photoURL, false, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("photo fetch timeout", err)
		}
		return nil, apperrors.NewNetworkError("failed to fetch photo", err)
	}
	h.publishFetch(ctx, photoURL, true, nil)
	return data, nil
}

func (h *Handler) publishFetch(ctx context.Context, photoURL string, success bool, err error) {
	if h.events == nil {
		return
	}
	event := observer.VerificationEvent{
		EventType: observer.PhotoFetched,
		Timestamp: time.Now(),
		PhotoURL:  photoURL,
		Success:   success,
	}
	if !success {
		event.EventType = observer.PhotoFetchFailed
		event.ErrorMessage = err.Error()
	}
	h.events.NotifyObservers(ctx, event)
}

func parseRequirements(c *gin.Context) (models.TaskRequirements, error) {
	req := models.TaskRequirements{
		TaskType: models.TaskType(c.PostForm("task_type")),
	}
	if req.TaskType == "" {
		return req, apperrors.NewValidationError("task_type is required", nil)
	}

	var err error
	if req.Latitude, err = strconv.ParseFloat(c.PostForm("location_lat"), 64); err != nil {
		return req, apperrors.NewValidationError("location_lat must be a number", err)
	}
	if req.Longitude, err = strconv.ParseFloat(c.PostForm("location_lng"), 64); err != nil {
		return req, apperrors.NewValidationError("location_lng must be a number", err)
	}

	req.RadiusMeters = defaultRadiusMeters
	if raw := c.PostForm("location_radius"); raw != "" {
		if req.RadiusMeters, err = strconv.ParseFloat(raw, 64); err != nil || req.RadiusMeters <= 0 {
			return req, apperrors.NewValidationError("location_radius must be a positive number", err)
		}
	}

	if req.DeadlineStart, err = time.Parse(time.RFC3339, c.PostForm("deadline_start")); err != nil {
		return req, apperrors.NewValidationError("deadline_start must be RFC3339", err)
	}
	if req.DeadlineEnd, err = time.Parse(time.RFC3339, c.PostForm("deadline_end")); err != nil {
		return req, apperrors.NewValidationError("deadline_end must be RFC3339", err)
	}
	if req.DeadlineEnd.Before(req.DeadlineStart) {
		return req, apperrors.NewValidationError("deadline_end precedes deadline_start", nil)
	}

	req.RequiresVideo = c.PostForm("requires_video") == "true"
	return req, nil
}

func validatePhotoURL(photoURL string) error {
	parsedURL, err := url.Parse(photoURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}
	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}
	return nil
}

func readPart(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
