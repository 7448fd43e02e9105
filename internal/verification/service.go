package verification

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	// Image formats accepted from submitters. Decoding dispatches on the
	// magic bytes, not the filename.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/NAITIK-builds/Civitas/internal/config"
	apperrors "github.com/NAITIK-builds/Civitas/internal/errors"
	"github.com/NAITIK-builds/Civitas/internal/logger"
	"github.com/NAITIK-builds/Civitas/internal/observer"
	"github.com/NAITIK-builds/Civitas/pkg/models"
	"github.com/NAITIK-builds/Civitas/pkg/scoring"
)

// MetadataExtractor recovers capture metadata from raw image bytes.
type MetadataExtractor interface {
	Extract(data []byte) *models.CaptureMetadata
}

// GeoTimeValidator gates capture time and coordinates against the task.
type GeoTimeValidator interface {
	ValidateTimestamp(meta *models.CaptureMetadata, req models.TaskRequirements, submissionTime time.Time) (bool, []string)
	ValidateLocation(meta *models.CaptureMetadata, req models.TaskRequirements) (bool, []string)
}

// AuthenticityAnalyzer computes tamper / AI-generation signals.
type AuthenticityAnalyzer interface {
	Analyze(ctx context.Context, img image.Image, meta *models.CaptureMetadata) models.AuthenticityFindings
}

// SceneClassifier checks image content against the task type.
type SceneClassifier interface {
	Classify(img image.Image, taskType models.TaskType) models.ContextFindings
}

// Service orchestrates the verification pipeline: metadata extraction,
// geo/time gating, authenticity analysis, scene classification, and score
// aggregation. Stateless and safe for concurrent use.
type Service struct {
	cfg        config.VerificationConfig
	extractor  MetadataExtractor
	validator  GeoTimeValidator
	analyzer   AuthenticityAnalyzer
	scenes     SceneClassifier
	aggregator *scoring.Aggregator
	events     observer.Subject

	// now is injectable so freshness checks are deterministic in tests.
	now func() time.Time
}

// NewService wires the pipeline. events may be nil when no observers are
// configured.
func NewService(
	cfg config.VerificationConfig,
	extractor MetadataExtractor,
	validator GeoTimeValidator,
	analyzer AuthenticityAnalyzer,
	scenes SceneClassifier,
	events observer.Subject,
) *Service {
	return &Service{
		cfg:        cfg,
		extractor:  extractor,
		validator:  validator,
		analyzer:   analyzer,
		scenes:     scenes,
		aggregator: scoring.NewAggregator(cfg),
		events:     events,
		now:        time.Now,
	}
}

// VerifyPhoto runs the full pipeline over one photo. It never returns an
// error: failures that prevent verification (an undecodable image) produce
// a zero-score result carrying the error as an issue, so callers and
// submitters always get the same response shape.
func (s *Service) VerifyPhoto(ctx context.Context, data []byte, req models.TaskRequirements) *models.VerificationResult {
	start := s.now()
	s.publish(ctx, observer.VerificationStarted, req.TaskType, 0, true, "")

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		appErr := apperrors.NewUnreadableImageError("could not decode image", err)
		logger.WithCheck("pipeline").WithError(appErr).Warn("Rejecting unreadable image")
		s.publish(ctx, observer.VerificationFailed, req.TaskType, s.now().Sub(start), false, appErr.Message)
		return s.errorResult(appErr)
	}

	meta := s.extractor.Extract(data)

	tsValid, tsIssues := s.validator.ValidateTimestamp(meta, req, start)
	locValid, locIssues := s.validator.ValidateLocation(meta, req)
	contextFindings := s.scenes.Classify(img, req.TaskType)
	authenticity := s.analyzer.Analyze(ctx, img, meta)

	outcome := s.aggregator.Aggregate(scoring.Inputs{
		TaskType:        req.TaskType,
		TimestampValid:  tsValid,
		TimestampIssues: tsIssues,
		LocationValid:   locValid,
		LocationIssues:  locIssues,
		Context:         contextFindings,
		Authenticity:    authenticity,
	})

	result := &models.VerificationResult{
		ID:              uuid.NewString(),
		IsValid:         outcome.IsValid,
		Score:           outcome.Score,
		Issues:          outcome.Issues,
		Metadata:        metadataMap(meta),
		AIChecks:        authenticity,
		Recommendations: outcome.Recommendations,
		VerifiedAt:      s.now().UTC(),
	}

	logger.WithFields(logrus.Fields{
		"task_type": req.TaskType,
		"format":    format,
		"score":     result.Score,
		"is_valid":  result.IsValid,
		"issues":    len(result.Issues),
	}).Info("Photo verification completed")
	s.publish(ctx, observer.VerificationCompleted, req.TaskType, s.now().Sub(start), result.IsValid, "")

	return result
}

// ExtractMetadata exposes the extraction stage on its own, for clients that
// want to inspect a photo before submitting it.
func (s *Service) ExtractMetadata(data []byte) map[string]any {
	return metadataMap(s.extractor.Extract(data))
}

// errorResult is the uniform response for photos that could not be verified.
func (s *Service) errorResult(err error) *models.VerificationResult {
	return &models.VerificationResult{
		ID:              uuid.NewString(),
		IsValid:         false,
		Score:           0,
		Issues:          []string{fmt.Sprintf("Verification error: %s", err)},
		Metadata:        map[string]any{},
		Recommendations: []string{"Contact support if this error persists"},
		VerifiedAt:      s.now().UTC(),
	}
}

func (s *Service) publish(ctx context.Context, eventType observer.EventType, taskType models.TaskType, elapsed time.Duration, success bool, errMsg string) {
	if s.events == nil {
		return
	}
	s.events.NotifyObservers(ctx, observer.VerificationEvent{
		EventType:      eventType,
		Timestamp:      s.now(),
		TaskType:       string(taskType),
		ProcessingTime: elapsed,
		Success:        success,
		ErrorMessage:   errMsg,
	})
}

// metadataMap serializes capture metadata for the response: every raw EXIF
// tag, plus normalized date_time and gps_decimal entries when recovered.
func metadataMap(meta *models.CaptureMetadata) map[string]any {
	m := make(map[string]any, len(meta.RawTags)+2)
	for k, v := range meta.RawTags {
		m[k] = v
	}
	if meta.TakenAt != nil {
		m["date_time"] = meta.TakenAt.Format(time.RFC3339)
	}
	if meta.HasGPS() {
		m["gps_decimal"] = map[string]float64{
			"latitude":  *meta.Latitude,
			"longitude": *meta.Longitude,
		}
	}
	return m
}
