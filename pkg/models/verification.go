package models

import "time"

// TaskType identifies the kind of civic task a photo is submitted for.
// The scene classifier dispatches on this value; unknown types fall back
// to a permissive default.
type TaskType string

const (
	TaskTreePlanting     TaskType = "tree_planting"
	TaskPollutionReport  TaskType = "pollution_report"
	TaskCorruptionReport TaskType = "corruption_report"
	TaskOther            TaskType = "other"
)

// TaskRequirements describes what a submitted photo must satisfy.
// Supplied by the caller per verification request and never mutated.
type TaskRequirements struct {
	TaskType      TaskType  `json:"task_type"`
	Latitude      float64   `json:"location_lat"`
	Longitude     float64   `json:"location_lng"`
	RadiusMeters  float64   `json:"location_radius"`
	DeadlineStart time.Time `json:"deadline_start"`
	DeadlineEnd   time.Time `json:"deadline_end"`
	RequiresVideo bool      `json:"requires_video"`
}

// CaptureMetadata holds what could be recovered from the image's EXIF block.
// Absent fields are nil; extraction never fails hard.
type CaptureMetadata struct {
	TakenAt   *time.Time
	Latitude  *float64
	Longitude *float64

	// HasPrimaryTags and HasExposureTags record whether the camera wrote the
	// usual IFD0 tags (Make, Model, DateTime, ...) and the exposure sub-block
	// (ExposureTime, FNumber, ISO, ...). Both present is the self-consistency
	// signal used by the authenticity analyzer.
	HasPrimaryTags  bool
	HasExposureTags bool

	// RawTags is a pass-through of every decoded EXIF tag for debugging and
	// response serialization.
	RawTags map[string]any
}

// HasGPS reports whether both coordinates were recovered.
func (m *CaptureMetadata) HasGPS() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// SelfConsistent reports whether the image carries both the primary tag
// block and the exposure/detail tag block.
func (m *CaptureMetadata) SelfConsistent() bool {
	return m.HasPrimaryTags && m.HasExposureTags
}

// AuthenticityFindings aggregates the tamper / AI-generation sub-checks.
type AuthenticityFindings struct {
	ArtifactScore        float64           `json:"ela_score"`
	NoiseScore           float64           `json:"noise_score"`
	Hashes               map[string]string `json:"image_hashes"`
	MetadataConsistent   bool              `json:"metadata_consistency"`
	ManipulationScore    int               `json:"manipulation_score"`
	ManipulationDetected bool              `json:"manipulation_detected"`
	AIGenerated          bool              `json:"ai_generated"`
	DuplicateDetected    bool              `json:"duplicate_detected"`

	// Vendor holds responses from configured external detectors, merged
	// verbatim under the detector's name. Empty when no detector ran.
	Vendor map[string]any `json:"vendor_results,omitempty"`
}

// ContextFindings is the outcome of task-specific scene classification.
// Notes are informational observations that never affect validity.
type ContextFindings struct {
	Valid  bool
	Issues []string
	Notes  []string
}

// VerificationResult is the structured outcome of one verification call.
// It is created fresh per call and never mutated after return.
type VerificationResult struct {
	ID              string               `json:"id"`
	IsValid         bool                 `json:"is_valid"`
	Score           int                  `json:"score"`
	Issues          []string             `json:"issues"`
	Metadata        map[string]any       `json:"metadata"`
	AIChecks        AuthenticityFindings `json:"ai_checks"`
	Recommendations []string             `json:"recommendations"`
	VerifiedAt      time.Time            `json:"verification_timestamp"`
}

// BatchItem is one photo's outcome within a batch submission.
type BatchItem struct {
	Filename string              `json:"filename"`
	Error    string              `json:"error,omitempty"`
	Result   *VerificationResult `json:"result,omitempty"`
}

// BatchResult aggregates a multi-photo submission. OverallValid requires
// every photo valid and the mean score of valid photos to reach the
// acceptance threshold.
type BatchResult struct {
	OverallValid bool        `json:"overall_valid"`
	OverallScore float64     `json:"overall_score"`
	TotalPhotos  int         `json:"total_photos"`
	ValidPhotos  int         `json:"valid_photos"`
	Results      []BatchItem `json:"results"`
}
