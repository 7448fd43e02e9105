package geotime

import (
	"fmt"
	"math"
	"time"

	"github.com/NAITIK-builds/Civitas/internal/config"
	"github.com/NAITIK-builds/Civitas/pkg/models"
)

// earthRadiusMeters is the mean Earth radius used by the great-circle
// distance computation.
const earthRadiusMeters = 6371000.0

// Validator gates a capture against the task deadline window, submission
// freshness, and the task geofence.
type Validator struct {
	cfg config.VerificationConfig
}

func NewValidator(cfg config.VerificationConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateTimestamp checks the capture time against the task deadline window
// and against submission freshness. A capture between the aging-warning and
// stale thresholds stays valid but collects a warning issue.
func (v *Validator) ValidateTimestamp(meta *models.CaptureMetadata, req models.TaskRequirements, submissionTime time.Time) (bool, []string) {
	var issues []string

	if meta == nil || meta.TakenAt == nil {
		issues = append(issues, "No timestamp found in photo metadata")
		return false, issues
	}
	takenAt := *meta.TakenAt

	// Window bounds are inclusive.
	if takenAt.Before(req.DeadlineStart) || takenAt.After(req.DeadlineEnd) {
		issues = append(issues, fmt.Sprintf("Photo timestamp %s is outside task deadline window",
			takenAt.Format(time.RFC3339)))
		return false, issues
	}

	age := submissionTime.Sub(takenAt)
	if age > v.cfg.StaleAfter {
		issues = append(issues, fmt.Sprintf("Photo appears to be older than %d hours - please take fresh photos",
			int(v.cfg.StaleAfter.Hours())))
		return false, issues
	}
	if age > v.cfg.AgingWarning {
		issues = append(issues, "Photo is getting old - consider taking a fresh photo")
	}

	return true, issues
}

// ValidateLocation checks the capture coordinates against the task geofence.
func (v *Validator) ValidateLocation(meta *models.CaptureMetadata, req models.TaskRequirements) (bool, []string) {
	var issues []string

	if meta == nil || !meta.HasGPS() {
		issues = append(issues, "No GPS coordinates found in photo metadata")
		return false, issues
	}

	distance := Haversine(*meta.Latitude, *meta.Longitude, req.Latitude, req.Longitude)
	if distance > req.RadiusMeters {
		issues = append(issues, fmt.Sprintf("Photo location is %.1fm from assigned location (max: %.0fm)",
			distance, req.RadiusMeters))
		return false, issues
	}

	return true, issues
}

// Haversine returns the great-circle distance in meters between two points
// given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)
	lat1R := lat1 * (math.Pi / 180.0)
	lat2R := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1R)*math.Cos(lat2R)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
