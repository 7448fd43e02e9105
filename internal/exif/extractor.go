package exif

import (
	"bytes"
	"time"

	"github.com/bep/imagemeta"

	"github.com/NAITIK-builds/Civitas/internal/logger"
	"github.com/NAITIK-builds/Civitas/pkg/models"
)

// captureTimeLayout is the EXIF DateTime encoding.
const captureTimeLayout = "2006:01:02 15:04:05"

// primaryTags are the IFD0-style tags a camera normally writes.
var primaryTags = map[string]bool{
	"Make":        true,
	"Model":       true,
	"DateTime":    true,
	"Software":    true,
	"Orientation": true,
	"XResolution": true,
	"YResolution": true,
}

// exposureTags are the Exif sub-block tags describing how the frame was shot.
var exposureTags = map[string]bool{
	"ExposureTime":            true,
	"FNumber":                 true,
	"ISOSpeedRatings":         true,
	"PhotographicSensitivity": true,
	"ShutterSpeedValue":       true,
	"ApertureValue":           true,
	"FocalLength":             true,
	"Flash":                   true,
	"DateTimeOriginal":        true,
	"DateTimeDigitized":       true,
}

// Extractor reads capture metadata (timestamp, GPS) from raw image bytes.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses the EXIF block of data. Malformed or absent metadata is not
// an error: missing fields simply stay absent and a warning is logged.
func (e *Extractor) Extract(data []byte) *models.CaptureMetadata {
	meta := &models.CaptureMetadata{RawTags: make(map[string]any)}
	if len(data) == 0 {
		return meta
	}

	var (
		dateTime, dateTimeOriginal string
		latVal, lngVal             any
		latRef, lngRef             string
	)

	err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Source == imagemeta.EXIF
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			meta.RawTags[ti.Tag] = ti.Value

			if primaryTags[ti.Tag] {
				meta.HasPrimaryTags = true
			}
			if exposureTags[ti.Tag] {
				meta.HasExposureTags = true
			}

			switch ti.Tag {
			case "DateTime":
				dateTime, _ = ti.Value.(string)
			case "DateTimeOriginal":
				dateTimeOriginal, _ = ti.Value.(string)
			case "GPSLatitude":
				latVal = ti.Value
			case "GPSLongitude":
				lngVal = ti.Value
			case "GPSLatitudeRef":
				latRef, _ = ti.Value.(string)
			case "GPSLongitudeRef":
				lngRef, _ = ti.Value.(string)
			}
			return nil
		},
	})
	if err != nil {
		logger.WithCheck("exif").WithError(err).Warn("Could not extract EXIF metadata")
		return meta
	}

	if ts := firstNonEmpty(dateTimeOriginal, dateTime); ts != "" {
		if parsed, perr := time.Parse(captureTimeLayout, ts); perr == nil {
			meta.TakenAt = &parsed
		} else {
			logger.WithCheck("exif").WithField("value", ts).Warn("Unparsable EXIF timestamp")
		}
	}

	lat := coordinate(latVal, latRef, "S")
	lng := coordinate(lngVal, lngRef, "W")
	if lat != nil && lng != nil {
		meta.Latitude = lat
		meta.Longitude = lng
	}

	return meta
}

// DMSToDecimal converts a degrees/minutes/seconds angular triple to decimal
// degrees.
func DMSToDecimal(degrees, minutes, seconds float64) float64 {
	return degrees + minutes/60.0 + seconds/3600.0
}

// coordinate converts a decoded GPS tag value to decimal degrees, applying
// the hemisphere sign when the reference matches negRef. EXIF encodes the
// angle as a DMS triple; decoders that pre-resolve it hand us a plain number.
func coordinate(v any, ref, negRef string) *float64 {
	var decimal float64
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		decimal = val
	case float32:
		decimal = float64(val)
	case []float64:
		if len(val) != 3 {
			return nil
		}
		decimal = DMSToDecimal(val[0], val[1], val[2])
	case []any:
		if len(val) != 3 {
			return nil
		}
		parts := make([]float64, 3)
		for i, p := range val {
			f, ok := toFloat(p)
			if !ok {
				return nil
			}
			parts[i] = f
		}
		decimal = DMSToDecimal(parts[0], parts[1], parts[2])
	default:
		return nil
	}

	if decimal > 0 && ref == negRef {
		decimal = -decimal
	}
	return &decimal
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	}
	return 0, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
