package authenticity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"

	apperrors "github.com/NAITIK-builds/Civitas/internal/errors"
)

const (
	azureModerateURL = "https://api.cognitive.microsoft.com/contentmoderator/moderate/v1.0/ProcessImage/Evaluate"
	hiveDetectURL    = "https://api.thehive.ai/api/v2/task/sync"

	defaultDetectorTimeout = 10 * time.Second
)

// Detector is an external authenticity service. Implementations must honor
// the context deadline; any failure is reported as an error and the caller
// treats the sub-check as absent.
type Detector interface {
	Name() string
	Detect(ctx context.Context, img image.Image) (map[string]any, error)
}

// httpDetector posts a JPEG rendition of the image to a vendor endpoint and
// returns the decoded JSON response verbatim.
type httpDetector struct {
	name     string
	endpoint string
	headers  map[string]string
	client   *http.Client
}

// NewAzureModerator creates a detector backed by Azure Content Moderator.
// key must be non-empty; callers skip construction when it is not configured.
func NewAzureModerator(key string, timeout time.Duration) Detector {
	return newHTTPDetector("azure_moderation", azureModerateURL, map[string]string{
		"Ocp-Apim-Subscription-Key": key,
		"Content-Type":              "image/jpeg",
	}, timeout)
}

// NewHiveAI creates a detector backed by Hive AI's generated-image model.
func NewHiveAI(key string, timeout time.Duration) Detector {
	return newHTTPDetector("hive_ai", hiveDetectURL, map[string]string{
		"Authorization": "Token " + key,
		"Content-Type":  "image/jpeg",
	}, timeout)
}

func newHTTPDetector(name, endpoint string, headers map[string]string, timeout time.Duration) *httpDetector {
	if timeout <= 0 {
		timeout = defaultDetectorTimeout
	}
	return &httpDetector{
		name:     name,
		endpoint: endpoint,
		headers:  headers,
		client:   &http.Client{Timeout: timeout},
	}
}

func (d *httpDetector) Name() string {
	return d.name
}

func (d *httpDetector) Detect(ctx context.Context, img image.Image) (map[string]any, error) {
	var body bytes.Buffer
	if err := jpeg.Encode(&body, img, nil); err != nil {
		return nil, apperrors.NewDetectorError("failed to encode image for detector", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, &body)
	if err != nil {
		return nil, apperrors.NewDetectorError("failed to build detector request", err)
	}
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, apperrors.NewDetectorError(fmt.Sprintf("%s request failed", d.name), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewDetectorError(fmt.Sprintf("%s returned status %d", d.name, resp.StatusCode), nil)
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.NewDetectorError(fmt.Sprintf("%s response decode failed", d.name), err)
	}
	return result, nil
}
