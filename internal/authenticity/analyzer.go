package authenticity

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"

	"github.com/corona10/goimagehash"
	"gonum.org/v1/gonum/stat"

	"github.com/NAITIK-builds/Civitas/internal/config"
	"github.com/NAITIK-builds/Civitas/internal/logger"
	"github.com/NAITIK-builds/Civitas/pkg/models"
)

// Re-encode quality for the compression-artifact check. A moderate setting
// makes an already-recompressed source stand out.
const artifactJPEGQuality = 90

// Manipulation indicator weights. Additive and independent.
const (
	weightArtifact     = 30
	weightNoise        = 20
	weightInconsistent = 25

	manipulationThreshold = 50
)

// Analyzer computes tamper / AI-generation suspicion signals. Every
// sub-check is best-effort: a failure yields that check's neutral value
// instead of aborting the analysis.
type Analyzer struct {
	cfg       config.VerificationConfig
	detectors []Detector
}

// NewAnalyzer creates an analyzer. Detectors are optional external
// authenticity services; pass none when no credentials are configured.
func NewAnalyzer(cfg config.VerificationConfig, detectors ...Detector) *Analyzer {
	return &Analyzer{cfg: cfg, detectors: detectors}
}

// Analyze runs all sub-checks over the decoded image and its raw bytes.
// meta supplies the metadata self-consistency signal.
func (a *Analyzer) Analyze(ctx context.Context, img image.Image, meta *models.CaptureMetadata) models.AuthenticityFindings {
	findings := models.AuthenticityFindings{
		Hashes: make(map[string]string),
	}

	gray := grayscale(img)
	findings.ArtifactScore = a.artifactScore(gray)
	findings.NoiseScore = a.noiseScore(gray)

	if hash, err := goimagehash.PerceptionHash(img); err == nil {
		findings.Hashes["phash"] = hash.ToString()
	}
	if hash, err := goimagehash.DifferenceHash(img); err == nil {
		findings.Hashes["dhash"] = hash.ToString()
	}
	if hash, err := goimagehash.AverageHash(img); err == nil {
		findings.Hashes["ahash"] = hash.ToString()
	}

	findings.MetadataConsistent = meta != nil && meta.SelfConsistent()

	findings.ManipulationScore = a.manipulationScore(findings.ArtifactScore, findings.NoiseScore, findings.MetadataConsistent)
	findings.ManipulationDetected = findings.ManipulationScore > manipulationThreshold

	a.runDetectors(ctx, img, &findings)

	return findings
}

// manipulationScore adds the fixed weight of each triggered indicator.
func (a *Analyzer) manipulationScore(artifactScore, noiseScore float64, consistent bool) int {
	score := 0
	if artifactScore > a.cfg.ArtifactSuspicion {
		score += weightArtifact
	}
	if noiseScore < a.cfg.NoiseSuspicion {
		score += weightNoise
	}
	if !consistent {
		score += weightInconsistent
	}
	return score
}

// artifactScore re-encodes the grayscale image at a fixed moderate JPEG
// quality into a per-call buffer and measures the mean absolute pixel
// difference from the original, normalized to [0,1].
func (a *Analyzer) artifactScore(gray *image.Gray) float64 {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gray, &jpeg.Options{Quality: artifactJPEGQuality}); err != nil {
		logger.WithCheck("authenticity").WithError(err).Warn("Artifact re-encode failed")
		return 0
	}

	recompressed, err := jpeg.Decode(&buf)
	if err != nil {
		logger.WithCheck("authenticity").WithError(err).Warn("Artifact re-decode failed")
		return 0
	}

	return meanAbsDiff(gray, grayscale(recompressed))
}

// noiseScore smooths the grayscale image and measures the mean absolute
// difference from the original, normalized to [0,1]. Abnormally low values
// suggest denoising consistent with synthetic generation.
func (a *Analyzer) noiseScore(gray *image.Gray) float64 {
	return meanAbsDiff(gray, gaussianBlur(gray))
}

// runDetectors invokes every configured external detector and merges its
// response under the detector's name. Failures are logged, never fatal.
func (a *Analyzer) runDetectors(ctx context.Context, img image.Image, findings *models.AuthenticityFindings) {
	for _, d := range a.detectors {
		result, err := d.Detect(ctx, img)
		if err != nil {
			logger.WithCheck("authenticity").WithError(err).WithField("detector", d.Name()).
				Warn("External detector failed, skipping")
			continue
		}
		if findings.Vendor == nil {
			findings.Vendor = make(map[string]any)
		}
		findings.Vendor[d.Name()] = result
	}
}

// grayscale converts any image to 8-bit grayscale.
func grayscale(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// meanAbsDiff computes the mean absolute pixel intensity difference between
// two same-sized grayscale images, normalized to [0,1].
func meanAbsDiff(a, b *image.Gray) float64 {
	bounds := a.Bounds()
	if bounds != b.Bounds() || bounds.Dx() == 0 || bounds.Dy() == 0 {
		return 0
	}

	diffs := make([]float64, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := float64(a.GrayAt(x, y).Y) - float64(b.GrayAt(x, y).Y)
			diffs = append(diffs, math.Abs(d))
		}
	}

	return math.Min(stat.Mean(diffs, nil)/255.0, 1.0)
}

// gaussianKernel is a 5x5 binomial approximation of a Gaussian filter,
// normalized by 256.
var gaussianKernel = [5][5]float64{
	{1, 4, 6, 4, 1},
	{4, 16, 24, 16, 4},
	{6, 24, 36, 24, 6},
	{4, 16, 24, 16, 4},
	{1, 4, 6, 4, 1},
}

// gaussianBlur applies the 5x5 smoothing kernel with clamped edges.
func gaussianBlur(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					sx := clamp(x+kx, bounds.Min.X, bounds.Max.X-1)
					sy := clamp(y+ky, bounds.Min.Y, bounds.Max.Y-1)
					sum += gaussianKernel[ky+2][kx+2] * float64(gray.GrayAt(sx, sy).Y)
				}
			}
			out.SetGray(x, y, color.Gray{Y: uint8(math.Round(sum / 256.0))})
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
