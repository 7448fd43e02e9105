package watermark

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/NAITIK-builds/Civitas/internal/logger"
)

const (
	bandPadding = 4
	lineHeight  = 13
)

var (
	bandColor = color.RGBA{0, 0, 0, 180}
	textColor = color.White
)

// Stamp draws the given text lines over a dark band along the bottom edge
// and returns the stamped copy. The input image is never modified. When the
// image is too small for the band, stamping is skipped and the original is
// returned unchanged.
func Stamp(img image.Image, lines ...string) image.Image {
	if len(lines) == 0 {
		return img
	}

	bounds := img.Bounds()
	bandHeight := len(lines)*lineHeight + 2*bandPadding
	if bounds.Dy() < bandHeight || bounds.Dx() < 2*bandPadding {
		logger.WithCheck("watermark").WithField("bounds", bounds.String()).
			Warn("Image too small to stamp, returning unmodified")
		return img
	}

	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	band := image.Rect(bounds.Min.X, bounds.Max.Y-bandHeight, bounds.Max.X, bounds.Max.Y)
	draw.Draw(out, band, image.NewUniform(bandColor), image.Point{}, draw.Over)

	drawer := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(
			bounds.Min.X+bandPadding,
			band.Min.Y+bandPadding+(i+1)*lineHeight-3,
		)
		drawer.DrawString(line)
	}

	return out
}
