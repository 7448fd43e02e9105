package watermark

import (
	"image"
	"image/color"
	"testing"
)

func whiteFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func TestStamp_DrawsBottomBand(t *testing.T) {
	src := whiteFrame(200, 100)
	out := Stamp(src, "VERIFIED 2025-06-01", "28.6139, 77.2090")

	if out == image.Image(src) {
		t.Fatal("expected a stamped copy, got the original")
	}

	// The band darkens the bottom rows.
	r, g, b, _ := out.At(100, 95).RGBA()
	if r>>8 > 200 && g>>8 > 200 && b>>8 > 200 {
		t.Error("expected a dark band at the bottom edge")
	}

	// Rows above the band stay untouched.
	r, g, b, _ = out.At(100, 10).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Error("pixels above the band must be unchanged")
	}
}

func TestStamp_DoesNotModifyInput(t *testing.T) {
	src := whiteFrame(200, 100)
	Stamp(src, "VERIFIED")

	r, g, b, _ := src.At(100, 95).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Error("source image was modified")
	}
}

func TestStamp_NoLines(t *testing.T) {
	src := whiteFrame(50, 50)
	if out := Stamp(src); out != image.Image(src) {
		t.Error("no lines should return the original image")
	}
}

func TestStamp_TooSmall(t *testing.T) {
	src := whiteFrame(10, 8)
	if out := Stamp(src, "VERIFIED"); out != image.Image(src) {
		t.Error("undersized images should pass through unmodified")
	}
}
