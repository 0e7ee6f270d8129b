package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// checkerboard renders a high-contrast pattern so blurring has a measurable
// effect.
func checkerboard(w, h, cell int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{A: 255}
			if (x/cell+y/cell)%2 == 0 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDeriveBoundsDimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"wide", 1600, 1200, 800, 600},
		{"tall", 1000, 2000, 400, 800},
		{"already small", 400, 300, 400, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Derive(encodePNG(t, checkerboard(tt.w, tt.h, 16)))
			if err != nil {
				t.Fatalf("Derive: %v", err)
			}
			decoded, err := jpeg.Decode(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("output is not a jpeg: %v", err)
			}
			b := decoded.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Fatalf("dimensions = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestDeriveBlursContrast(t *testing.T) {
	src := checkerboard(256, 256, 4)
	out, err := Derive(encodePNG(t, src))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}

	// A 4px checkerboard blurred with a 10px box converges towards uniform
	// gray; any surviving pixel near pure black or white means the preview is
	// not degraded enough.
	b := decoded.Bounds()
	for y := b.Min.Y + 20; y < b.Max.Y-20; y += 8 {
		for x := b.Min.X + 20; x < b.Max.X-20; x += 8 {
			r, g, bb, _ := decoded.At(x, y).RGBA()
			lum := (r + g + bb) / 3 >> 8
			if lum < 32 || lum > 224 {
				t.Fatalf("pixel (%d,%d) luminance %d survived the blur", x, y, lum)
			}
		}
	}
}

func TestDeriveRejectsBadInput(t *testing.T) {
	if _, err := Derive(nil); err == nil {
		t.Fatal("empty input accepted")
	}
	if _, err := Derive([]byte("not an image")); err == nil {
		t.Fatal("garbage input accepted")
	}
}
