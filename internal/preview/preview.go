// Package preview derives the degraded artifact shown before unlock. The
// transform is deliberately lossy and one-directional: the output is bounded
// to a small maximum dimension and blurred hard enough that the original
// cannot be reconstructed from it.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
)

const (
	// MaxDimension bounds the longer edge of the preview.
	MaxDimension = 800
	// BlurRadius is the effective blur radius applied after downscaling.
	BlurRadius = 20

	jpegQuality = 80
	blurPasses  = 3
)

// Derive decodes raw image bytes, downsamples them to MaxDimension and
// applies a heavy blur, returning JPEG bytes.
func Derive(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("preview: empty image data")
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("preview: decode image: %w", err)
	}

	img := toNRGBA(src)
	img = downscale(img, MaxDimension)
	// Three box passes approximate a gaussian; the per-pass radius is sized
	// so the combined spread matches BlurRadius.
	for i := 0; i < blurPasses; i++ {
		img = boxBlur(img, BlurRadius/2)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("preview: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	if img, ok := src.(*image.NRGBA); ok {
		return img
	}
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Set(x-bounds.Min.X, y-bounds.Min.Y, src.At(x, y))
		}
	}
	return dst
}

// downscale shrinks the image so its longer edge is at most maxDim, averaging
// the source box behind each destination pixel. Images already inside the
// bound are returned unchanged.
func downscale(src *image.NRGBA, maxDim int) *image.NRGBA {
	sw := src.Bounds().Dx()
	sh := src.Bounds().Dy()
	if sw <= maxDim && sh <= maxDim {
		return src
	}
	dw, dh := sw, sh
	if sw >= sh {
		dw = maxDim
		dh = sh * maxDim / sw
	} else {
		dh = maxDim
		dw = sw * maxDim / sh
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	for dy := 0; dy < dh; dy++ {
		sy0 := dy * sh / dh
		sy1 := (dy + 1) * sh / dh
		if sy1 <= sy0 {
			sy1 = sy0 + 1
		}
		for dx := 0; dx < dw; dx++ {
			sx0 := dx * sw / dw
			sx1 := (dx + 1) * sw / dw
			if sx1 <= sx0 {
				sx1 = sx0 + 1
			}
			var r, g, b, a, n uint32
			for sy := sy0; sy < sy1; sy++ {
				base := sy*src.Stride + sx0*4
				for sx := sx0; sx < sx1; sx++ {
					r += uint32(src.Pix[base])
					g += uint32(src.Pix[base+1])
					b += uint32(src.Pix[base+2])
					a += uint32(src.Pix[base+3])
					base += 4
					n++
				}
			}
			di := dy*dst.Stride + dx*4
			dst.Pix[di] = uint8(r / n)
			dst.Pix[di+1] = uint8(g / n)
			dst.Pix[di+2] = uint8(b / n)
			dst.Pix[di+3] = uint8(a / n)
		}
	}
	return dst
}

// boxBlur applies a separable box blur of the given radius.
func boxBlur(src *image.NRGBA, radius int) *image.NRGBA {
	if radius < 1 {
		return src
	}
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	tmp := image.NewNRGBA(image.Rect(0, 0, w, h))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	// Horizontal pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b, a, n uint32
			for k := -radius; k <= radius; k++ {
				sx := clamp(x+k, 0, w-1)
				i := y*src.Stride + sx*4
				r += uint32(src.Pix[i])
				g += uint32(src.Pix[i+1])
				b += uint32(src.Pix[i+2])
				a += uint32(src.Pix[i+3])
				n++
			}
			i := y*tmp.Stride + x*4
			tmp.Pix[i] = uint8(r / n)
			tmp.Pix[i+1] = uint8(g / n)
			tmp.Pix[i+2] = uint8(b / n)
			tmp.Pix[i+3] = uint8(a / n)
		}
	}

	// Vertical pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b, a, n uint32
			for k := -radius; k <= radius; k++ {
				sy := clamp(y+k, 0, h-1)
				i := sy*tmp.Stride + x*4
				r += uint32(tmp.Pix[i])
				g += uint32(tmp.Pix[i+1])
				b += uint32(tmp.Pix[i+2])
				a += uint32(tmp.Pix[i+3])
				n++
			}
			i := y*dst.Stride + x*4
			dst.Pix[i] = uint8(r / n)
			dst.Pix[i+1] = uint8(g / n)
			dst.Pix[i+2] = uint8(b / n)
			dst.Pix[i+3] = uint8(a / n)
		}
	}
	return dst
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
