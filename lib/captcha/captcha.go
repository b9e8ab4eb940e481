// Package captcha turns the noisy captcha bitmaps served by the results
// portal into high-contrast black-on-white images that an OCR model can
// actually read.
package captcha

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Decode parses raw captcha bytes into an image. The portal has been
// observed serving jpeg, but the registered decoders cover the other
// formats it could plausibly switch to.
func Decode(raw []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	return img, err
}

// Clean runs the full cleaning pipeline:
//
//  1. perceptual grayscale
//  2. 3x3 median filter, smooths sensor/compression speckle
//  3. global threshold at (mean+min)/2, text is darker than background
//  4. 3x3 majority vote over the binary mask, kills residual specks
//     and fills pinholes inside strokes
//  5. render foreground as 0, background as 255
//
// The output always has the same dimensions as the input and contains
// only the values 0 and 255. Clean never fails and holds no state, so
// it is safe to call concurrently on independent images.
func Clean(img image.Image) *image.Gray {
	gray := grayscale(img)
	smoothed := median3x3(gray)
	mask := binarize(smoothed)
	mask = majority3x3(mask)
	return render(mask)
}

func grayscale(img image.Image) *image.Gray {
	// imaging.Grayscale applies Rec. 601 luma weights, which is the
	// perceptual conversion we want; it returns an NRGBA with equal
	// channels, so collapse it down to a single-channel image.
	nrgba := imaging.Grayscale(img)
	bounds := nrgba.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray.SetGray(x, y, color.Gray{Y: nrgba.NRGBAAt(x, y).R})
		}
	}
	return gray
}

// median3x3 replaces every pixel with the median of its 3x3
// neighborhood. Border pixels replicate the nearest edge pixel.
func median3x3(gray *image.Gray) *image.Gray {
	w := gray.Rect.Dx()
	h := gray.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	clamp := func(v, max int) int {
		if v < 0 {
			return 0
		}
		if v > max {
			return max
		}
		return v
	}

	var window [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					sx := clamp(x+dx, w-1)
					sy := clamp(y+dy, h-1)
					window[n] = gray.GrayAt(sx, sy).Y
					n++
				}
			}
			out.SetGray(x, y, color.Gray{Y: median9(window)})
		}
	}
	return out
}

// median9 returns the 5th smallest of 9 values using a simple
// insertion sort, cheap enough at this window size.
func median9(w [9]uint8) uint8 {
	for i := 1; i < len(w); i++ {
		for j := i; j > 0 && w[j-1] > w[j]; j-- {
			w[j-1], w[j] = w[j], w[j-1]
		}
	}
	return w[4]
}

type mask struct {
	w, h int
	bits []bool
}

func newMask(w, h int) mask {
	return mask{w: w, h: h, bits: make([]bool, w*h)}
}

func (m mask) at(x, y int) bool {
	// out-of-range reads act as background, which is exactly the
	// one-pixel zero padding the majority pass needs
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	return m.bits[y*m.w+x]
}

func (m mask) set(x, y int, v bool) {
	m.bits[y*m.w+x] = v
}

// binarize marks a pixel foreground iff it is strictly darker than the
// single global threshold (mean+min)/2 computed over the whole image.
func binarize(gray *image.Gray) mask {
	w := gray.Rect.Dx()
	h := gray.Rect.Dy()

	var sum int64
	min := uint8(255)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := gray.GrayAt(x, y).Y
			sum += int64(v)
			if v < min {
				min = v
			}
		}
	}
	mean := float64(sum) / float64(w*h)
	threshold := (mean + float64(min)) / 2

	out := newMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.set(x, y, float64(gray.GrayAt(x, y).Y) < threshold)
		}
	}
	return out
}

// majority3x3 keeps a pixel foreground iff at least 5 of the 9 pixels
// in its 3x3 neighborhood (itself included, mask padded with
// background) are foreground.
func majority3x3(m mask) mask {
	out := newMask(m.w, m.h)
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			count := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if m.at(x+dx, y+dy) {
						count++
					}
				}
			}
			out.set(x, y, count >= 5)
		}
	}
	return out
}

func render(m mask) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.w, m.h))
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if m.at(x, y) {
				out.SetGray(x, y, color.Gray{Y: 0})
			} else {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}
