package captcha

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 8, 6))
	var buf bytes.Buffer
	err := png.Encode(&buf, src)
	require.NoError(t, err)

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 8, img.Bounds().Dx())
	require.Equal(t, 6, img.Bounds().Dy())
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	require.Error(t, err)
}

func TestCleanPreservesDimensions(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {3, 3}, {7, 2}, {60, 24}} {
		img := randomImage(size[0], size[1], 0)
		out := Clean(img)
		require.Equal(t, size[0], out.Bounds().Dx())
		require.Equal(t, size[1], out.Bounds().Dy())
	}
}

func TestCleanOutputIsBinary(t *testing.T) {
	out := Clean(randomImage(40, 18, 1))
	for _, v := range out.Pix {
		require.True(t, v == 0 || v == 255, "unexpected pixel value %d", v)
	}
}

func TestCleanIsDeterministic(t *testing.T) {
	img := randomImage(32, 16, 2)
	first := Clean(img)
	second := Clean(img)
	require.Equal(t, first.Pix, second.Pix)
}

func TestMajorityRemovesIsolatedPixel(t *testing.T) {
	m := newMask(3, 3)
	m.set(1, 1, true)

	out := majority3x3(m)
	require.False(t, out.at(1, 1), "isolated pixel should be removed")
}

func TestMajorityKeepsSolidBlockCenter(t *testing.T) {
	m := newMask(3, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			m.set(x, y, true)
		}
	}

	out := majority3x3(m)
	require.True(t, out.at(1, 1), "center of a solid block should survive")
}

func TestCleanSeparatesTextFromBackground(t *testing.T) {
	// dark 4x4 block of "text" on a light background with a lone
	// dark speck far away from it; the block should survive cleaning
	// and the speck should not
	img := image.NewGray(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			img.SetGray(x, y, color.Gray{Y: 230})
		}
	}
	for y := 3; y < 7; y++ {
		for x := 3; x < 7; x++ {
			img.SetGray(x, y, color.Gray{Y: 20})
		}
	}
	img.SetGray(15, 5, color.Gray{Y: 20})

	out := Clean(img)
	require.Equal(t, uint8(0), out.GrayAt(4, 4).Y, "text block should be rendered black")
	require.Equal(t, uint8(255), out.GrayAt(15, 5).Y, "isolated speck should be rendered white")
	require.Equal(t, uint8(255), out.GrayAt(0, 0).Y, "background should be rendered white")
}

func TestMedianSmoothsSpeckle(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 5, 5))
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			img.SetGray(x, y, color.Gray{Y: 200})
		}
	}
	img.SetGray(2, 2, color.Gray{Y: 0})

	out := median3x3(img)
	require.Equal(t, uint8(200), out.GrayAt(2, 2).Y)
}

func randomImage(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}
