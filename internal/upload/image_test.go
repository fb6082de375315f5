package upload

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestProcessImageKeepsSmallImages(t *testing.T) {
	out, err := processImage(pngBytes(t, 100, 80), "image/png")
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestProcessImageDownscalesOversized(t *testing.T) {
	out, err := processImage(jpegBytes(t, 4096, 1024), "image/jpeg")
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, maxImageDimension, img.Bounds().Dx())
	// Aspect ratio preserved: 4096x1024 scaled to 2048 wide is 512 tall.
	assert.Equal(t, 512, img.Bounds().Dy())
}

func TestProcessImageDownscalesByHeight(t *testing.T) {
	out, err := processImage(pngBytes(t, 1000, 3000), "image/png")
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, maxImageDimension, img.Bounds().Dy())
	assert.LessOrEqual(t, img.Bounds().Dx(), maxImageDimension)
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	_, err := processImage([]byte("this is definitely not a picture"), "image/jpeg")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestProcessImageRejectsTruncatedPNG(t *testing.T) {
	valid := pngBytes(t, 64, 64)
	_, err := processImage(valid[:20], "image/png")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestSaveImageEndToEnd(t *testing.T) {
	s := newTestStore(t)
	content := jpegBytes(t, 3000, 3000)

	rel, err := s.Save(bytes.NewReader(content), "photo.jpg", "image/jpeg", int64(len(content)), SaveOptions{
		Folder:      "incident_images",
		Class:       ClassImage,
		Prefix:      "incident",
		ResizeImage: true,
	})
	require.NoError(t, err)

	full, ok := s.Resolve(rel)
	require.True(t, ok)

	raw, err := os.ReadFile(full)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), maxImageDimension)
	assert.LessOrEqual(t, img.Bounds().Dy(), maxImageDimension)
}

func TestSaveRejectsCorruptImageContent(t *testing.T) {
	s := newTestStore(t)

	// Valid extension and content type, garbage bytes.
	_, err := s.Save(bytes.NewReader([]byte("not a jpeg at all")), "photo.jpg", "image/jpeg", 17, SaveOptions{
		Folder:      "incident_images",
		Class:       ClassImage,
		ResizeImage: true,
	})
	assert.ErrorIs(t, err, ErrInvalidImage)
}
