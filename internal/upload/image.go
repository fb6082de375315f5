package upload

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp"
)

const (
	maxImageDimension = 2048
	jpegQuality       = 85
)

// processImage verifies that the bytes really decode as an image and
// normalizes them: alpha/palette content is flattened onto white when the
// target encoding cannot carry transparency, oversized images are downscaled
// preserving aspect ratio, and the result is re-encoded at a fixed quality.
// Every failure here is a content-validation error, not a server error.
func processImage(content []byte, contentType string) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	oversized := bounds.Dx() > maxImageDimension || bounds.Dy() > maxImageDimension

	// There is no pure-Go WebP encoder, so WebP content passes through
	// byte-identical once it has proven decodable and within bounds.
	if format == "webp" {
		if oversized {
			return nil, fmt.Errorf("%w: webp image exceeds %dpx and cannot be downscaled", ErrInvalidImage, maxImageDimension)
		}
		return content, nil
	}

	if oversized {
		img = imaging.Fit(img, maxImageDimension, maxImageDimension, imaging.Lanczos)
	}

	if contentType == "image/jpeg" {
		img = flattenOnWhite(img)
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	case "png":
		err = imaging.Encode(&buf, img, imaging.PNG)
	case "gif":
		err = imaging.Encode(&buf, img, imaging.GIF)
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return buf.Bytes(), nil
}

// flattenOnWhite composites the image onto a white background. JPEG has no
// alpha channel, so transparent regions would otherwise come out black.
func flattenOnWhite(img image.Image) image.Image {
	bounds := img.Bounds()
	bg := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
