// Package imaging validates uploaded pictures and re-encodes them for storage.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"net/http"
	"strings"

	// Register decoders for the accepted upload formats.
	_ "image/gif"
	_ "image/png"

	"campingrate/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxUploadBytes = 10 * 1024 * 1024
	MaxDimension          = 2048
	// MaxPixels bounds width*height before a full decode.
	MaxPixels = 40_000_000
	JPEGQuality           = 82
	WebPQuality           = 70
)

// Options controls Normalize.
type Options struct {
	MaxBytes int64
	WithWebP bool
}

// Result is a normalised upload: a JPEG master and an optional WebP rendition.
type Result struct {
	JPEG   []byte
	WebP   []byte
	Width  int
	Height int
}

// Normalize checks the upload's sniffed type, size and pixel count, decodes it, bounds it to
// MaxDimension on both axes and re-encodes it as JPEG (plus WebP when requested).
// Rejections are validation AppErrors naming the file.
func Normalize(filename, contentType string, content []byte, opts Options) (*Result, error) {
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	if len(content) == 0 {
		return nil, models.NewValidationError(fmt.Sprintf("Image %q is empty", filename))
	}
	if int64(len(content)) > maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("Image %q is too large (max %dMB)", filename, maxBytes/(1024*1024)))
	}

	detected := http.DetectContentType(content)
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError(fmt.Sprintf("Image %q has an unsupported type", filename))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("Image %q could not be decoded", filename))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, models.NewValidationError(fmt.Sprintf("Image %q has too many pixels (max %d megapixels)", filename, MaxPixels/1_000_000))
	}

	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("Image %q could not be decoded", filename))
	}
	if provided := normalizeContentType(contentType); strings.HasPrefix(provided, "image/") &&
		!isMatchingContentType(provided, decodedFormatToMime(format)) {
		return nil, models.NewValidationError(fmt.Sprintf("Image %q content type mismatch", filename))
	}

	master := resizeToFit(decoded, MaxDimension, MaxDimension)

	out := &Result{Width: master.Bounds().Dx(), Height: master.Bounds().Dy()}
	if out.JPEG, err = encodeJPEG(master, JPEGQuality); err != nil {
		return nil, models.NewInternalError(err)
	}
	if opts.WithWebP {
		if out.WebP, err = encodeWebP(master, WebPQuality); err != nil {
			return nil, models.NewInternalError(err)
		}
	}
	return out, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	if provided == "image/jpg" {
		provided = "image/jpeg"
	}
	return provided == detected
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
