package media

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

const jpegContentType = "image/jpeg"

// normalize checks that the upload is an image and re-encodes it as JPEG,
// shrinking it to fit MaxDimension on the longest side.
func (s *Service) normalize(file Upload) ([]byte, error) {
	if len(file.Data) == 0 {
		return nil, ErrInvalidImage
	}

	contentType := strings.ToLower(strings.TrimSpace(file.ContentType))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(file.Data[:min(len(file.Data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidImage
	}

	img, err := imaging.Decode(bytes.NewReader(file.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImage
	}

	bounds := img.Bounds()
	if bounds.Dx() > s.cfg.MaxDimension || bounds.Dy() > s.cfg.MaxDimension {
		img = imaging.Fit(img, s.cfg.MaxDimension, s.cfg.MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(s.cfg.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}
