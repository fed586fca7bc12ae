package pipeline

import (
	"bytes"
	"image"
	"image/jpeg"
)

// DefaultJPEGQuality trades image quality for stream bandwidth.
const DefaultJPEGQuality = 70

// JPEGEncoder encodes frames as baseline JPEG.
type JPEGEncoder struct {
	Quality int
}

// NewJPEGEncoder returns an encoder with the given quality, or the default when out of range.
func NewJPEGEncoder(quality int) *JPEGEncoder {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &JPEGEncoder{Quality: quality}
}

func (e *JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *JPEGEncoder) ContentType() string {
	return "image/jpeg"
}
