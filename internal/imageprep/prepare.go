// Package imageprep enhances scanned report pages before they are sent to a
// vision model.
package imageprep

import (
	"bytes"
	"fmt"
	"log"

	"github.com/disintegration/imaging"

	"vidalaboral/internal/config"
)

// Preparer upscales, contrasts and sharpens page images, re-encoding them as JPEG.
type Preparer struct {
	cfg config.ImagingConfig
}

// New creates a Preparer. Zero settings fall back to the defaults used for
// Seguridad Social report scans.
func New(cfg config.ImagingConfig) *Preparer {
	if cfg.MinWidth <= 0 {
		cfg.MinWidth = 2000
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 98
	}
	return &Preparer{cfg: cfg}
}

// Image is a prepared page ready for a DocumentParser.
type Image struct {
	Bytes       []byte
	ContentType string
	Width       int
	Height      int
}

// Process enhances one image. Images narrower than MinWidth are upscaled
// with Lanczos keeping the aspect ratio.
func (p *Preparer) Process(data []byte) (*Image, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img := imaging.Clone(src)
	if img.Bounds().Dx() < p.cfg.MinWidth {
		img = imaging.Resize(img, p.cfg.MinWidth, 0, imaging.Lanczos)
	}
	if p.cfg.Contrast != 0 {
		img = imaging.AdjustContrast(img, p.cfg.Contrast)
	}
	if p.cfg.Sharpen > 0 {
		img = imaging.Sharpen(img, p.cfg.Sharpen)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.cfg.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	b := img.Bounds()
	return &Image{
		Bytes:       buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

// ProcessOrOriginal is Process that falls back to the untouched bytes when
// the image cannot be enhanced, so one odd scan does not sink a batch.
func (p *Preparer) ProcessOrOriginal(name string, data []byte, contentType string) *Image {
	img, err := p.Process(data)
	if err != nil {
		log.Printf("imageprep.Preparer: %s sent unprocessed: %v", name, err)
		return &Image{Bytes: data, ContentType: contentType}
	}
	return img
}
