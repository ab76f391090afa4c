package vision

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

// ErrEmptyImage is returned when there are no bytes to decode.
var ErrEmptyImage = errors.New("vision: empty image")

// Image is a normalized upload: re-encoded JPEG, upright, bounded in size.
type Image struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// Preparer decodes arbitrary uploads once so every downstream consumer sees the same bytes.
type Preparer struct {
	maxEdge int
	quality int
}

func NewPreparer(maxEdge, quality int) *Preparer {
	return &Preparer{maxEdge: maxEdge, quality: quality}
}

// Prepare decodes raw (JPEG, PNG, GIF, BMP or TIFF), applies EXIF orientation,
// shrinks it to fit maxEdge and re-encodes it as JPEG.
func (p *Preparer) Prepare(raw []byte) (*Image, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyImage
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if p.maxEdge > 0 {
		bounds := img.Bounds()
		if bounds.Dx() > p.maxEdge || bounds.Dy() > p.maxEdge {
			img = imaging.Fit(img, p.maxEdge, p.maxEdge, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	bounds := img.Bounds()
	return &Image{
		Data:     buf.Bytes(),
		MIMEType: "image/jpeg",
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}, nil
}
