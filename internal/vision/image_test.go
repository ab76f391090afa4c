package vision

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestPrepareReencodesAsJPEG(t *testing.T) {
	out, err := NewPreparer(1024, 85).Prepare(pngBytes(t, 40, 20))
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if out.MIMEType != "image/jpeg" || out.Width != 40 || out.Height != 20 {
		t.Fatalf("unexpected image %+v", out)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	if err != nil || format != "jpeg" {
		t.Fatalf("expected jpeg output, got %q (%v)", format, err)
	}
}

func TestPrepareBoundsLongestEdge(t *testing.T) {
	out, err := NewPreparer(50, 85).Prepare(pngBytes(t, 200, 100))
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if out.Width != 50 || out.Height != 25 {
		t.Fatalf("expected 50x25, got %dx%d", out.Width, out.Height)
	}

	decoded, err := imaging.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if decoded.Bounds().Dx() != 50 {
		t.Fatalf("encoded width mismatch: %d", decoded.Bounds().Dx())
	}
}

func TestPrepareRejectsGarbage(t *testing.T) {
	p := NewPreparer(1024, 85)
	if _, err := p.Prepare(nil); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := p.Prepare([]byte("definitely not an image")); err == nil {
		t.Fatalf("expected decode error")
	}
}
