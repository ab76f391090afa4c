package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kapu/roast-rag-go/internal/domain"
	"github.com/kapu/roast-rag-go/internal/vision"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// ErrNoFace is returned when the encoder finds no face in a reference image.
var ErrNoFace = errors.New("no face found in reference image")

// FaceLine is one line of a face corpus file. Exactly one of ImagePath or
// Embedding is expected; ImagePath is resolved relative to the file.
type FaceLine struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	ImagePath string    `json:"image_path"`
	Embedding []float32 `json:"embedding"`
}

// ReadFaceLines parses a JSONL face corpus.
func ReadFaceLines(path string) ([]FaceLine, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var lines []FaceLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	n := 0
	for scanner.Scan() {
		n++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var line FaceLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return lines, nil
}

// FaceLoader turns face lines into references, encoding images when needed.
type FaceLoader struct {
	encoder   vision.FaceEncoder
	preparer  *vision.Preparer
	dimension int
	baseDir   string
	logger    *zap.Logger
}

func NewFaceLoader(encoder vision.FaceEncoder, preparer *vision.Preparer, dimension int, baseDir string, logger *zap.Logger) *FaceLoader {
	return &FaceLoader{
		encoder:   encoder,
		preparer:  preparer,
		dimension: dimension,
		baseDir:   baseDir,
		logger:    logger,
	}
}

// Load resolves every line. Lines that cannot be resolved are logged and skipped.
func (l *FaceLoader) Load(ctx context.Context, lines []FaceLine) ([]domain.FaceReference, int) {
	refs := make([]domain.FaceReference, 0, len(lines))
	skipped := 0

	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			skipped += len(lines) - i
			break
		}

		ref, err := l.resolve(ctx, line)
		if err != nil {
			l.logger.Warn("Skipping face reference",
				zap.Int("line", i+1),
				zap.String("id", line.ID),
				zap.Error(err),
			)
			skipped++
			continue
		}
		refs = append(refs, ref)
	}
	return refs, skipped
}

func (l *FaceLoader) resolve(ctx context.Context, line FaceLine) (domain.FaceReference, error) {
	if strings.TrimSpace(line.Text) == "" {
		return domain.FaceReference{}, fmt.Errorf("missing text")
	}

	id := line.ID
	if id == "" {
		id = ulid.Make().String()
	}

	embedding := line.Embedding
	if len(embedding) == 0 {
		if line.ImagePath == "" {
			return domain.FaceReference{}, fmt.Errorf("neither image_path nor embedding given")
		}
		encoded, err := l.encodeImage(ctx, line.ImagePath)
		if err != nil {
			return domain.FaceReference{}, err
		}
		embedding = encoded
	}
	if l.dimension > 0 && len(embedding) != l.dimension {
		return domain.FaceReference{}, fmt.Errorf("embedding has %d dimensions, want %d", len(embedding), l.dimension)
	}

	return domain.FaceReference{
		ID:             id,
		Embedding:      embedding,
		AssociatedText: line.Text,
		Metadata:       domain.Metadata{Source: "faces"},
	}, nil
}

func (l *FaceLoader) encodeImage(ctx context.Context, imagePath string) ([]float32, error) {
	if l.encoder == nil {
		return nil, fmt.Errorf("image_path given but no face encoder configured")
	}

	path := imagePath
	if !filepath.IsAbs(path) && l.baseDir != "" {
		path = filepath.Join(l.baseDir, path)
	}

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	jpeg := raw
	if l.preparer != nil {
		img, err := l.preparer.Prepare(raw)
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		jpeg = img.Data
	}

	encodings, err := l.encoder.Encode(ctx, jpeg)
	if err != nil {
		return nil, err
	}
	if len(encodings) == 0 {
		return nil, ErrNoFace
	}
	return encodings[0], nil
}
