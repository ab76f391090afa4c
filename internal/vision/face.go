package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kapu/roast-rag-go/pkg/errors"
	"go.uber.org/zap"
)

// FaceEncoder extracts one fixed-length encoding per detected face, in detection order.
type FaceEncoder interface {
	Encode(ctx context.Context, jpeg []byte) ([][]float32, error)
}

type encodeResponse struct {
	Encodings [][]float32 `json:"encodings"`
}

// HTTPFaceEncoder talks to a face-recognition sidecar over HTTP.
type HTTPFaceEncoder struct {
	baseURL    string
	dimension  int
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPFaceEncoder(baseURL string, dimension int, timeout time.Duration, logger *zap.Logger) *HTTPFaceEncoder {
	return &HTTPFaceEncoder{
		baseURL:   baseURL,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Encode posts the JPEG bytes to {baseURL}/encode. Encodings with an unexpected
// length are dropped.
func (e *HTTPFaceEncoder) Encode(ctx context.Context, jpeg []byte) ([][]float32, error) {
	url := e.baseURL + "/encode"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jpeg))
	if err != nil {
		return nil, errors.NewFaceEncoderError("failed to create request", 0, err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewFaceEncoderError("request failed", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.NewFaceEncoderError(
			fmt.Sprintf("face encoder error: %s: %s", resp.Status, bytes.TrimSpace(body)),
			resp.StatusCode,
			nil,
		)
	}

	var decoded encodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.NewFaceEncoderError("failed to decode response", resp.StatusCode, err)
	}

	encodings := make([][]float32, 0, len(decoded.Encodings))
	for i, enc := range decoded.Encodings {
		if e.dimension > 0 && len(enc) != e.dimension {
			e.logger.Warn("Dropping face encoding with unexpected dimension",
				zap.Int("index", i),
				zap.Int("got", len(enc)),
				zap.Int("want", e.dimension),
			)
			continue
		}
		encodings = append(encodings, enc)
	}
	return encodings, nil
}
