package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kapu/roast-rag-go/internal/domain"
	apperrors "github.com/kapu/roast-rag-go/pkg/errors"
	"go.uber.org/zap"
)

const (
	rootMessage = "Cooked.ai Backend is running! 🔥"

	fieldName  = "name"
	fieldTaste = "taste"
	fieldImage = "image"
)

// Roaster is the orchestration entrypoint the HTTP layer calls.
type Roaster interface {
	Roast(ctx context.Context, req domain.RoastRequest) domain.RoastRecord
}

type HandlerConfig struct {
	MaxUploadBytes    int64
	GenerationTimeout time.Duration
}

type Handler struct {
	roaster Roaster
	cfg     HandlerConfig
	logger  *zap.Logger
}

func NewHandler(roaster Roaster, cfg HandlerConfig, logger *zap.Logger) *Handler {
	return &Handler{roaster: roaster, cfg: cfg, logger: logger}
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type roastResponse struct {
	Status string             `json:"status"`
	Data   domain.RoastRecord `json:"data"`
}

func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: rootMessage})
}

// GenerateRoast accepts multipart form data with name, taste and an optional image.
func (h *Handler) GenerateRoast(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRoastRequest(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	ctx := r.Context()
	if h.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.GenerationTimeout)
		defer cancel()
	}

	record := h.roaster.Roast(ctx, req)
	writeJSON(w, http.StatusOK, roastResponse{Status: "success", Data: record})
}

func (h *Handler) parseRoastRequest(w http.ResponseWriter, r *http.Request) (domain.RoastRequest, error) {
	if h.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	}

	if err := r.ParseMultipartForm(h.maxMemory()); err != nil {
		if isTooLarge(err) {
			return domain.RoastRequest{}, apperrors.NewAppError("upload exceeds size limit", apperrors.CodeValidation, http.StatusRequestEntityTooLarge,
				map[string]any{"limit_bytes": h.cfg.MaxUploadBytes})
		}
		return domain.RoastRequest{}, apperrors.NewValidationError("expected multipart/form-data body", "body", nil)
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	name := r.FormValue(fieldName)
	if strings.TrimSpace(name) == "" {
		return domain.RoastRequest{}, apperrors.NewValidationError("name is required", fieldName, nil)
	}
	taste := r.FormValue(fieldTaste)
	if strings.TrimSpace(taste) == "" {
		return domain.RoastRequest{}, apperrors.NewValidationError("taste is required", fieldTaste, nil)
	}

	image, err := readImage(r)
	if err != nil {
		return domain.RoastRequest{}, err
	}

	return domain.RoastRequest{Name: name, Taste: taste, Image: image}, nil
}

func (h *Handler) maxMemory() int64 {
	if h.cfg.MaxUploadBytes > 0 {
		return h.cfg.MaxUploadBytes
	}
	return 32 << 20
}

func readImage(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile(fieldImage)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewValidationError("image could not be read", fieldImage, nil)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.NewValidationError("image could not be read", fieldImage, nil)
	}
	return data, nil
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return true
	}
	// older multipart readers flatten the wrapped error into text
	return strings.Contains(err.Error(), "request body too large")
}
