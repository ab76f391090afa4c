package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/kapu/roast-rag-go/pkg/errors"
	"go.uber.org/zap"
)

type errorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(body)
}

// writeError maps typed application errors to a status and JSON body.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	body := errorBody{Status: "error", Code: apperrors.CodeAppError, Message: "internal server error"}
	status := http.StatusInternalServerError

	var validationErr *apperrors.ValidationError
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &validationErr):
		status = validationErr.StatusCode
		body.Code = validationErr.Code
		body.Message = validationErr.Message
		body.Field = validationErr.Field
	case errors.As(err, &appErr):
		status = appErr.StatusCode
		body.Code = appErr.Code
		body.Message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
	}
	writeJSON(w, status, body)
}
