package errors

import "fmt"

// Error codes
const (
	CodeAppError    = "APP_ERROR"
	CodeValidation  = "VALIDATION_ERROR"
	CodeStore       = "STORE_ERROR"
	CodeCache       = "CACHE_ERROR"
	CodeGeneration  = "GENERATION_ERROR"
	CodeFaceEncoder = "FACE_ENCODER_ERROR"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(message, code string, statusCode int, context map[string]any) *AppError {
	return &AppError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

type ValidationError struct {
	*AppError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

// StoreError wraps a vector store failure with the collection and operation involved.
type StoreError struct {
	*AppError
	Collection string
	Operation  string
}

func NewStoreError(message, collection, operation string, cause error) *StoreError {
	return &StoreError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeStore,
			StatusCode: 500,
			Context: map[string]any{
				"collection": collection,
				"operation":  operation,
			},
			Cause: cause,
		},
		Collection: collection,
		Operation:  operation,
	}
}

type CacheError struct {
	*AppError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// GenerationError reports a failed call to a generative model provider.
type GenerationError struct {
	*AppError
	Provider string
	Model    string
}

func NewGenerationError(message, provider, model string, cause error) *GenerationError {
	return &GenerationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeGeneration,
			StatusCode: 502,
			Context: map[string]any{
				"provider": provider,
				"model":    model,
			},
			Cause: cause,
		},
		Provider: provider,
		Model:    model,
	}
}

type FaceEncoderError struct {
	*AppError
	UpstreamStatus int
}

func NewFaceEncoderError(message string, statusCode int, cause error) *FaceEncoderError {
	return &FaceEncoderError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeFaceEncoder,
			StatusCode: 502,
			Context: map[string]any{
				"upstream_status": statusCode,
			},
			Cause: cause,
		},
		UpstreamStatus: statusCode,
	}
}
