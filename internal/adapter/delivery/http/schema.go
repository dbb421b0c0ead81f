package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/lru-shortener/internal/entity"
)

const statusError = "error"

type shortenRequest struct {
	OriginalURL string `json:"original_url" validate:"required,url"`
}

// resolveRequest accepts either a full short URL or a bare short code.
type resolveRequest struct {
	ShortURL string `json:"short_url" validate:"required"`
}

type urlResponse struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func toURLResponse(url *entity.URL) urlResponse {
	return urlResponse{
		ID:          url.ID,
		ShortCode:   url.ShortCode,
		ShortURL:    url.ShortURL,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
	}
}

// cacheResponse lists cached short codes from least to most recently used.
type cacheResponse struct {
	Capacity int      `json:"capacity"`
	Size     int      `json:"size"`
	Keys     []string `json:"keys"`
}

func toCacheResponse(s entity.CacheSnapshot) cacheResponse {
	keys := s.Keys
	if keys == nil {
		keys = []string{}
	}

	return cacheResponse{
		Capacity: s.Capacity,
		Size:     len(keys),
		Keys:     keys,
	}
}

type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	urlNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "url not found",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Message: "server error occurred",
	}
)

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "url":
		return "invalid url"
	default:
		return "invalid value"
	}
}

func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}
