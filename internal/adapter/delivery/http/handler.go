package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/lru-shortener/internal/entity"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type urlUseCase interface {
	ShortenURL(ctx context.Context, originalURL string) (*entity.URL, error)
	ResolveShortURL(ctx context.Context, shortURL string) (*entity.URL, error)
	CacheSnapshot() entity.CacheSnapshot
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		useCase:  useCase,
		validate: validate,
	}
}

// decodeAndValidate writes a 400 response and returns false when the body is empty,
// malformed or fails validation.
func (h *urlHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return false
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return false
	}

	if err := h.validate.Struct(v); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return false
	}

	return true
}

func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	url, err := h.useCase.ShortenURL(r.Context(), req.OriginalURL)
	if err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toURLResponse(url))
}

func (h *urlHandler) resolveShortCode(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, chi.URLParam(r, "shortCode"))
}

func (h *urlHandler) resolveShortURL(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	h.resolve(w, r, req.ShortURL)
}

func (h *urlHandler) resolve(w http.ResponseWriter, r *http.Request, shortURL string) {
	url, ok := h.lookup(w, r, shortURL)
	if !ok {
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLResponse(url))
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	url, ok := h.lookup(w, r, chi.URLParam(r, "shortCode"))
	if !ok {
		return
	}

	http.Redirect(w, r, url.OriginalURL, http.StatusFound)
}

func (h *urlHandler) lookup(w http.ResponseWriter, r *http.Request, shortURL string) (*entity.URL, bool) {
	url, err := h.useCase.ResolveShortURL(r.Context(), shortURL)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, urlNotFoundResponse)
			return nil, false
		}

		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return nil, false
	}

	return url, true
}

func (h *urlHandler) cacheSnapshot(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, toCacheResponse(h.useCase.CacheSnapshot()))
}
