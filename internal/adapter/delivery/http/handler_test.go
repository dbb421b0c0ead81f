package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/lru-shortener/internal/entity"
	"github.com/vadimbarashkov/lru-shortener/internal/metrics"
)

type MockURLUseCase struct {
	mock.Mock
}

func (uc *MockURLUseCase) ShortenURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	args := uc.Called(ctx, originalURL)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (uc *MockURLUseCase) ResolveShortURL(ctx context.Context, shortURL string) (*entity.URL, error) {
	args := uc.Called(ctx, shortURL)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (uc *MockURLUseCase) CacheSnapshot() entity.CacheSnapshot {
	args := uc.Called()
	return args.Get(0).(entity.CacheSnapshot)
}

type HandlersTestSuite struct {
	suite.Suite
	logger         *httplog.Logger
	registry       *prometheus.Registry
	metrics        *metrics.Metrics
	urlUseCaseMock *MockURLUseCase
	server         *httptest.Server
	e              *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.urlUseCaseMock = new(MockURLUseCase)
	suite.registry = prometheus.NewRegistry()
	suite.metrics = metrics.New(suite.registry)

	router := NewRouter(suite.logger, suite.urlUseCaseMock, suite.registry)
	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(func() {
		suite.server.Close()
	})

	suite.e = httpexpect.Default(suite.T(), suite.server.URL)
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.urlUseCaseMock.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestPing() {
	const path = "/api/v1/ping"

	suite.Run("success", func() {
		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("pong")
	})
}

func (suite *HandlersTestSuite) TestShortenURL() {
	const path = "/api/v1/shorten"

	suite.Run("empty request body", func() {
		suite.e.POST(path).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("status", "error").
			HasValue("message", "empty request body")
	})

	suite.Run("invalid request body", func() {
		suite.e.POST(path).
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("status", "error").
			HasValue("message", "invalid request body")
	})

	suite.Run("validation error", func() {
		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "invalid url"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.ContainsKey("message")
		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "original_url").
			HasValue("message", "invalid url")
	})

	suite.Run("server error", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com").
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com"}).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			HasValue("status", "error").
			ContainsKey("message")
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com").
			Once().
			Return(&entity.URL{
				ID:          1,
				ShortCode:   "1",
				ShortURL:    "https://short.ly/1",
				OriginalURL: "https://example.com",
				CreatedAt:   time.Now(),
			}, nil)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com"}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object()

		resp.HasValue("id", 1)
		resp.HasValue("short_code", "1")
		resp.HasValue("short_url", "https://short.ly/1")
		resp.HasValue("original_url", "https://example.com")
		resp.ContainsKey("created_at")
		resp.NotContainsKey("updated_at")
	})
}

func (suite *HandlersTestSuite) TestResolveShortCode() {
	const path = "/api/v1/shorten/%s"

	suite.Run("url not found", func() {
		suite.urlUseCaseMock.
			On("ResolveShortURL", mock.Anything, "abc").
			Once().
			Return(nil, fmt.Errorf("wrapped: %w", entity.ErrURLNotFound))

		suite.e.GET(fmt.Sprintf(path, "abc")).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object().
			HasValue("status", "error").
			HasValue("message", "url not found")
	})

	suite.Run("server error", func() {
		suite.urlUseCaseMock.
			On("ResolveShortURL", mock.Anything, "abc").
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.GET(fmt.Sprintf(path, "abc")).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			HasValue("status", "error")
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("ResolveShortURL", mock.Anything, "abc").
			Once().
			Return(&entity.URL{
				ID:          2,
				ShortCode:   "abc",
				ShortURL:    "https://short.ly/abc",
				OriginalURL: "https://example.com",
			}, nil)

		resp := suite.e.GET(fmt.Sprintf(path, "abc")).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("short_code", "abc")
		resp.HasValue("short_url", "https://short.ly/abc")
		resp.HasValue("original_url", "https://example.com")
	})
}

func (suite *HandlersTestSuite) TestResolveShortURL() {
	const path = "/api/v1/resolve"

	suite.Run("empty request body", func() {
		suite.e.POST(path).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("message", "empty request body")
	})

	suite.Run("validation error", func() {
		suite.e.POST(path).
			WithJSON(map[string]string{}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			Value("errors").Array().Value(0).Object().
			HasValue("field", "short_url").
			HasValue("message", "this field is required")
	})

	suite.Run("url not found", func() {
		suite.urlUseCaseMock.
			On("ResolveShortURL", mock.Anything, "https://short.ly/zzz").
			Once().
			Return(nil, entity.ErrURLNotFound)

		suite.e.POST(path).
			WithJSON(map[string]string{"short_url": "https://short.ly/zzz"}).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object().
			HasValue("message", "url not found")
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("ResolveShortURL", mock.Anything, "https://short.ly/1").
			Once().
			Return(&entity.URL{
				ID:          1,
				ShortCode:   "1",
				ShortURL:    "https://short.ly/1",
				OriginalURL: "https://example.com",
			}, nil)

		suite.e.POST(path).
			WithJSON(map[string]string{"short_url": "https://short.ly/1"}).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("short_code", "1").
			HasValue("original_url", "https://example.com")
	})
}

func (suite *HandlersTestSuite) TestCacheSnapshot() {
	const path = "/api/v1/cache"

	suite.Run("empty", func() {
		suite.urlUseCaseMock.
			On("CacheSnapshot").
			Once().
			Return(entity.CacheSnapshot{Capacity: 5})

		resp := suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("capacity", 5)
		resp.HasValue("size", 0)
		resp.Value("keys").Array().IsEmpty()
	})

	suite.Run("least recently used first", func() {
		suite.urlUseCaseMock.
			On("CacheSnapshot").
			Once().
			Return(entity.CacheSnapshot{Capacity: 2, Keys: []string{"3", "1"}})

		resp := suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("capacity", 2)
		resp.HasValue("size", 2)
		resp.Value("keys").Array().ConsistsOf("3", "1")
	})
}

func (suite *HandlersTestSuite) TestRedirect() {
	suite.Run("url not found", func() {
		suite.urlUseCaseMock.
			On("ResolveShortURL", mock.Anything, "zzz").
			Once().
			Return(nil, entity.ErrURLNotFound)

		suite.e.GET("/zzz").
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusNotFound)
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("ResolveShortURL", mock.Anything, "1").
			Once().
			Return(&entity.URL{ShortCode: "1", OriginalURL: "https://example.com/page"}, nil)

		suite.e.GET("/1").
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com/page")
	})
}

func (suite *HandlersTestSuite) TestMetrics() {
	suite.Run("exposes registry", func() {
		suite.metrics.CacheHits.Add(3)

		suite.e.GET("/metrics").
			Expect().
			Status(http.StatusOK).
			Text().Contains("url_shortener_cache_hits_total 3")
	})
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
