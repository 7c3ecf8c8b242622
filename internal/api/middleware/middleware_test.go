package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/timmy/figureimg/internal/logger"
)

func newEngine(mw ...gin.HandlerFunc) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		seen = logger.GetRequestID(c.Request.Context())
		c.String(http.StatusOK, "pong")
	})
	return r, &seen
}

func TestLoggerMiddleware_GeneratesRequestID(t *testing.T) {
	r, seen := newEngine(LoggerMiddleware(nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, *seen)
}

func TestLoggerMiddleware_KeepsValidIncomingID(t *testing.T) {
	r, seen := newEngine(LoggerMiddleware(nil))
	incoming := uuid.NewString()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, incoming)
	r.ServeHTTP(w, req)

	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))
	assert.Equal(t, incoming, *seen)
}

func TestLoggerMiddleware_ReplacesMalformedID(t *testing.T) {
	r, _ := newEngine(LoggerMiddleware(nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	r.ServeHTTP(w, req)

	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		config     CORSConfig
		origin     string
		wantOrigin string
	}{
		{"allow all", CORSConfig{AllowAllOrigins: true}, "https://app.example.com", "*"},
		{"listed origin", CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}, "https://app.example.com", "https://app.example.com"},
		{"unlisted origin", CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}, "https://evil.example.com", ""},
		{"no list", CORSConfig{}, "https://app.example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newEngine(CORS(tt.config))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("Origin", tt.origin)
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
