package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger_WritesAccessLog(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	e := echo.New()
	e.Use(RequestID())
	e.Use(RequestLogger(log))
	e.GET("/cart/:userId", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "cart not found"})
	})

	req := httptest.NewRequest(http.MethodGet, "/cart/1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	reqID := rec.Header().Get(echo.HeaderXRequestID)
	assert.Len(t, reqID, 36)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "http request", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "/cart/1", entry["uri"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, reqID, entry["request_id"])
}

// ハンドラ内で zerolog.Ctx を使うと request_id 付きで出る
func TestRequestLogger_ContextLoggerCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.WarnLevel)

	e := echo.New()
	e.Use(RequestID())
	e.Use(RequestLogger(log))
	e.GET("/", func(c echo.Context) error {
		zerolog.Ctx(c.Request().Context()).Warn().Msg("inside handler")
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// 200のアクセスログはInfoなので出ない
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "inside handler", entry["message"])
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestRequestID_KeepsIncomingHeader(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))
}
