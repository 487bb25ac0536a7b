package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, lvl zerolog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf, lvl)
	t.Cleanup(func() { Init("info") })
	return &buf
}

func TestInitFallsBackToInfo(t *testing.T) {
	Init("not-a-level")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

	Init("")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

	Init("warn")
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
	Init("info")
}

func TestLevelFiltering(t *testing.T) {
	buf := captureLogs(t, zerolog.WarnLevel)

	Info().Msg("hidden")
	Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t, zerolog.DebugLevel)

	r := gin.New()
	r.Use(GinLogger())
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/missing?x=1", nil)
	r.ServeHTTP(w, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "/missing", entry["path"])
	assert.Equal(t, "x=1", entry["query"])
	assert.EqualValues(t, http.StatusNotFound, entry["status"])
}

func TestGinRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t, zerolog.InfoLevel)

	r := gin.New()
	r.Use(GinRecovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}
