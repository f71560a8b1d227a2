package observability

import (
	"bytes"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func restoreDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		log.SetOutput(&bytes.Buffer{})
	})
}

func TestInitWith_CloudLoggingKeys(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	logger := InitWith(&buf, "json", "debug")

	logger.Warn("aviso", slog.String("k", "v"))
	log.Printf("Warning: something odd")
	log.Printf("Client onboarded")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "WARNING", lines[0]["severity"])
	assert.Equal(t, "aviso", lines[0]["message"])
	assert.Equal(t, "smartlegal", lines[0]["app"])
	assert.Equal(t, "v", lines[0]["k"])
	assert.Equal(t, "WARNING", lines[1]["severity"])
	assert.Equal(t, "INFO", lines[2]["severity"])
	assert.Equal(t, "Client onboarded", lines[2]["message"])
}

func TestInitWith_LevelFilter(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	logger := InitWith(&buf, "json", "error")
	logger.Info("hidden")
	logger.Error("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "ERROR", lines[0]["severity"])
}

func TestParseLevelAndSeverity(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, parseLevel(" WARNING "))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
	assert.Equal(t, "DEBUG", levelToSeverity(slog.LevelDebug-4))
	assert.Equal(t, "ERROR", levelToSeverity(slog.LevelError+2))
}

func TestExtractTraceID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", ExtractTraceID(r))

	r.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", ExtractTraceID(r))

	r.Header.Set("X-Cloud-Trace-Context", "abc123/456;o=1")
	assert.Equal(t, "abc123", ExtractTraceID(r))

	assert.Equal(t, "projects/p/traces/abc", CloudLoggingTrace("p", "abc"))
	assert.Equal(t, "", CloudLoggingTrace("", "abc"))
	assert.Equal(t, "", ExtractTraceID(nil))
}

func TestMiddlewares(t *testing.T) {
	restoreDefault(t)
	gin.SetMode(gin.TestMode)
	prev := config.GCPProjectID
	config.GCPProjectID = "proj"
	t.Cleanup(func() { config.GCPProjectID = prev })

	var buf bytes.Buffer
	InitWith(&buf, "json", "info")

	r := gin.New()
	r.Use(RequestContextMiddleware(), AccessLogMiddleware())
	r.GET("/api/clients/:id", func(c *gin.Context) {
		c.Set(StaffKey, "ana@smartlegal.com")
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/clients/7", nil)
	req.Header.Set("X-Request-Id", "req-1")
	req.Header.Set("X-Cloud-Trace-Context", "trace-1/1;o=1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get("X-Request-Id"))
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "http_request", entry["message"])
	assert.Equal(t, "WARNING", entry["severity"])
	assert.Equal(t, "/api/clients/:id", entry["path"])
	assert.Equal(t, float64(404), entry["status"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "ana@smartlegal.com", entry["staff"])
	assert.Equal(t, "projects/proj/traces/trace-1", entry["logging.googleapis.com/trace"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/clients/8", nil))
	assert.Len(t, w.Header().Get("X-Request-Id"), 32)
}
