package observability

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/gin-gonic/gin"
)

const (
	ctxKeyRequestID = "request_id"
	ctxKeyTraceID   = "trace_id"
	ctxKeyLogger    = "logger"

	// StaffKey holds the authenticated staff e-mail in the gin context.
	StaffKey = "staff_email"
)

// RequestContextMiddleware ensures each request has a request id and captures the trace id
// for log correlation.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if reqID == "" {
			reqID = newRequestID()
		}
		c.Set(ctxKeyRequestID, reqID)
		c.Writer.Header().Set("X-Request-Id", reqID)

		logger := slog.Default().With(slog.String("request_id", reqID))
		if traceID := ExtractTraceID(c.Request); traceID != "" {
			c.Set(ctxKeyTraceID, traceID)
			if trace := CloudLoggingTrace(config.GCPProjectID, traceID); trace != "" {
				logger = logger.With(slog.String("logging.googleapis.com/trace", trace))
			}
		}
		c.Set(ctxKeyLogger, logger)

		c.Next()
	}
}

// Logger returns the request logger, with the staff e-mail once authenticated.
func Logger(c *gin.Context) *slog.Logger {
	logger := slog.Default()
	if v, ok := c.Get(ctxKeyLogger); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			logger = l
		}
	}
	if staff := getString(c, StaffKey); staff != "" {
		logger = logger.With(slog.String("staff", staff))
	}
	return logger
}

// AccessLogMiddleware emits a structured access log per request.
func AccessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Int64("latency_ms", latency.Milliseconds()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		Logger(c).LogAttrs(c.Request.Context(), level, "http_request", attrs...)
	}
}

// ExtractTraceID reads the trace id from X-Cloud-Trace-Context (TRACE_ID/SPAN_ID;o=1)
// or W3C traceparent (00-TRACE_ID-SPAN_ID-FLAGS).
func ExtractTraceID(r *http.Request) string {
	if r == nil {
		return ""
	}

	if h := strings.TrimSpace(r.Header.Get("X-Cloud-Trace-Context")); h != "" {
		if i := strings.IndexByte(h, '/'); i > 0 {
			return h[:i]
		}
	}

	if h := strings.TrimSpace(r.Header.Get("traceparent")); h != "" {
		parts := strings.Split(h, "-")
		if len(parts) >= 4 && len(parts[1]) == 32 {
			return parts[1]
		}
	}

	return ""
}

// CloudLoggingTrace formats the trace field Cloud Logging uses to group request logs.
func CloudLoggingTrace(projectID, traceID string) string {
	projectID = strings.TrimSpace(projectID)
	traceID = strings.TrimSpace(traceID)
	if projectID == "" || traceID == "" {
		return ""
	}
	return "projects/" + projectID + "/traces/" + traceID
}

func getString(c *gin.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func newRequestID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().UTC().Format(time.RFC3339Nano)
	}
	return hex.EncodeToString(b[:])
}
