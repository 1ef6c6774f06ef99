// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pdiddy/docling-service/internal/logging"
	"github.com/pdiddy/docling-service/pkg/api"
	"github.com/pdiddy/docling-service/pkg/types"
)

const (
	RFC3339Millis = "2006-01-02T15:04:05.000Z07:00"

	headerRequestID = "X-Request-ID"
	headerAPIKey    = "X-API-Key"

	corsMaxAge = 12 * time.Hour
)

// requestID tags the request with an X-Request-ID, reusing a well-formed
// incoming one, and attaches a logger carrying it.
func requestID(base *logging.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		ctx.Header(headerRequestID, id)
		ctx.Set(headerRequestID, id)
		logging.Attach(ctx, base.WithFields("request_id", id, "path", ctx.Request.URL.Path))
		ctx.Next()
	}
}

// accessLogLine is one JSON access log record.
type accessLogLine struct {
	Timestamp    string `json:"timestamp"`
	RequestID    string `json:"request_id,omitempty"`
	StatusCode   int    `json:"status_code"`
	Latency      string `json:"latency"`
	LatencyRaw   int64  `json:"latency_raw"`
	RequestSize  string `json:"request_size"`
	RequestRaw   int64  `json:"request_size_raw"`
	ResponseSize string `json:"response_size"`
	ResponseRaw  int    `json:"response_size_raw"`
	ClientIP     string `json:"client_ip"`
	Method       string `json:"method"`
	Path         string `json:"path"`
	Error        string `json:"error,omitempty"`
}

func logFormatter(param gin.LogFormatterParams) string {
	if param.Latency > time.Minute {
		param.Latency = param.Latency.Truncate(time.Second)
	}
	size := max(param.BodySize, 0)
	var reqSize int64
	if param.Request != nil {
		reqSize = max(param.Request.ContentLength, 0)
	}

	line := accessLogLine{
		Timestamp:    param.TimeStamp.Format(RFC3339Millis),
		StatusCode:   param.StatusCode,
		Latency:      param.Latency.String(),
		LatencyRaw:   int64(param.Latency),
		RequestSize:  humanize.Bytes(uint64(reqSize)),
		RequestRaw:   reqSize,
		ResponseSize: humanize.Bytes(uint64(size)),
		ResponseRaw:  size,
		ClientIP:     param.ClientIP,
		Method:       param.Method,
		Path:         param.Path,
		Error:        param.ErrorMessage,
	}
	if id, ok := param.Keys[headerRequestID].(string); ok {
		line.RequestID = id
	}

	b, err := json.Marshal(line)
	if err != nil {
		return fmt.Sprintf("{\"error\":%q}\n", err.Error())
	}
	return string(b) + "\n"
}

// accessLog writes one JSON line per request to out. Health probes are skipped.
func accessLog(out io.Writer) gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: logFormatter,
		Output:    out,
		SkipPaths: []string{"/health"},
	})
}

// recovery turns a panic into the generic 500 envelope.
func recovery(base *logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(ctx *gin.Context, rec any) {
		logging.FromCtx(ctx, base).Error("internal_error", "panic", fmt.Sprint(rec))
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, errInternal)
	})
}

// corsPolicy applies the configured allow-list. A wildcard echoes the caller's
// origin so credentialed requests are still accepted. Other routes refuse a
// disallowed origin with 403, but /health answers it without CORS headers.
func corsPolicy(cfg types.ServiceConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", headerAPIKey, headerRequestID},
		ExposeHeaders:    []string{headerRequestID},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	}
	if cfg.AllowsAllOrigins() {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	h := cors.New(c)
	return func(ctx *gin.Context) {
		if ctx.Request.URL.Path == "/health" && !originAllowed(cfg, ctx.GetHeader("Origin")) {
			return
		}
		h(ctx)
	}
}

func originAllowed(cfg types.ServiceConfig, origin string) bool {
	if origin == "" || cfg.AllowsAllOrigins() {
		return true
	}
	return slices.ContainsFunc(cfg.AllowedOrigins, func(o string) bool {
		return strings.ToLower(strings.TrimSpace(o)) == origin
	})
}

func notFound(ctx *gin.Context) {
	ctx.JSON(http.StatusNotFound, api.NewError(types.FailureNotFound, "Not Found"))
}
