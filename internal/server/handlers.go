// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/pdiddy/docling-service/internal/logging"
	"github.com/pdiddy/docling-service/pkg/api"
	"github.com/pdiddy/docling-service/pkg/types"
)

const (
	formFileField = "file"

	// multipartOverhead is the slack allowed on top of MaxFileSize for
	// boundaries, part headers and small form fields.
	multipartOverhead = 1 << 20
)

// RootHandler godoc
//
// @Summary Service information
// @Description Returns the service name, version and the available endpoints.
// @Tags service
// @Produce json
// @Success 200 {object} api.ServiceInfo
// @Router / [get]
func (s *Server) RootHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, api.NewServiceInfo())
}

// HealthHandler godoc
//
// @Summary Liveness probe
// @Description Always healthy while the process is serving. Never waits on a conversion.
// @Tags service
// @Produce json
// @Success 200 {object} api.Health
// @Router /health [get]
func (s *Server) HealthHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, api.NewHealth())
}

// ConvertPDFHandler godoc
//
// @Summary Convert a PDF to Markdown
// @Description Upload a PDF as multipart field "file". The X-API-Key header must match the configured key.
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Security APIKey
// @Param X-API-Key header string true "Service API key"
// @Param file formData file true "PDF document"
// @Success 200 {object} api.ConvertResponse
// @Failure 400 {object} api.Error
// @Failure 401 {object} api.Error
// @Failure 413 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /convert-pdf [post]
func (s *Server) ConvertPDFHandler(ctx *gin.Context) {
	logger := logging.FromCtx(ctx, s.logger)
	logger.Info("request_received",
		"content_length", ctx.Request.ContentLength,
		"client_ip", ctx.ClientIP(),
	)

	key := ctx.GetHeader(headerAPIKey)
	if !s.authorized(key) {
		s.fail(ctx, logger.WithFields("key_present", key != ""), types.Failed("", types.FailureAuthentication, nil))
		return
	}

	req, rejected := s.readUpload(ctx)
	if rejected != nil {
		s.fail(ctx, logger, rejected.result, rejected.attrs...)
		return
	}
	logger = logger.WithFields("size_bytes", req.Size)

	result := s.convert(ctx.Request.Context(), logger, req)
	if !result.OK() {
		s.fail(ctx, logger, result)
		return
	}
	ctx.JSON(http.StatusOK, api.FromResult(result))
}

// authorized compares the presented key in constant time.
func (s *Server) authorized(key string) bool {
	return key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) == 1
}

// rejection is an upload refused before conversion, with extra log fields.
type rejection struct {
	result types.ConversionResult
	attrs  []any
}

func reject(filename string, kind types.FailureKind, err error, attrs ...any) *rejection {
	return &rejection{result: types.Failed(filename, kind, err), attrs: attrs}
}

func (s *Server) tooLarge(filename string, size int64, err error) *rejection {
	return reject(filename, types.FailureTooLarge, err,
		"size_bytes", size,
		"max_size_bytes", s.cfg.MaxFileSize,
		"size", humanize.IBytes(uint64(max(size, 0))),
	)
}

// readUpload pulls the "file" part out of the request and enforces the type
// and size rules.
func (s *Server) readUpload(ctx *gin.Context) (types.ConversionRequest, *rejection) {
	limit := s.cfg.MaxFileSize
	if ctx.Request.ContentLength > limit+multipartOverhead {
		return types.ConversionRequest{}, s.tooLarge("", ctx.Request.ContentLength, nil)
	}
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit+multipartOverhead)

	fh, err := ctx.FormFile(formFileField)
	if form := ctx.Request.MultipartForm; form != nil {
		defer func() { _ = form.RemoveAll() }()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return types.ConversionRequest{}, s.tooLarge("", ctx.Request.ContentLength, err)
		}
		return types.ConversionRequest{}, reject("", types.FailureMissingFile, err)
	}

	if fh.Filename == "" {
		return types.ConversionRequest{}, reject("", types.FailureMissingFile, nil)
	}
	name := filepath.Base(fh.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return types.ConversionRequest{}, reject(name, types.FailureFileType, nil)
	}
	if fh.Size > limit {
		return types.ConversionRequest{}, s.tooLarge(name, fh.Size, nil)
	}

	content, err := readPart(fh, limit)
	if err != nil {
		return types.ConversionRequest{}, reject(name, types.FailureInternal, err)
	}
	if int64(len(content)) > limit {
		return types.ConversionRequest{}, s.tooLarge(name, int64(len(content)), nil)
	}

	return types.ConversionRequest{Filename: name, Content: content, Size: int64(len(content))}, nil
}

func readPart(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit+1))
}

// convert runs one conversion. The converter owns the worker slot.
func (s *Server) convert(ctx context.Context, logger *logging.Logger, req types.ConversionRequest) types.ConversionResult {
	logger.Info("processing_file", "filename", req.Filename, "size", humanize.IBytes(uint64(req.Size)))
	start := time.Now()

	markdown, err := s.converter.Convert(ctx, req.Content)
	if err != nil {
		kind := types.FailureConversion
		if errors.Is(err, context.DeadlineExceeded) {
			kind = types.FailureTimeout
		}
		return types.Failed(req.Filename, kind, err)
	}

	result := types.Succeeded(req.Filename, markdown)
	logger.Info("conversion_successful",
		"filename", req.Filename,
		"output_length", result.TextLength,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}

// fail logs the failure with its kind and writes the public envelope.
func (s *Server) fail(ctx *gin.Context, logger *logging.Logger, res types.ConversionResult, attrs ...any) {
	status, body := failureResponse(res.Kind, s.cfg.MaxFileSize)

	l := logger.WithFields(append([]any{"kind", string(res.Kind), "status_code", status}, attrs...)...)
	if res.Filename != "" {
		l = l.WithFields("filename", res.Filename)
	}
	if res.Err != nil {
		l = l.WithError(res.Err)
	}
	if status >= http.StatusInternalServerError {
		l.Error(failureEvent(res.Kind))
	} else {
		l.Warn(failureEvent(res.Kind))
	}

	ctx.AbortWithStatusJSON(status, body)
}

func failureEvent(kind types.FailureKind) string {
	switch kind {
	case types.FailureAuthentication:
		return "invalid_api_key_attempt"
	case types.FailureTooLarge:
		return "file_too_large"
	case types.FailureFileType:
		return "invalid_file_type"
	case types.FailureMissingFile:
		return "missing_file"
	case types.FailureTimeout:
		return "conversion_timeout"
	case types.FailureConversion:
		return "conversion_error"
	default:
		return "internal_error"
	}
}
