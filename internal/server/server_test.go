// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docling-service/internal/convert"
	"github.com/pdiddy/docling-service/internal/logging"
	"github.com/pdiddy/docling-service/pkg/api"
	"github.com/pdiddy/docling-service/pkg/types"
)

const testKey = "secret123"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// countingConverter records how many times Convert was reached.
type countingConverter struct {
	calls atomic.Int32
	fn    convert.ConverterFunc
}

func (c *countingConverter) Convert(ctx context.Context, doc []byte) (string, error) {
	c.calls.Add(1)
	return c.fn(ctx, doc)
}

func returning(md string) *countingConverter {
	return &countingConverter{fn: func(context.Context, []byte) (string, error) { return md, nil }}
}

func testConfig() types.ServiceConfig {
	return types.ServiceConfig{
		APIKey:            testKey,
		Port:              8000,
		Workers:           2,
		MaxFileSize:       types.DefaultMaxFileSize,
		AllowedOrigins:    []string{"*"},
		LogLevel:          "debug",
		ConversionTimeout: 5 * time.Second,
		ShutdownTimeout:   time.Second,
		Conversion:        types.ConversionConfig{Backend: types.BackendNative},
	}
}

func newTestServer(t *testing.T, conv convert.Converter, mutate ...func(*types.ServiceConfig)) *Server {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg, conv, logging.Discard(), WithAccessLog(&bytes.Buffer{}))
}

func uploadRequest(t *testing.T, key, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert-pdf", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if key != "" {
		req.Header.Set(headerAPIKey, key)
	}
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.Error {
	t.Helper()
	var e api.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func TestRootHandler(t *testing.T) {
	s := newTestServer(t, returning("x"))
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var info api.ServiceInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Docling PDF Processing Service", info.Service)
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, "/health", info.Endpoints["health"])
	assert.Equal(t, "/convert-pdf", info.Endpoints["convert"])
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t, returning("x"))
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"docling-pdf-processor","version":"1.0.0"}`, rec.Body.String())
}

func TestConvertPDF_Success(t *testing.T) {
	var got []byte
	conv := &countingConverter{fn: func(_ context.Context, doc []byte) (string, error) {
		got = doc
		return strings.Repeat("a", 500), nil
	}}
	s := newTestServer(t, conv)
	pdf := []byte("%PDF-1.7 fake body")

	rec := serve(s, uploadRequest(t, testKey, "file", "doc.pdf", pdf))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp api.ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.StatusSuccess, resp.Status)
	assert.Equal(t, "doc.pdf", resp.Filename)
	assert.Equal(t, 500, resp.TextLength)
	assert.Equal(t, strings.Repeat("a", 500), resp.Markdown)
	assert.Equal(t, int32(1), conv.calls.Load())
	assert.Equal(t, pdf, got)
}

func TestConvertPDF_TextLengthCountsCharacters(t *testing.T) {
	s := newTestServer(t, returning("héllo wörld"))
	rec := serve(s, uploadRequest(t, testKey, "file", "Report.PDF", []byte("pdf")))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 11, resp.TextLength)
	assert.Equal(t, "Report.PDF", resp.Filename)
}

func TestConvertPDF_Unauthorized(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "wrong key", key: "wrong"},
		{name: "missing key", key: ""},
		{name: "prefix of key", key: "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := returning("x")
			s := newTestServer(t, conv)

			rec := serve(s, uploadRequest(t, tt.key, "file", "doc.pdf", []byte("pdf")))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, types.StatusError, e.Status)
			assert.Equal(t, types.FailureAuthentication, e.Code)
			assert.Equal(t, "Invalid API key", e.Detail)
			assert.Zero(t, conv.calls.Load())
		})
	}
}

func TestConvertPDF_RejectedUploads(t *testing.T) {
	tests := []struct {
		name       string
		maxSize    int64
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantCode   types.FailureKind
	}{
		{
			name: "wrong form field",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, testKey, "document", "doc.pdf", []byte("pdf"))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.FailureMissingFile,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/convert-pdf", strings.NewReader(`{"file":"x"}`))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set(headerAPIKey, testKey)
				return req
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.FailureMissingFile,
		},
		{
			name: "not a pdf",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, testKey, "file", "notes.txt", []byte("hello"))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.FailureFileType,
		},
		{
			name:    "file over limit",
			maxSize: 1024,
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, testKey, "file", "big.pdf", bytes.Repeat([]byte("x"), 2048))
			},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   types.FailureTooLarge,
		},
		{
			name:    "body over limit",
			maxSize: 16,
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, testKey, "file", "huge.pdf", bytes.Repeat([]byte("x"), multipartOverhead+1024))
			},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   types.FailureTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := returning("x")
			s := newTestServer(t, conv, func(c *types.ServiceConfig) {
				if tt.maxSize > 0 {
					c.MaxFileSize = tt.maxSize
				}
			})

			rec := serve(s, tt.req(t))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
			assert.Zero(t, conv.calls.Load())
		})
	}
}

func TestConvertPDF_TooLargeDetailNamesLimit(t *testing.T) {
	s := newTestServer(t, returning("x"), func(c *types.ServiceConfig) { c.MaxFileSize = 1024 })
	rec := serve(s, uploadRequest(t, testKey, "file", "big.pdf", bytes.Repeat([]byte("x"), 2048)))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "File size exceeds maximum limit of 1.0 KiB", decodeError(t, rec).Detail)
}

func TestConvertPDF_ConversionError(t *testing.T) {
	conv := &countingConverter{fn: func(context.Context, []byte) (string, error) {
		return "", errors.New("stack trace: segfault in /tmp/work/doc.pdf")
	}}
	s := newTestServer(t, conv)

	rec := serve(s, uploadRequest(t, testKey, "file", "doc.pdf", []byte("pdf")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, types.FailureConversion, e.Code)
	assert.Equal(t, "An error occurred while processing the PDF file", e.Detail)
	assert.NotContains(t, rec.Body.String(), "segfault")
}

func TestConvertPDF_Timeout(t *testing.T) {
	conv := &countingConverter{fn: func(ctx context.Context, _ []byte) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	s := newTestServer(t, conv, func(c *types.ServiceConfig) { c.ConversionTimeout = 20 * time.Millisecond })

	rec := serve(s, uploadRequest(t, testKey, "file", "doc.pdf", []byte("pdf")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, types.FailureTimeout, decodeError(t, rec).Code)
}

func TestConvertPDF_Deterministic(t *testing.T) {
	s := newTestServer(t, returning("# Title\n\nBody text."))

	first := serve(s, uploadRequest(t, testKey, "file", "doc.pdf", []byte("pdf")))
	second := serve(s, uploadRequest(t, testKey, "file", "doc.pdf", []byte("pdf")))

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestConvertPDF_PanicRecovered(t *testing.T) {
	conv := &countingConverter{fn: func(context.Context, []byte) (string, error) {
		panic("nil map write")
	}}
	s := newTestServer(t, conv, func(c *types.ServiceConfig) { c.ConversionTimeout = 0 })

	rec := serve(s, uploadRequest(t, testKey, "file", "doc.pdf", []byte("pdf")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, types.FailureInternal, e.Code)
	assert.NotContains(t, rec.Body.String(), "nil map")
}

func TestHealth_RespondsDuringConversion(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	conv := &countingConverter{fn: func(context.Context, []byte) (string, error) {
		close(started)
		<-release
		return "done", nil
	}}
	s := newTestServer(t, conv, func(c *types.ServiceConfig) { c.Workers = 1 })

	var wg sync.WaitGroup
	wg.Add(1)
	var convRec *httptest.ResponseRecorder
	go func() {
		defer wg.Done()
		convRec = serve(s, uploadRequest(t, testKey, "file", "doc.pdf", []byte("pdf")))
	}()

	<-started
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, convRec.Code)
}

func TestConvertPDF_WorkersBoundConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	conv := &countingConverter{fn: func(context.Context, []byte) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return "ok", nil
	}}
	s := newTestServer(t, conv, func(c *types.ServiceConfig) { c.Workers = 2 })

	var wg sync.WaitGroup
	codes := make([]int, 6)
	for i := range codes {
		req := uploadRequest(t, testKey, "file", "doc.pdf", []byte("pdf"))
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = serve(s, req).Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, int32(6), conv.calls.Load())
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestConvertPDF_TimedOutConversionKeepsWorkerSlot(t *testing.T) {
	var inFlight, peak, finished atomic.Int32
	conv := &countingConverter{fn: func(context.Context, []byte) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(150 * time.Millisecond)
		finished.Add(1)
		inFlight.Add(-1)
		return "late", nil
	}}
	s := newTestServer(t, conv, func(c *types.ServiceConfig) {
		c.Workers = 1
		c.ConversionTimeout = 10 * time.Millisecond
	})

	for range 5 {
		rec := serve(s, uploadRequest(t, testKey, "file", "doc.pdf", []byte("pdf")))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, types.FailureTimeout, decodeError(t, rec).Code)
	}

	assert.Eventually(t, func() bool { return inFlight.Load() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), peak.Load())
	assert.Equal(t, int32(1), finished.Load())
}

func TestCORS_HealthIgnoresDisallowedOrigin(t *testing.T) {
	s := newTestServer(t, returning("x"), func(c *types.ServiceConfig) {
		c.AllowedOrigins = []string{"https://app.example.com"}
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = serve(s, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, returning("x"))
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/convert", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, types.FailureNotFound, decodeError(t, rec).Code)
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, returning("x"))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	_, err := uuid.Parse(rec.Header().Get(headerRequestID))
	assert.NoError(t, err)

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, incoming)
	rec = serve(s, req)
	assert.Equal(t, incoming, rec.Header().Get(headerRequestID))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, "not-a-uuid")
	rec = serve(s, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(headerRequestID))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
	}{
		{name: "wildcard", origins: []string{"*"}},
		{name: "allow list", origins: []string{"https://app.example.com", "https://admin.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, returning("x"), func(c *types.ServiceConfig) { c.AllowedOrigins = tt.origins })

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", "https://app.example.com")
			rec := serve(s, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(t, returning("x"))

	req := httptest.NewRequest(http.MethodOptions, "/convert-pdf", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", headerAPIKey)
	rec := serve(s, req)

	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestAccessLog(t *testing.T) {
	var out bytes.Buffer
	s := New(testConfig(), returning("x"), logging.Discard(), WithAccessLog(&out))

	serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1, "health probes are not access-logged")

	var line accessLogLine
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &line))
	assert.Equal(t, http.StatusOK, line.StatusCode)
	assert.Equal(t, http.MethodGet, line.Method)
	assert.Equal(t, "/", line.Path)
	assert.NotEmpty(t, line.RequestID)
	assert.Positive(t, line.ResponseRaw)
}

func TestFailureLogging_OmitsKey(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "debug")
	require.NoError(t, err)
	s := New(testConfig(), returning("x"), logger, WithAccessLog(&bytes.Buffer{}))

	serve(s, uploadRequest(t, "guess-1", "file", "doc.pdf", []byte("pdf")))

	assert.Contains(t, buf.String(), `"msg":"invalid_api_key_attempt"`)
	assert.Contains(t, buf.String(), `"kind":"invalid_api_key"`)
	assert.NotContains(t, buf.String(), "guess-1")
	assert.NotContains(t, buf.String(), testKey)
}

func TestRun_GracefulShutdown(t *testing.T) {
	s := newTestServer(t, returning("x"), func(c *types.ServiceConfig) { c.Port = 0 })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSwaggerDoc(t *testing.T) {
	s := newTestServer(t, returning("x"))
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/convert-pdf"`)
	assert.Contains(t, rec.Body.String(), `"X-API-Key"`)
}

func TestFailureLogging_TooLargeFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "info")
	require.NoError(t, err)
	cfg := testConfig()
	cfg.MaxFileSize = 1024
	s := New(cfg, returning("x"), logger, WithAccessLog(&bytes.Buffer{}))

	serve(s, uploadRequest(t, testKey, "file", "big.pdf", bytes.Repeat([]byte("x"), 2048)))

	out := buf.String()
	assert.Contains(t, out, `"msg":"file_too_large"`)
	assert.Contains(t, out, `"size_bytes":2048`)
	assert.Contains(t, out, `"max_size_bytes":1024`)
	assert.Contains(t, out, `"filename":"big.pdf"`)
}
