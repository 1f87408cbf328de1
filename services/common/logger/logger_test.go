package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = RequestIDFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", recorder.Header().Get("X-Request-ID"))

	req, _ = http.NewRequest(http.MethodGet, "/", nil)
	recorder = httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	assert.Len(t, recorder.Header().Get("X-Request-ID"), 36)
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(zap.New(core)))
	r.GET("/orders", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	for _, path := range []string{"/orders", "/broken"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, "/broken", entries[1].ContextMap()["path"])
	assert.NotEmpty(t, entries[1].ContextMap()["request_id"])
}

func TestContextHelpers(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := Log
	Log = zap.New(core)
	defer func() { Log = prev }()

	ctx := WithContext(context.Background(), "req-7")
	Info(ctx, "order appended", zap.String("order_id", "o1"))
	Warn(context.Background(), "signal write failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "unknown", entries[1].ContextMap()["request_id"])
}

func TestInitializeWithWriter(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	var buf bytes.Buffer
	l := InitializeWithWriter("production", &buf)
	l.Info("store opened", zap.String("backend", "redis"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "store opened", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "redis", line["backend"])
}
