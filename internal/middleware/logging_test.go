package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/selfreg/pkg/httpcontext"
)

func TestRequestLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := RequestLog(zap.New(core))(func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(http.StatusCreated)
	})

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(http.MethodPost)
	ctx.Request.SetRequestURI("/register/create")
	ctx.Request.Header.Set(httpcontext.HeaderRequestID, "req-1")
	handler(&ctx)

	assert.Equal(t, "req-1", string(ctx.Response.Header.Peek(httpcontext.HeaderRequestID)))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/register/create", fields["path"])
	assert.EqualValues(t, http.StatusCreated, fields["status"])
}
