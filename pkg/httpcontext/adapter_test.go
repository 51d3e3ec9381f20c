package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/selfreg/pkg/logger"
)

func TestAttachKeepsClientRequestID(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set(HeaderRequestID, "abc-123")
	ctx.Request.Header.SetUserAgent("tests")

	stdCtx, cancel := NewAdapter(time.Second).Attach(&ctx)
	defer cancel()

	assert.Equal(t, "abc-123", appLogger.RequestID(stdCtx))
	assert.Equal(t, "abc-123", string(ctx.Response.Header.Peek(HeaderRequestID)))
	assert.Equal(t, "tests", stdCtx.Value(KeyUserAgent))

	deadline, ok := stdCtx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
}

func TestRequestIDIsStablePerRequest(t *testing.T) {
	var ctx fasthttp.RequestCtx
	first := RequestID(&ctx)
	require.NotEmpty(t, first)
	assert.Equal(t, first, RequestID(&ctx))
}
