package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/selfreg/api/transport"
	"github.com/fastygo/selfreg/domain"
	"github.com/fastygo/selfreg/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encode response", zap.Error(err))
		h.respondMessage(ctx, http.StatusInternalServerError, "failed to encode response")
		return
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func (h baseHandler) respondMessage(ctx *fasthttp.RequestCtx, status int, msg string) {
	body, _ := json.Marshal(transport.NewError(msg))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	h.respondMessage(ctx, mapError(err), err.Error())
}

// mapError turns an error into the response status. Rejections by the
// identity service keep their status; failures to reach it become 500.
func mapError(err error) int {
	var reqErr *domain.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.StatusCode >= 400 && reqErr.StatusCode <= 599 {
			return reqErr.StatusCode
		}
		return http.StatusBadGateway
	}
	var clientErr *domain.ClientError
	if errors.As(err, &clientErr) {
		return http.StatusInternalServerError
	}

	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
