package middleware

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/selfreg/api/transport"
)

const credentialKey = "credential"

// legacyTokenHeader is what the bundled registration page sends.
const legacyTokenHeader = "token"

// RequireCredential rejects requests without an access credential and
// stores the credential for Credential to pick up. The credential is
// opaque here; the identity service is the one that validates it.
func RequireCredential(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			token := extractToken(ctx)
			if token == "" {
				logger.Warn("request without access token", zap.ByteString("path", ctx.Path()))
				ctx.Response.Header.SetContentType("application/json")
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				body, _ := json.Marshal(transport.NewError("missing access token"))
				ctx.SetBody(body)
				return
			}
			ctx.SetUserValue(credentialKey, token)
			next(ctx)
		}
	}
}

// Credential returns the access credential accepted by RequireCredential.
func Credential(ctx *fasthttp.RequestCtx) string {
	token, _ := ctx.UserValue(credentialKey).(string)
	return token
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
	if header == "" {
		header = strings.TrimSpace(string(ctx.Request.Header.Peek(legacyTokenHeader)))
	}
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return header
}
