package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/selfreg/domain"
	"github.com/fastygo/selfreg/internal/middleware"
	"github.com/fastygo/selfreg/internal/page"
	"github.com/fastygo/selfreg/pkg/httpcontext"
	"github.com/fastygo/selfreg/pkg/logger"
	registrationUC "github.com/fastygo/selfreg/usecase/registration"
)

type RegistrationHandler struct {
	baseHandler
	uc   *registrationUC.UseCase
	page *page.Renderer
}

func NewRegistrationHandler(uc *registrationUC.UseCase, form *page.Renderer, adapter *httpcontext.Adapter, logger *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		page:        form,
	}
}

// @Summary Registration form
// @Tags registration
// @Produce html
// @Router /register [get]
func (h *RegistrationHandler) Index(ctx *fasthttp.RequestCtx) {
	body, err := h.page.Render()
	if err != nil {
		h.logger.Error("registration page unavailable",
			zap.String("request_id", httpcontext.RequestID(ctx)),
			zap.Error(err))
		h.respondMessage(ctx, http.StatusInternalServerError, "registration page unavailable")
		return
	}
	ctx.Response.Header.SetContentType("text/html; charset=utf-8")
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBody(body)
}

// @Summary Register a new, inactive user and mail the activation link
// @Tags registration
// @Accept json
// @Produce json
// @Router /register/create [post]
func (h *RegistrationHandler) Create(ctx *fasthttp.RequestCtx) {
	var user domain.User
	if err := json.Unmarshal(ctx.PostBody(), &user); err != nil {
		h.respondMessage(ctx, http.StatusBadRequest, domain.WrapError(domain.ErrCodeInvalid, "invalid user payload", err).Error())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Register(stdCtx, middleware.Credential(ctx), &user)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, created)
}

// @Summary Activate a registered user
// @Tags registration
// @Param userId query string true "user id"
// @Param token query string true "activation token"
// @Router /register/activate [post]
func (h *RegistrationHandler) Activate(ctx *fasthttp.RequestCtx) {
	userID := string(ctx.FormValue("userId"))
	token := string(ctx.FormValue("token"))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Activate(stdCtx, userID, token); err != nil {
		logger.WithRequestID(stdCtx, h.logger).Debug("activation failed", zap.Int("status", mapError(err)))
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusOK)
}
