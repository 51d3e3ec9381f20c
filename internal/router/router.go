package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/selfreg/api/handler"
)

type Handlers struct {
	Registration *apiHandler.RegistrationHandler
	Health       *apiHandler.HealthHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// New builds the route table. requireCredential guards the endpoints that
// act on behalf of a caller.
func New(handlers Handlers, requireCredential Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	r.GET("/register", handlers.Registration.Index)
	r.POST("/register/create", requireCredential(handlers.Registration.Create))
	r.POST("/register/activate", requireCredential(handlers.Registration.Activate))

	return r
}
