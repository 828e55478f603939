package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/retexhub/backend/api/handler"
)

type Handlers struct {
	Contribution *apiHandler.ContributionHandler
	Certificate  *apiHandler.CertificateHandler
	Health       *apiHandler.HealthHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// New builds the route table. Submitting and reading require a valid
// token; lifecycle transitions additionally require the operator role.
// Certificate verification is public: anyone holding a certificate may
// check it.
func New(handlers Handlers, auth Middleware, operator Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	r.POST("/api/v1/certificates/verify", handlers.Certificate.Verify)

	r.POST("/api/v1/contributions", auth(handlers.Contribution.Submit))
	r.GET("/api/v1/contributions", auth(operator(handlers.Contribution.List)))
	r.GET("/api/v1/contributions/{trackingId}", auth(handlers.Contribution.Get))

	r.POST("/api/v1/contributions/{trackingId}/receive", auth(operator(handlers.Contribution.Receive)))
	r.POST("/api/v1/contributions/{trackingId}/verify", auth(operator(handlers.Contribution.Verify)))
	r.POST("/api/v1/contributions/{trackingId}/certify", auth(operator(handlers.Contribution.Certify)))

	return r
}
