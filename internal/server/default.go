package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/finenotify/finenotify/pkg/application"
	"github.com/finenotify/finenotify/pkg/configuration"
	"github.com/finenotify/finenotify/pkg/httpapi"
	"github.com/finenotify/finenotify/pkg/middleware"
	"github.com/finenotify/finenotify/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
}

// Default assembles the HTTP server with the standard middleware stack.
// Order matters: logging wraps everything so request ids and spans cover
// CORS rejections and rate-limit denials too.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger),
		middleware.Cors(conf.Origin, "ws://"+conf.Domain),
	}

	if conf.RateLimit.Enabled {
		middlewares = append(middlewares, middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerPeriod: conf.RateLimit.GlobalRPS,
			Store:             middleware.NewMemoryStore(),
		}))
	}

	app.RegisterMiddleware(middlewares...)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	})
	return server.NewHTTPServer(app, notFound), nil
}
