package http

import (
	"net/http"

	"github.com/careoptions/rcm-dashboard/internal/infrastructure/metrics"
	"github.com/careoptions/rcm-dashboard/internal/interfaces/http/handler"
	"github.com/careoptions/rcm-dashboard/internal/interfaces/http/middleware"
	"github.com/careoptions/rcm-dashboard/pkg/logger"
)

// Route binds a method and path pattern to a handler. An empty Method matches
// every method.
type Route struct {
	Method  string
	Pattern string
	Handler http.Handler
}

func (r Route) muxPattern() string {
	if r.Method == "" {
		return r.Pattern
	}
	return r.Method + " " + r.Pattern
}

type RouterOptions struct {
	Compression bool
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter
	// Metrics is optional; nil disables /metrics and request instrumentation.
	Metrics *metrics.Metrics
}

// Router wires the handlers into one route table behind the middleware chain.
type Router struct {
	mux           *http.ServeMux
	healthHandler *handler.HealthHandler
	dataHandler   *handler.DataHandler
	probeHandler  *handler.ProbeHandler
	staticHandler http.Handler
	options       RouterOptions
	logger        *logger.Logger
}

func NewRouter(
	healthHandler *handler.HealthHandler,
	dataHandler *handler.DataHandler,
	probeHandler *handler.ProbeHandler,
	staticHandler http.Handler,
	options RouterOptions,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:           http.NewServeMux(),
		healthHandler: healthHandler,
		dataHandler:   dataHandler,
		probeHandler:  probeHandler,
		staticHandler: staticHandler,
		options:       options,
		logger:        logger,
	}
}

// Routes returns the route table in registration order. Exact API paths take
// precedence over the "/" static fallback regardless of order.
func (rt *Router) Routes() []Route {
	routes := []Route{
		{Method: http.MethodGet, Pattern: "/api/health", Handler: http.HandlerFunc(rt.healthHandler.Health)},
		{Method: http.MethodGet, Pattern: "/api/kpi-data", Handler: http.HandlerFunc(rt.dataHandler.KPIData)},
		{Method: http.MethodGet, Pattern: "/api/people-data", Handler: http.HandlerFunc(rt.dataHandler.PeopleData)},
		{Method: http.MethodGet, Pattern: "/healthz", Handler: http.HandlerFunc(rt.probeHandler.Liveness)},
		{Method: http.MethodGet, Pattern: "/readyz", Handler: http.HandlerFunc(rt.probeHandler.Readiness)},
	}

	if rt.options.Metrics != nil {
		routes = append(routes, Route{Method: http.MethodGet, Pattern: "/metrics", Handler: rt.options.Metrics.Handler()})
	}

	// Method-less so that unmatched methods on API paths land here and get a 404.
	routes = append(routes, Route{Pattern: "/", Handler: rt.staticHandler})

	return routes
}

// Setup registers the route table once and wraps the mux in the middleware chain.
func (rt *Router) Setup() http.Handler {
	for _, route := range rt.Routes() {
		rt.mux.Handle(route.muxPattern(), route.Handler)
	}

	var handler http.Handler = rt.mux
	if rt.options.Compression {
		handler = middleware.Compression(handler)
	}
	if rt.options.RateLimiter != nil {
		var onDrop func()
		if rt.options.Metrics != nil {
			onDrop = rt.options.Metrics.RateLimitDropped.Inc
		}
		handler = middleware.RateLimit(rt.options.RateLimiter, onDrop)(handler)
	}
	if rt.options.Metrics != nil {
		handler = rt.options.Metrics.Middleware(handler)
	}
	handler = middleware.Logger(rt.logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(rt.logger)(handler)

	return handler
}
