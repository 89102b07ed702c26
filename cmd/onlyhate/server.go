package main

import (
	"net/http"

	"onlyhate/internal/app/bands"
	"onlyhate/internal/app/dashboard"
	"onlyhate/internal/app/products"
	"onlyhate/internal/app/releases"
	"onlyhate/internal/app/users"
	"onlyhate/internal/config"
	"onlyhate/internal/http/middleware"
	"onlyhate/internal/httpapi"
	"onlyhate/internal/metrics"
)

func newHTTPHandler(cfg *config.Config, deps *dependencies) http.Handler {
	c := deps.catalog

	userSvc := users.New(deps.verifier, deps.tokens)
	bandSvc := bands.New(c)
	releaseSvc := releases.New(c)
	productSvc := products.New(c)
	dashboardSvc := dashboard.New(c)

	m := metrics.New(c)
	c.Observe(m)

	api := httpapi.New(userSvc, bandSvc, releaseSvc, productSvc, dashboardSvc, deps.tokens, m.Handler())

	return middleware.Chain(m.Instrument(api.Routes()),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.RequestLogging(),
		middleware.Recovery(),
	)
}
