package rest

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/totegamma/coa/internal/present/rest/presenter"
)

// HealthCheck is a named dependency probe used by /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Handler struct {
	certificate *CertificateController
	checks      []HealthCheck
	gatherer    prometheus.Gatherer
}

func NewHandler(
	certificate *CertificateController,
	gatherer prometheus.Gatherer,
	checks ...HealthCheck,
) *Handler {
	return &Handler{
		certificate: certificate,
		checks:      checks,
		gatherer:    gatherer,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/certificates", h.certificate.SelectHeaders)
	e.GET("/certificates/headers", h.certificate.SelectHeaders)
	e.GET("/certificates/:id", h.certificate.SelectCertificate)
	e.POST("/certificates", h.certificate.InsertCertificate)
	e.GET("/health", h.handleHealth)
	if h.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
}

func (h *Handler) handleHealth(c echo.Context) error {
	ctx := c.Request().Context()

	for _, check := range h.checks {
		err := check.Check(ctx)
		if err != nil {
			return presenter.Unavailable(c, &healthError{name: check.Name, err: err})
		}
	}
	return presenter.Status(c, "ok")
}

type healthError struct {
	name string
	err  error
}

func (e *healthError) Error() string {
	return e.name + ": " + e.err.Error()
}

func (e *healthError) Unwrap() error {
	return e.err
}
