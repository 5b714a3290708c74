package extract

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/nsprime0-ui/prime-downloader-backend/internal/media"
)

type (
	// Service is the pipeline entry point the controller delegates to.
	Service interface {
		Extract(ctx context.Context, target string) (*media.Payload, error)
		CheckTool(ctx context.Context) (string, error)
	}

	Controller struct {
		service  Service
		validate *validator.Validate
	}

	checkDto struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
)

func New(validate *validator.Validate, service Service) *Controller {
	return &Controller{service: service, validate: validate}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/extract", controller.extract)
	eg.GET("/check", controller.check)
}

// extract is the main endpoint: it validates the requested page URL
// and runs the extraction pipeline for it. Upstream failures surface
// as a 500 with a generic message; the diagnostic detail is logged by
// the pipeline, never sent to the caller.
func (controller *Controller) extract(ec echo.Context) error {
	target := ec.QueryParam("url")
	if target == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing url parameter")
	}

	if err := controller.validate.Var(target, "url"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid url")
	}

	payload, err := controller.service.Extract(ec.Request().Context(), target)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Extraction failed")
	}

	return ec.JSON(http.StatusOK, payload)
}

// check reports whether the external extraction tool is reachable and
// which version is installed.
func (controller *Controller) check(ec echo.Context) error {
	version, err := controller.service.CheckTool(ec.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Extraction tool unavailable")
	}

	return ec.JSON(http.StatusOK, checkDto{Status: "ok", Version: version})
}
