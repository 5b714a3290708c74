package api

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nsprime0-ui/prime-downloader-backend/internal/api/extract"
	"github.com/nsprime0-ui/prime-downloader-backend/pkg/logger"
	"golang.org/x/time/rate"
)

var log = logger.Get("API")

type (
	RestConfig struct {
		Host string `yaml:"host" env:"HOST_ADDR" env-default:"0.0.0.0"`
		Port string `yaml:"port" env:"PORT" env-default:"8080"`
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	// AccessPolicy carries the request-surface hardening options:
	// the optional shared-secret API key, the allowed CORS origins
	// and the optional rate limit.
	AccessPolicy struct {
		APIKey         string
		AllowedOrigins []string
		RateLimitRPS   float64
	}

	// The RestGateway is a thin wrapper around the Echo HTTP router.
	// Its sole responsibility is to create the routes the backend
	// exposes and to enforce the access policy middleware.
	RestGateway struct {
		config            *RestConfig
		ec                *echo.Echo
		extractController controller
	}
)

func (config *RestConfig) Addr() string {
	return config.Host + ":" + config.Port
}

// NewRestGateway constructs the Echo router and populates it with the
// routes defined by the extract controller, wrapped in the CORS,
// rate-limit and key-auth middleware dictated by the access policy.
func NewRestGateway(config *RestConfig, policy AccessPolicy, extractService extract.Service) *RestGateway {
	ec := echo.New()
	ec.HidePort = true
	ec.HideBanner = true
	ec.HTTPErrorHandler = errorResponseHandler

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: policy.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	if policy.RateLimitRPS > 0 {
		ec.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStore(rate.Limit(policy.RateLimitRPS))))
	}

	gateway := &RestGateway{
		config:            config,
		ec:                ec,
		extractController: extract.New(validator.New(), extractService),
	}

	ec.GET("/", func(ec echo.Context) error {
		return ec.String(http.StatusOK, "Prime downloader backend is running")
	})

	apiGroup := ec.Group("/api", keyAuthMiddleware(policy.APIKey))
	gateway.extractController.SetRoutes(apiGroup)

	return gateway
}

// ServeHTTP delegates to the underlying router, allowing the gateway
// to be exercised without binding a listener.
func (gateway *RestGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gateway.ec.ServeHTTP(w, r)
}

func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Emit(logger.NEW, "Listening on %s\n", gateway.config.Addr())
		if err := gateway.ec.Start(gateway.config.Addr()); err != nil {
			ctxCancel(err)
		}
	}()

	go func(ec *echo.Echo) {
		<-ctx.Done()
		ec.Close()
	}(gateway.ec)

	wg.Wait()

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}

// keyAuthMiddleware enforces the optional shared-secret check. The
// credential may arrive via the X-API-Key header or the api_key query
// parameter; when no key is configured the check is skipped entirely.
func keyAuthMiddleware(apiKey string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Skipper: func(echo.Context) bool {
			return apiKey == ""
		},
		KeyLookup: "header:X-API-Key,query:api_key",
		Validator: func(key string, ec echo.Context) (bool, error) {
			return key == apiKey, nil
		},
		ErrorHandler: func(err error, ec echo.Context) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing or invalid API key")
		},
	})
}

// errorResponseHandler shapes every error surfaced from a handler or
// middleware in to the {"error": <message>} body the API contract
// promises.
func errorResponseHandler(err error, ec echo.Context) {
	if ec.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		if text, ok := httpErr.Message.(string); ok {
			message = text
		} else {
			message = http.StatusText(code)
		}
	}

	if writeErr := ec.JSON(code, map[string]string{"error": message}); writeErr != nil {
		log.Emit(logger.ERROR, "Failed to write error response: %v\n", writeErr)
	}
}
