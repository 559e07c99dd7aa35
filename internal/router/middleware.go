package router

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"moodtracker/internal/auth"
	"moodtracker/internal/errors"
	"moodtracker/internal/logging"
	"moodtracker/internal/metrics"
	"moodtracker/internal/service"
)

const identityContextKey = "identity"

// requestID assigns every request an id and stores it in the request context
// so service logs carry it.
func requestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: logging.GenerateRequestID,
		RequestIDHandler: func(c echo.Context, id string) {
			ctx := logging.ContextWithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	})
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			l := logging.Ctx(c.Request().Context())
			event := l.Info()
			if v.Status >= http.StatusInternalServerError {
				event = l.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// instrument records request counts and latency per route pattern.
func instrument(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		var he *echo.HTTPError
		if err != nil && stderrors.As(err, &he) {
			status = he.Code
		} else if err != nil {
			status = http.StatusInternalServerError
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordAPIRequest(c.Request().Method, route, strconv.Itoa(status), time.Since(start))
		return err
	}
}

// bearerAuth resolves the Authorization header through the auth service and
// puts the caller's identity into the request context. Any failure, a missing
// header included, is a 401.
func bearerAuth(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:  identityContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return authService.Authenticate(c.Request().Context(), token)
		},
		SuccessHandler: func(c echo.Context) {
			id, ok := c.Get(identityContextKey).(*auth.Identity)
			if !ok {
				return
			}
			c.SetRequest(c.Request().WithContext(auth.WithIdentity(c.Request().Context(), id)))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			httpErr := errors.MapErrorToHTTP(errors.ErrUnauthenticated)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	})
}

// httpErrorHandler renders every error as the error envelope.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var body errors.ErrorResponse
	status := http.StatusInternalServerError

	var he *echo.HTTPError
	if stderrors.As(err, &he) {
		status = he.Code
		switch msg := he.Message.(type) {
		case errors.ErrorResponse:
			body = msg
		case *errors.ErrorResponse:
			body = *msg
		case string:
			body = errors.ErrorResponse{Status: "error", Error: msg, Code: codeForStatus(status)}
		default:
			body = errors.ErrorResponse{Status: "error", Error: http.StatusText(status), Code: codeForStatus(status)}
		}
	} else {
		httpErr := errors.MapErrorToHTTP(err)
		status = httpErr.StatusCode
		body = httpErr.ToErrorResponse()
		if status >= http.StatusInternalServerError {
			logging.Ctx(c.Request().Context()).Error().Err(err).Msg("unhandled error")
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logging.Ctx(c.Request().Context()).Error().Err(err).Msg("write error response")
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}
