package middleware

import (
	"errors"
	"net/http"
	"time"

	"factorylink/internal/apierror"
	"factorylink/internal/dto"
	"factorylink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrorHandler turns the last error a handler attached with c.Error into the
// response. Handlers only write on success; every service failure comes
// through here. Unrecognised errors are logged and answered with a bare 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := errorResponse(err)
		if status == http.StatusInternalServerError {
			log.Error().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("path", c.FullPath()).
				Str("method", c.Request.Method).
				Err(err).
				Msg("request failed")
		}
		if errors.Is(err, service.ErrConcurrentModification) {
			c.Header("Retry-After", "1")
		}
		c.AbortWithStatusJSON(status, body)
	}
}

// errorResponse maps service errors onto HTTP statuses: missing rows 404,
// business-rule conflicts 409, unprocessable input 422, contention and the
// external system 503.
func errorResponse(err error) (int, interface{}) {
	var shortfall *service.InsufficientMaterialsError
	var stock *service.InsufficientStockError

	switch {
	case errors.As(err, &shortfall):
		return http.StatusConflict, apierror.NewShortfall(err.Error(), shortfall.Shortfalls)
	case errors.As(err, &stock):
		return http.StatusConflict, apierror.NewShortfall(err.Error(), []dto.MaterialShortfall{{
			MaterialID: stock.MaterialID.String(),
			Required:   stock.Requested,
			Available:  stock.Available,
			Shortage:   stock.Requested.Sub(stock.Available),
		}})
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, apierror.New(err.Error())
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrBOMNotConfigured),
		errors.Is(err, service.ErrProductNotMapped):
		return http.StatusUnprocessableEntity, apierror.New(err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrMaterialInUse):
		return http.StatusConflict, apierror.New(err.Error())
	case errors.Is(err, service.ErrConcurrentModification):
		return http.StatusServiceUnavailable, apierror.New(err.Error())
	case errors.Is(err, service.ErrExternalSystemUnavailable):
		return http.StatusServiceUnavailable, apierror.New("external inventory system unavailable")
	}
	return http.StatusInternalServerError, apierror.New("internal server error")
}

// Recovery answers a panic with a 500 and logs it with the request id.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("internal server error"))
			}
		}()
		c.Next()
	}
}

// Logger writes one line per request; 5xx responses log at warn.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := zerolog.InfoLevel
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = zerolog.WarnLevel
		}
		log.WithLevel(level).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
