// Package server exposes the transaction builder over the Solana Actions
// HTTP protocol.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server wraps the echo instance with lifecycle management.
type Server struct {
	e    *echo.Echo
	addr string
}

func New(addr string, handlers *Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(actionsCORS())

	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 60 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	e.HTTPErrorHandler = jsonErrorHandler()

	registerRoutes(e, handlers)

	return &Server{e: e, addr: addr}
}

func (s *Server) Start() error {
	return s.e.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.e.Shutdown(ctx)
}

func registerRoutes(e *echo.Echo, h *Handlers) {
	e.GET("/health", h.Health)
	e.GET("/actions.json", h.ActionsRules)
	e.GET("/api/actions/:mint", h.GetAction)
	e.POST("/api/actions/:mint", h.PostAction)
}

// actionsCORS applies the permissive CORS policy the Actions protocol
// requires: wallets and Blink clients call these endpoints cross-origin.
func actionsCORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderContentType,
			echo.HeaderAuthorization,
			"Content-Encoding",
			"Accept-Encoding",
		},
	})
}

// jsonErrorHandler keeps every error response, including router 404s, in
// the JSON envelope.
func jsonErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if he, ok := err.(*echo.HTTPError); ok {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}
