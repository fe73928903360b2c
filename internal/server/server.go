// Package server exposes the generator, the card library and its decks over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arcanaland/gridsmith/internal/extract"
	"github.com/arcanaland/gridsmith/internal/generator"
	"github.com/arcanaland/gridsmith/internal/llm"
	"github.com/arcanaland/gridsmith/internal/logging"
	"github.com/arcanaland/gridsmith/internal/store"
	"github.com/arcanaland/gridsmith/internal/validator"
)

// shutdownTimeout bounds how long in-flight requests get once Run's context ends.
const shutdownTimeout = 5 * time.Second

type Server struct {
	generator *generator.Generator
	store     store.Store
	decks     store.DeckStore
	validator *validator.Validator
	log       logging.Logger
	router    *gin.Engine
}

func New(gen *generator.Generator, st store.Store, v *validator.Validator, log logging.Logger) *Server {
	if v == nil {
		v = validator.NewValidator()
	}
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		generator: gen,
		store:     st,
		validator: v,
		log:       log.With("component", "server"),
	}
	// deck routes exist only when the backend keeps decks
	if ds, ok := st.(store.DeckStore); ok {
		s.decks = ds
	}
	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes(s.router)
	return s
}

// Handler returns the routed engine, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	// WriteTimeout covers an assistant run polled for its full budget.
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server", "address", fmt.Sprintf("http://%s", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Debug("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	<-errCh
	s.log.Info("server shutdown completed")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// statusFor maps the package sentinels onto HTTP status codes.
func statusFor(err error) int {
	var invalid *validator.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalid), errors.Is(err, validator.ErrBalanceViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, llm.ErrGenerationFailed),
		errors.Is(err, extract.ErrNoStructuredContent),
		errors.Is(err, extract.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
