package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/camuig/signal-desk/internal/desk"
	"github.com/camuig/signal-desk/internal/logger"
	"github.com/camuig/signal-desk/internal/marketdata"
)

type Options struct {
	Port int
	// EditorPasswordSHA256 is the hex digest mutating requests must match.
	// Empty disables the gate.
	EditorPasswordSHA256 string
}

type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	desk       *desk.Desk
	candles    marketdata.CandleProvider
	validate   *validator.Validate
	opts       Options
	logger     *logger.Logger
}

// NewServer wires the JSON API. candles may be nil when no market-data
// provider is configured; the sparkline endpoint still works.
func NewServer(d *desk.Desk, candles marketdata.CandleProvider, opts Options, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		desk:     d,
		candles:  candles,
		validate: validator.New(),
		opts:     opts,
		logger:   log,
	}

	r := gin.New()
	r.Use(gin.Recovery(), correlationID(log), accessLog(log))
	s.routes(r)
	s.router = r

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	return s
}

func (s *Server) routes(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/health", s.handleHealth)

	api.Use(editorGate(s.opts.EditorPasswordSHA256))

	sig := api.Group("/signals")
	sig.GET("", s.listSignals)
	sig.POST("", s.addSignal)
	sig.GET("/tags", s.signalTags)
	sig.POST("/draft", s.draftSignals)
	sig.GET("/:id", s.getSignal)
	sig.PATCH("/:id", s.updateSignal)
	sig.DELETE("/:id", s.removeSignal)
	sig.POST("/:id/duplicate", s.duplicateSignal)
	sig.GET("/:id/close", s.pendingClose)
	sig.POST("/:id/close", s.closeSignal)

	closed := api.Group("/closed")
	closed.GET("", s.listClosed)
	closed.POST("", s.addClosed)
	closed.GET("/tags", s.closedTags)
	closed.GET("/:id", s.getClosed)
	closed.PATCH("/:id", s.updateClosed)
	closed.DELETE("/:id", s.removeClosed)
	closed.POST("/:id/duplicate", s.duplicateClosed)

	api.GET("/summary", s.summary)
	api.GET("/preferences", s.listPreferences)
	api.GET("/preferences/closed-view", s.getClosedView)
	api.PUT("/preferences/closed-view", s.putClosedView)
	api.GET("/preferences/theme", s.getTheme)
	api.PUT("/preferences/theme", s.putTheme)

	api.POST("/import/:collection", s.importCollection)
	api.GET("/export/:collection", s.exportCollection)
	api.GET("/default-dir", s.getDefaultDir)
	api.PUT("/default-dir", s.putDefaultDir)
	api.DELETE("/default-dir", s.clearDefaultDir)
	api.POST("/push/:collection", s.pushCollection)

	api.GET("/candles", s.candlesProxy)
	api.GET("/sparkline/:ticker", s.sparkline)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("web server starting", "port", s.opts.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
