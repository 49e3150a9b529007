// Package ui exposes the HTTP API: token issuance and refresh, CSV/XLSX
// upload, and paginated upload history.
package ui

import (
	"net/http"

	"equipdata/app"
	"equipdata/internal"
	"equipdata/internal/config"
	"equipdata/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires the application services into a gin router.
type Server struct {
	router  *gin.Engine
	cfg     *config.Config
	auth    *app.AuthService
	uploads *app.UploadService
	history *app.HistoryService
	tokens  *token.Manager
	log     *internal.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(cfg *config.Config, auth *app.AuthService, uploads *app.UploadService, history *app.HistoryService, tokens *token.Manager, logger *internal.Logger) *Server {
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		router:  gin.New(),
		cfg:     cfg,
		auth:    auth,
		uploads: uploads,
		history: history,
		tokens:  tokens,
		log:     logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestMetrics())

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	api.GET("/", s.handleHello)
	api.POST("/app1/token/", s.handleLogin)
	api.POST("/app1/token/refresh/", s.handleRefresh)
	api.POST("/signup/", s.handleSignup)

	authed := api.Group("", s.authRequired())
	authed.POST("/auth/logout/", s.handleLogout)
	authed.POST("/web/upload", s.handleUpload("web"))
	authed.POST("/desktop/upload", s.handleUpload("desktop"))
	authed.GET("/get-history/", s.handleHistory)
}

// Run starts the server on the given address.
func (s *Server) Run(addr string) error {
	s.log.Info("listening on %s", addr)
	return s.router.Run(addr)
}

// Handler returns the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "equipdata API"})
}
