// Package web provides the HTTP server and web interface for go-pugwiki
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/go-while/go-pugwiki/internal/cache"
	"github.com/go-while/go-pugwiki/internal/config"
	"github.com/go-while/go-pugwiki/internal/database"
	"github.com/go-while/go-pugwiki/internal/messages"
	"github.com/go-while/go-pugwiki/internal/sitestats"
	"github.com/go-while/go-pugwiki/internal/specialstats"
)

// WebServer represents the web server
type WebServer struct {
	DB       *database.Database
	Router   *gin.Engine
	Config   *config.WebConfig
	Wiki     *config.WikiConfig
	Stats    *sitestats.Service
	Cache    *cache.ObjectCache
	Messages *messages.Catalog
	Page     *specialstats.Page

	StartTime  time.Time // Track server start time for uptime calculations
	httpServer *http.Server
}

// TemplateData represents common template data
type TemplateData struct {
	Title       string
	SiteName    string
	Lang        string
	CurrentTime string
	AppVersion  string
}

// StatsPageData represents data for the statistics page
type StatsPageData struct {
	TemplateData
	Content template.HTML
}

// ErrorPageData represents data for error pages
type ErrorPageData struct {
	TemplateData
	Error      string
	StatusCode int
}

// NewServer creates a new web server instance
func NewServer(db *database.Database, cfg *config.MainConfig, stats *sitestats.Service, objectCache *cache.ObjectCache, msgs *messages.Catalog, page *specialstats.Page) *WebServer {
	if !cfg.Web.Debug && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Configure Gin to trust reverse proxy headers
	router.SetTrustedProxies([]string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})

	// Configure security headers based on SSL setup
	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		IsDevelopment:      gin.Mode() == gin.TestMode,
	}

	// Only add SSL-specific headers if SSL is enabled on the application itself
	// (not when running behind a reverse proxy like nginx with SSL)
	if cfg.Web.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}
	router.Use(secure.New(secureConfig))

	server := &WebServer{
		DB:       db,
		Router:   router,
		Config:   &cfg.Web,
		Wiki:     &cfg.Wiki,
		Stats:    stats,
		Cache:    objectCache,
		Messages: msgs,
		Page:     page,
	}

	if cfg.Web.Debug {
		router.Use(server.ApacheLogFormat())
	}
	router.Use(server.ReverseProxyMiddleware())

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() {
	s.Router.GET("/static/*filepath", serveStatic)
	s.Router.GET("/robots.txt", func(c *gin.Context) {
		c.String(http.StatusOK, "User-agent: *\nDisallow: /api/\n")
	})
	s.Router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	s.Router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/wiki/Special:Statistics")
	})

	// Wiki pages
	s.Router.GET("/wiki/:title", s.wikiPage)
	s.Router.GET("/index.php", s.indexPage)

	// stats are public
	s.Router.GET("/api/v1/stats", s.getStats)
	s.Router.GET("/api/v1/stats/", s.getStats)

	admin := s.Router.Group("/api/v1/admin")
	admin.Use(s.APIAuthRequired())
	{
		admin.POST("/stats/refresh", s.adminRefreshStats)
		admin.POST("/cache/clear", s.adminClearCache)
	}

	s.Router.NoRoute(func(c *gin.Context) {
		lang := s.userLanguage(c)
		s.renderError(c, http.StatusNotFound, "Page not found", "no route for "+c.Request.URL.Path, lang)
	})
}

// Start starts the web server with SSL support if configured.
// It returns http.ErrServerClosed after Shutdown.
func (s *WebServer) Start() error {
	addr := ":" + strconv.Itoa(s.Config.ListenPort)
	s.StartTime = time.Now()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.Config.SSL {
		if s.Config.CertFile == "" || s.Config.KeyFile == "" {
			return errors.New("SSL enabled but cert_file or key_file not specified in config")
		}
		log.Printf("[WEB]: Starting HTTPS server on %s", addr)
		return s.httpServer.ListenAndServeTLS(s.Config.CertFile, s.Config.KeyFile)
	}
	log.Printf("[WEB]: Starting HTTP server on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests and waits for running ones until ctx expires
func (s *WebServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ReverseProxyMiddleware handles X-Forwarded headers when running behind a reverse proxy
func (s *WebServer) ReverseProxyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Handle X-Forwarded-Proto to detect if the original request was HTTPS
		if proto := c.GetHeader("X-Forwarded-Proto"); proto == "https" {
			c.Request.URL.Scheme = "https"
		}

		// Handle X-Forwarded-Host to get the original host
		if host := c.GetHeader("X-Forwarded-Host"); host != "" {
			c.Request.Host = host
		}

		c.Next()
	}
}

// ApacheLogFormat logs requests in the combined log format
func (s *WebServer) ApacheLogFormat() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf(`%s - - [%s] "%s %s %s" %d %d "%s" "%s"`+"\n",
			param.ClientIP,
			param.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.BodySize,
			param.Request.Referer(),
			strings.ReplaceAll(param.Request.UserAgent(), `"`, `'`),
		)
	})
}
