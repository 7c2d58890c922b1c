// go-pugwiki web server: serves Special:Statistics and the stats API
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prof "github.com/go-while/go-cpu-mem-profiler"

	"github.com/go-while/go-pugwiki/internal/cache"
	"github.com/go-while/go-pugwiki/internal/config"
	"github.com/go-while/go-pugwiki/internal/database"
	"github.com/go-while/go-pugwiki/internal/extensions/cachestats"
	"github.com/go-while/go-pugwiki/internal/hooks"
	"github.com/go-while/go-pugwiki/internal/linker"
	"github.com/go-while/go-pugwiki/internal/messages"
	"github.com/go-while/go-pugwiki/internal/sitestats"
	"github.com/go-while/go-pugwiki/internal/specialstats"
	"github.com/go-while/go-pugwiki/internal/web"
)

const heartbeatInterval = 30 * time.Second

var (
	// command-line flags
	configFile  string
	webport     int
	webssl      bool
	webcertFile string
	webkeyFile  string
	pprofAddr   string
	debug       bool

	Prof *prof.Profiler
)

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion

	flag.StringVar(&configFile, "config", "", "YAML config file (optional, PUGWIKI_* env overrides apply)")
	flag.IntVar(&webport, "webport", 0, "Web server port (default: 11980)")
	flag.BoolVar(&webssl, "webssl", false, "Enable SSL")
	flag.StringVar(&webcertFile, "websslcert", "", "SSL certificate file (/path/to/fullchain.pem)")
	flag.StringVar(&webkeyFile, "websslkey", "", "SSL key file (/path/to/privkey.pem)")
	flag.StringVar(&pprofAddr, "pprof", "", "Serve pprof on this address (e.g. :51111)")
	flag.BoolVar(&debug, "debug", false, "Log every request")
	flag.Parse()

	log.Printf("Starting go-pugwiki: Web Server (version: %s)", appVersion)

	mainConfig, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("[WEB]: Failed to load configuration: %v", err)
	}
	mainConfig.AppVersion = appVersion

	// Override config with command-line flags if provided
	if webport > 0 {
		mainConfig.Web.ListenPort = webport
		log.Printf("[WEB]: Overriding listen port with command-line flag: %d", webport)
	}
	if webssl {
		mainConfig.Web.SSL = true
	}
	if webcertFile != "" {
		mainConfig.Web.CertFile = webcertFile
	}
	if webkeyFile != "" {
		mainConfig.Web.KeyFile = webkeyFile
	}
	if pprofAddr != "" {
		mainConfig.Web.PprofAddr = pprofAddr
	}
	if debug {
		mainConfig.Web.Debug = true
	}
	if err := mainConfig.Validate(); err != nil {
		log.Fatalf("[WEB]: Invalid configuration: %v", err)
	}

	if mainConfig.Web.PprofAddr != "" {
		Prof = prof.NewProf()
		go Prof.PprofWeb(mainConfig.Web.PprofAddr)
		log.Printf("[WEB]: pprof listening on %s", mainConfig.Web.PprofAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConfig := database.DefaultDBConfig()
	dbConfig.MainDB = mainConfig.Database.MainDB
	dbConfig.AppVersion = appVersion
	dbConfig.TrackStatus = true
	db, err := database.OpenDatabase(ctx, dbConfig)
	if err != nil {
		log.Fatalf("[WEB]: Failed to initialize database: %v", err)
	}

	objectCache := cache.NewObjectCache(mainConfig.Cache.MaxEntries, mainConfig.Cache.CleanupInterval)

	lk := linker.New(db)
	lk.ProjectNamespace = mainConfig.Wiki.ProjectNamespace
	msgs := messages.NewCatalog(messages.SiteInfo{
		SiteName:         mainConfig.Wiki.SiteName,
		ProjectNamespace: mainConfig.Wiki.ProjectNamespace,
		ContentLanguage:  messages.NewLanguage(mainConfig.Wiki.Language),
	}, lk, db)
	if err := msgs.Reload(ctx); err != nil {
		log.Printf("[WEB]: Warning: %v", err)
	}

	registry := hooks.NewRegistry()
	if mainConfig.Wiki.HasExtension(cachestats.Name) {
		cachestats.Register(registry, objectCache)
		log.Printf("[WEB]: Extension %s enabled", cachestats.Name)
	}

	stats := sitestats.NewService(db, objectCache, &mainConfig.Wiki)
	page := specialstats.NewPage(&mainConfig.Wiki, stats, registry, lk, msgs)
	server := web.NewServer(db, mainConfig, stats, objectCache, msgs, page)

	var updater *sitestats.Updater
	if mainConfig.Wiki.MiserMode {
		updater = sitestats.NewUpdater(stats, mainConfig.Wiki.ActiveUsersInterval)
		go updater.Run(ctx)
	}
	server.StartTokenCleanup(ctx)
	go db.UpdateHeartbeat(heartbeatInterval)

	webServerErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			webServerErrChan <- err
		}
	}()
	log.Printf("[WEB]: Server started successfully. Press Ctrl+C to gracefully shutdown...")

	select {
	case <-ctx.Done():
		log.Printf("[WEB]: Received shutdown signal, initiating graceful shutdown...")
	case err := <-webServerErrChan:
		log.Printf("[WEB]: Web server failed: %v", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.MarkShuttingDown(shutdownCtx); err != nil {
		log.Printf("[WEB]: Warning: %v", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WEB]: Error stopping web server: %v", err)
	}
	if updater != nil {
		<-updater.Done()
	}
	objectCache.Stop()

	if err := db.Shutdown(); err != nil {
		log.Fatalf("[WEB]: Failed to shutdown database: %v", err)
	}
	log.Printf("[WEB]: Graceful shutdown completed")
}
