package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/minjispace/web-pet/config"
	kafkaevents "github.com/minjispace/web-pet/events/kafka"
	"github.com/minjispace/web-pet/game"
	"github.com/minjispace/web-pet/middleware"
	"github.com/minjispace/web-pet/pkg/feed"
	"github.com/minjispace/web-pet/pkg/providers"
)

// App hosts the pet session service behind an HTTP surface
type App struct {
	engine         *gin.Engine
	config         *config.Config
	logger         zerolog.Logger
	sessionService *SessionService
	sessionHandler *SessionHandler
	watchHandler   *WatchHandler
	broadcaster    *feed.Broadcaster
	httpServer     *http.Server
	onShutdown     []func()
	feedCancel     context.CancelFunc
}

// Options holds server construction options
type Options struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Identity providers.IdentityProvider
	Store    providers.ProfileStore
}

// New creates the application: session service, handlers, snapshot
// broadcaster. Providers are required; Kafka is wired separately via
// SetEventProducer / AttachProfileUpdateFeed.
func New(opts Options) *App {
	// Money marshals as a JSON number. The values are small integers so
	// double-precision clients cannot lose digits.
	decimal.MarshalJSONWithoutQuotes = true

	if opts.Config.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	rules := game.Rules{
		PriceMarkup:   opts.Config.Game.PriceMarkup,
		LevelUpBonus:  opts.Config.Game.LevelUpBonus,
		StatCeiling:   opts.Config.Game.StatCeiling,
		StartingMoney: opts.Config.Game.StartingMoney,
		StartingLevel: opts.Config.Game.StartingLevel,
	}

	app := &App{
		engine:      gin.New(),
		config:      opts.Config,
		logger:      opts.Logger,
		broadcaster: feed.NewBroadcaster(opts.Config.Game.SnapshotBuffer),
	}

	app.sessionService = NewSessionService(opts.Identity, opts.Store, rules, opts.Logger)
	app.sessionService.SetBroadcaster(app.broadcaster)
	app.sessionHandler = NewSessionHandler(app.sessionService, opts.Logger)
	app.watchHandler = NewWatchHandler(app.broadcaster, app.sessionService, opts.Logger)

	return app
}

// SessionService returns the session service for embedders
func (a *App) SessionService() *SessionService {
	return a.sessionService
}

// SetEventProducer wires the Kafka producer into the session service
func (a *App) SetEventProducer(producer *kafkaevents.Producer) {
	if producer == nil {
		return
	}
	a.sessionService.SetEventProducer(producer, a.config.Kafka.Topics)
}

// AttachProfileUpdateFeed attaches a source of remote profile updates
// (e.g. the Kafka consumer's subscription channel). Updates for the active
// user are folded into session state. Pass nil to detach.
func (a *App) AttachProfileUpdateFeed(updates <-chan kafkaevents.ProfileUpdate) {
	if a.feedCancel != nil {
		a.feedCancel()
		a.feedCancel = nil
	}
	if updates == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.feedCancel = cancel
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				a.sessionService.ApplyRemoteUpdate(upd.UserID, upd.Profile)
			}
		}
	}()
}

// UseCommonMiddlewares installs the standard middleware chain
func (a *App) UseCommonMiddlewares() {
	a.engine.Use(middleware.Recovery(a.logger))
	a.engine.Use(middleware.TraceID())
	a.engine.Use(middleware.Logging(a.logger))
	if a.config.Server.EnableCORS {
		a.engine.Use(middleware.CORS())
	}
}

// UseMiddleware adds a custom middleware
func (a *App) UseMiddleware(m gin.HandlerFunc) {
	a.engine.Use(m)
}

// RegisterHealthCheck adds health check endpoints
func (a *App) RegisterHealthCheck() {
	a.engine.GET("/health", a.healthCheck)
	a.engine.GET("/api/health", a.healthCheck)
}

func (a *App) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now(),
		"environment": a.config.Environment,
	})
}

// RegisterSessionRoutes registers the pet-game API.
//
// Flow: HTTP request -> sessionRoutes -> SessionHandler -> SessionService
//
// Routes:
//   - POST /api/session/login     -> SessionHandler.Login
//   - POST /api/session/restore   -> SessionHandler.Restore
//   - POST /api/session/logout    -> SessionHandler.Logout
//   - GET  /api/session           -> SessionHandler.GetState
//   - GET  /api/session/watch     -> WatchHandler.StreamState (SSE)
//   - GET  /api/session/watch/ws  -> WatchHandler.StreamStateWebSocket
//   - POST /api/pet/stats         -> SessionHandler.ChangeStat
//   - POST /api/shop/purchase     -> SessionHandler.Purchase
func (a *App) RegisterSessionRoutes() {
	api := a.engine.Group("/api")
	{
		session := api.Group("/session")
		{
			session.POST("/login", a.sessionHandler.Login)
			session.POST("/restore", a.sessionHandler.Restore)
			session.POST("/logout", a.sessionHandler.Logout)
			session.GET("", a.sessionHandler.GetState)
			session.GET("/watch", a.watchHandler.StreamState)
			session.GET("/watch/ws", a.watchHandler.StreamStateWebSocket)
		}
		api.POST("/pet/stats", a.sessionHandler.ChangeStat)
		api.POST("/shop/purchase", a.sessionHandler.Purchase)
	}

	a.logger.Info().Msg("Session routes registered: /api/session")
}

// Router returns the Gin engine for custom route registration
func (a *App) Router() *gin.Engine {
	return a.engine
}

// OnShutdown registers a function to be called on shutdown
func (a *App) OnShutdown(fn func()) {
	a.onShutdown = append(a.onShutdown, fn)
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM
func (a *App) Run() error {
	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Msg("Starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	return a.waitForShutdown()
}

// RunWithContext starts the HTTP server and shuts down when ctx is done
func (a *App) RunWithContext(ctx context.Context) error {
	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Msg("Starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errChan:
		return err
	}
}

func (a *App) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return a.shutdown()
}

func (a *App) shutdown() error {
	a.logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.feedCancel != nil {
		a.feedCancel()
		a.feedCancel = nil
	}
	a.sessionService.Close()

	for _, fn := range a.onShutdown {
		fn()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Error during server shutdown")
		return err
	}

	a.logger.Info().Msg("Server shutdown complete")
	return nil
}

// Config returns the application configuration
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger
func (a *App) Logger() zerolog.Logger {
	return a.logger
}
