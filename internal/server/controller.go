// Package server exposes the snow water equivalent model over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/joaschauer/deltasnow/internal/log"
	"github.com/joaschauer/deltasnow/internal/storage"
	"github.com/joaschauer/deltasnow/pkg/deltasnow"
)

// Controller represents the REST server controller
type Controller struct {
	ctx      context.Context
	wg       *sync.WaitGroup
	opts     deltasnow.Options
	station  string
	Server   http.Server
	Store    *storage.Client
	logger   *zap.SugaredLogger
	handlers *Handlers
}

// NewController creates a new REST server controller. store may be nil, in
// which case runs are computed but not persisted and the run endpoints are
// not registered.
func NewController(ctx context.Context, wg *sync.WaitGroup, listenAddr string, station string, opts deltasnow.Options, store *storage.Client, logger *zap.SugaredLogger) (*Controller, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model options: %w", err)
	}

	if listenAddr == "" {
		logger.Info("http.listen-addr not provided; defaulting to 0.0.0.0:8080")
		listenAddr = "0.0.0.0:8080"
	}

	ctrl := &Controller{
		ctx:     ctx,
		wg:      wg,
		opts:    opts,
		station: station,
		Store:   store,
		logger:  logger,
	}

	ctrl.handlers = NewHandlers(ctrl)

	router := ctrl.setupRouter()
	ctrl.Server.Addr = listenAddr
	ctrl.Server.Handler = router

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/v1/swe", c.handlers.ComputeSWE).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/health", c.handlers.GetHealth).Methods(http.MethodGet)

	// Run endpoints need the database.
	if c.Store != nil {
		router.HandleFunc("/api/v1/runs", c.handlers.ListRuns).Methods(http.MethodGet)
		router.HandleFunc("/api/v1/runs/{id}", c.handlers.GetRun).Methods(http.MethodGet)
	}

	return router
}
