// Package server exposes the monitor's state and operations over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"emperror.dev/errors"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/memwatch/pkg/monitor"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	server *http.Server
	router *mux.Router
	cfg    *Options
	mon    *monitor.Monitor
}

func New(mon *monitor.Monitor, opts ...Option) *Server {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	s := &Server{
		cfg:    options,
		router: mux.NewRouter(),
		mon:    mon,
	}
	s.registerRoutes()
	return s
}

// Start serves until Stop is called. It blocks.
func (s *Server) Start() error {
	s.server = &http.Server{Addr: fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port), Handler: s.router}
	log.Infof("server started listening on %s:%d ...\n\n", s.cfg.Host, s.cfg.Port)
	err := s.server.ListenAndServe()
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Stop() error {
	log.Info("stopping server")
	if s.server == nil {
		return fmt.Errorf("server was not started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/stats", s.stats).Methods(http.MethodGet)
	s.router.HandleFunc("/history/memory", s.memoryHistory).Methods(http.MethodGet)
	s.router.HandleFunc("/history/cpu", s.cpuHistory).Methods(http.MethodGet)
	s.router.HandleFunc("/history/gc", s.gcHistory).Methods(http.MethodGet)
	s.router.HandleFunc("/history", s.clearHistory).Methods(http.MethodDelete)
	s.router.HandleFunc("/trend", s.trend).Methods(http.MethodGet)
	s.router.HandleFunc("/pressure", s.pressure).Methods(http.MethodGet)
	s.router.HandleFunc("/compatibility", s.compatibility).Methods(http.MethodGet)
	s.router.HandleFunc("/snapshots_size", s.snapshotsSize).Methods(http.MethodGet)
	s.router.HandleFunc("/leaks", s.detectLeaks).Methods(http.MethodPost)
	s.router.HandleFunc("/snapshot", s.captureSnapshot).Methods(http.MethodPost)
	s.router.HandleFunc("/export", s.exportReport).Methods(http.MethodPost)
}
