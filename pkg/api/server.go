package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/partyline/whispered/pkg/api/handlers"
	"github.com/partyline/whispered/pkg/api/middleware"
	authproviders "github.com/partyline/whispered/pkg/auth/providers"
	"github.com/partyline/whispered/pkg/game"
	"github.com/partyline/whispered/pkg/log"
	"github.com/partyline/whispered/pkg/metrics"
	"github.com/partyline/whispered/pkg/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port         int
	TLS          *TLSConfig
	AuthProvider authproviders.AuthProvider
	Executor     *game.Executor
	Store        store.Store
	Metrics      *metrics.Metrics
}

// NewAPIServer creates a new http.Server for handling game requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	authMiddleware := middleware.NewAuthMiddleware(opts.AuthProvider)

	router := mux.NewRouter()
	router.Handle("/games", authMiddleware(handlers.HandleCreateGame(opts.Executor))).Methods(http.MethodPost)
	router.Handle("/games/{code}/actions", authMiddleware(handlers.HandleAction(opts.Executor))).Methods(http.MethodPost)
	router.Handle("/games/{code}/private", authMiddleware(handlers.HandleGetPrivate(opts.Store))).Methods(http.MethodGet)
	router.Handle("/games/{code}/presence", authMiddleware(handlers.HandlePresence(opts.Executor))).Methods(http.MethodPut)
	router.Handle("/games/{code}/watch", HandleWatch(opts.Store, opts.Metrics)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}

	if err := listenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("API server error: %v", err)
	}
}

// Stop gracefully shuts down the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
