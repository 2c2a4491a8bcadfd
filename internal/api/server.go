package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hotdesk/internal/config"
	"hotdesk/internal/domain"
	"hotdesk/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Server выставляет REST-поверхность поверх сервиса заявок.
type Server struct {
	cfg      config.APIConfig
	requests domain.RequestService
	server   *http.Server
	logger   zerolog.Logger
}

func NewServer(cfg config.APIConfig, requests domain.RequestService, logger *zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		requests: requests,
		logger:   logger.With().Str("component", "api").Logger(),
	}

	router := mux.NewRouter()
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/requests", s.handleCreateRequest).Methods(http.MethodPost)
	v1.HandleFunc("/requests/{id:[0-9]+}", s.handleGetRequest).Methods(http.MethodGet)
	v1.HandleFunc("/requests/{id:[0-9]+}/decide", s.handleDecide).Methods(http.MethodPost)
	v1.HandleFunc("/requests/{id:[0-9]+}/cancel", s.handleCancel).Methods(http.MethodPost)
	v1.HandleFunc("/requests/{id:[0-9]+}/reassign", s.handleReassign).Methods(http.MethodPost)
	v1.HandleFunc("/requests/{id:[0-9]+}/complaint", s.handleComplaint).Methods(http.MethodPost)
	v1.HandleFunc("/users/{id:[0-9]+}/requests", s.handleUserRequests).Methods(http.MethodGet)
	v1.HandleFunc("/reports/responders", s.handleResponderStats).Methods(http.MethodGet)
	v1.HandleFunc("/reports/cancellations", s.handleCancellationReasons).Methods(http.MethodGet)

	// Внутри mux, чтобы CurrentRoute видел шаблон пути.
	router.Use(s.loggingMiddleware)

	auth := NewAuth(cfg)
	handler := auth.Wrap(router)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler возвращает собранный стек обработчиков, используется в тестах.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

const requestIDHeader = "X-Request-Id"

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(endpointLabel(r))
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// endpointLabel collapses ids so the metric stays low-cardinality.
func endpointLabel(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return r.Method + " " + tmpl
		}
	}
	return r.Method + " " + r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
