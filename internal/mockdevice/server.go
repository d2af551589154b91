package mockdevice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/muurk/ledsetup/internal/discovery"
	"github.com/muurk/ledsetup/internal/logging"
)

// Config holds the server configuration
type Config struct {
	Host string
	Port int

	// Name is the device name reported in misc.name and, when Advertise is
	// set, the mDNS instance name.
	Name      string
	Advertise bool

	// Username and Password enable HTTP basic auth on the API when set.
	Username string
	Password string
}

// Server serves the controller REST API for a Device
type Server struct {
	config      *Config
	device      *Device
	router      chi.Router
	httpServer  *http.Server
	listener    net.Listener
	adv         *discovery.Advertisement
	unavailable atomic.Bool
}

// New creates a new Server for device
func New(config *Config, device *Device) *Server {
	s := &Server{
		config: config,
		device: device,
	}
	s.router = s.routes()
	return s
}

// Device returns the emulated controller behind the server.
func (s *Server) Device() *Device {
	return s.device
}

// Handler returns the API handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetUnavailable makes every API call fail with 503 until cleared.
func (s *Server) SetUnavailable(v bool) {
	s.unavailable.Store(v)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route(APIPath, func(r chi.Router) {
		r.Use(s.availability)
		if s.config.Username != "" {
			r.Use(middleware.BasicAuth("ledsetup-mock", map[string]string{
				s.config.Username: s.config.Password,
			}))
		}

		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handleUpdateConfig)
		r.Post("/config", s.handleUpdateConfig)
		r.Get("/wifi/scan", s.handleScan)
		r.Post("/ledstrip/test", s.handleStripTest)
		r.Put("/ledstrip/test", s.handleStripTest)
		r.Put("/test", s.handleStripTest)
		r.Get("/done_config", s.handleDone)
	})
	return r
}

func (s *Server) availability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.unavailable.Load() {
			writeMessage(w, http.StatusServiceUnavailable, "Device busy")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs every API request through the shared zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Debug("API request served",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// Start listens on the configured address, optionally advertises the
// service over mDNS, and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Mock controller listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("name", s.config.Name),
	)

	if s.config.Advertise {
		port := listener.Addr().(*net.TCPAddr).Port
		adv, err := discovery.Advertise(s.config.Name, port, APIPath+"/", "model=ledsetup-mock")
		if err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			s.adv = adv
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping mock controller...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Addr returns the listening address once Start has been called.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.adv.Shutdown()
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		return s.httpServer.Close()
	}
	logging.Info("Mock controller stopped")
	logging.Sync()
	return nil
}
